// Package codec is the image decode, scale and encode capability used by the
// resize pipeline.
package codec

import (
	"math"
)

// Output describes a written resized file.
type Output struct {
	Width  int
	Height int
	Bytes  int64
}

// Source is a decoded image held in memory until Close is called.
type Source interface {
	// Width and Height are the stored dimensions, before any EXIF
	// orientation is applied.
	Width() int
	Height() int

	// Interlaced reports whether the source is a progressive JPEG or an
	// interlaced PNG.
	Interlaced() bool

	// WriteScaled scales both axes by ratio, renders the pixels upright
	// according to the orientation metadata and encodes the result to dst
	// in the source's format.
	WriteScaled(dst string, ratio float64, quality int) (Output, error)

	Close() error
}

type Codec interface {
	Name() string
	Open(path string) (Source, error)
}

// ScaledSize applies ratio to both dimensions, rounding to the nearest pixel.
// No side is ever smaller than one pixel.
func ScaledSize(width, height int, ratio float64) (int, int) {
	w := int(math.Round(float64(width) * ratio))
	h := int(math.Round(float64(height) * ratio))
	return max(w, 1), max(h, 1)
}

// PNGCompressionLevel maps a 1-100 quality value to a zlib level 0-9 the way
// ImageMagick reads the tens digit of its PNG quality.
func PNGCompressionLevel(quality int) int {
	return min(max(quality/10, 0), 9)
}
