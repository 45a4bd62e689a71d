package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"

	_ "golang.org/x/image/webp" // Register WebP decoding
)

// ImagingCodec is a pure Go codec built on disintegration/imaging. Go's
// encoders write baseline JPEG and non-interlaced PNG only, so the source
// interlace setting is not carried over.
type ImagingCodec struct{}

func NewImagingCodec() *ImagingCodec {
	return &ImagingCodec{}
}

func (c *ImagingCodec) Name() string {
	return "imaging"
}

func (c *ImagingCodec) Open(path string) (Source, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file %s: %w", path, err)
	}
	if !filetype.IsImage(buf) {
		return nil, fmt.Errorf("file %s does not contain a recognized image", path)
	}

	// Decode without auto orientation, it is applied after scaling.
	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf(
			"invalid source image dimensions: width=%d, height=%d",
			b.Dx(),
			b.Dy(),
		)
	}

	return &imagingSource{
		img:         img,
		width:       b.Dx(),
		height:      b.Dy(),
		orientation: ReadOrientation(buf),
		interlaced:  DetectInterlace(buf),
	}, nil
}

type imagingSource struct {
	img         image.Image
	width       int
	height      int
	orientation int
	interlaced  bool
}

func (s *imagingSource) Width() int       { return s.width }
func (s *imagingSource) Height() int      { return s.height }
func (s *imagingSource) Interlaced() bool { return s.interlaced }

func (s *imagingSource) WriteScaled(
	dst string,
	ratio float64,
	quality int,
) (Output, error) {
	if s.img == nil {
		return Output{}, fmt.Errorf("source image already closed")
	}
	if _, err := imaging.FormatFromFilename(dst); err != nil {
		return Output{}, fmt.Errorf("cannot encode %s: %w", dst, err)
	}

	w, h := ScaledSize(s.Width(), s.Height(), ratio)
	scaled := imaging.Resize(s.img, w, h, imaging.Lanczos)
	upright := orient(scaled, s.orientation)

	err := imaging.Save(
		upright,
		dst,
		imaging.JPEGQuality(quality),
		imaging.PNGCompressionLevel(goPNGCompression(PNGCompressionLevel(quality))),
	)
	if err != nil {
		return Output{}, fmt.Errorf("failed to write resized file %s: %w", dst, err)
	}

	out := Output{
		Width:  upright.Bounds().Dx(),
		Height: upright.Bounds().Dy(),
	}
	if info, err := os.Stat(dst); err == nil {
		out.Bytes = info.Size()
	}
	return out, nil
}

func (s *imagingSource) Close() error {
	s.img = nil
	return nil
}

// goPNGCompression buckets a zlib level into the four levels image/png offers.
func goPNGCompression(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
