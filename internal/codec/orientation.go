package codec

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// EXIF orientation values.
const (
	OrientationNormal     = 1
	OrientationFlipH      = 2
	OrientationRotate180  = 3
	OrientationFlipV      = 4
	OrientationTranspose  = 5
	OrientationRotate270  = 6
	OrientationTransverse = 7
	OrientationRotate90   = 8
)

// ReadOrientation returns the EXIF orientation stored in buf, or
// OrientationNormal when there is none.
func ReadOrientation(buf []byte) int {
	x, err := exif.Decode(bytes.NewReader(buf))
	if err != nil {
		return OrientationNormal
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return OrientationNormal
	}
	v, err := tag.Int(0)
	if err != nil || v < OrientationNormal || v > OrientationRotate90 {
		return OrientationNormal
	}
	return v
}

// SwapsAxes reports whether rendering the given orientation upright exchanges
// width and height.
func SwapsAxes(orientation int) bool {
	return orientation >= OrientationTranspose && orientation <= OrientationRotate90
}

// orient renders img upright for the given EXIF orientation.
func orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case OrientationFlipH:
		return imaging.FlipH(img)
	case OrientationRotate180:
		return imaging.Rotate180(img)
	case OrientationFlipV:
		return imaging.FlipV(img)
	case OrientationTranspose:
		return imaging.Transpose(img)
	case OrientationRotate270:
		return imaging.Rotate270(img)
	case OrientationTransverse:
		return imaging.Transverse(img)
	case OrientationRotate90:
		return imaging.Rotate90(img)
	}
	return img
}
