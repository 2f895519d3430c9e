package loader

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// EXIF orientation codes.
const (
	OrientationUndefined  = 0
	OrientationNormal     = 1
	OrientationFlipH      = 2
	OrientationRotate180  = 3
	OrientationFlipV      = 4
	OrientationTranspose  = 5
	OrientationRotate90   = 6
	OrientationTransverse = 7
	OrientationRotate270  = 8
)

// maximum distance into the file to look for EXIF tags
const maxExifSize = 1 << 20

type ExifInfo struct {
	Orientation int
	// Degrees of clockwise rotation, one of 0, 90, 180, 270.
	Degrees int
	// Mirror is -1 when the image is flipped horizontally after rotation.
	Mirror int
	// Applied is set once the bitmap pixels have been corrected.
	Applied bool
}

func NewExifInfo(orientation int) ExifInfo {
	return ExifInfo{
		Orientation: orientation,
		Degrees:     ExifToDegrees(orientation),
		Mirror:      ExifToTranslation(orientation),
	}
}

// Identity reports whether the orientation needs no pixel correction.
func (e ExifInfo) Identity() bool {
	return e.Degrees == 0 && e.Mirror == 1
}

func ExifToDegrees(orientation int) int {
	switch orientation {
	case OrientationRotate90, OrientationTranspose:
		return 90
	case OrientationRotate180, OrientationFlipV:
		return 180
	case OrientationRotate270, OrientationTransverse:
		return 270
	default:
		return 0
	}
}

func ExifToTranslation(orientation int) int {
	switch orientation {
	case OrientationFlipH, OrientationFlipV, OrientationTranspose, OrientationTransverse:
		return -1
	default:
		return 1
	}
}

// ReadOrientation returns the orientation tag or OrientationUndefined when
// the stream carries no readable EXIF.
func ReadOrientation(r io.Reader) int {
	x, err := exif.Decode(io.LimitReader(r, maxExifSize))
	if err != nil {
		return OrientationUndefined
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return OrientationUndefined
	}

	orient, err := tag.Int(0)
	if err != nil || orient < OrientationNormal || orient > OrientationRotate270 {
		return OrientationUndefined
	}

	return orient
}

// ApplyExif rotates clockwise by Degrees and then mirrors horizontally.
func ApplyExif(img image.Image, info ExifInfo) image.Image {
	if info.Identity() {
		return img
	}

	switch info.Degrees {
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	}

	if info.Mirror == -1 {
		img = imaging.FlipH(img)
	}

	return img
}
