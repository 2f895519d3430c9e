package pipeline

import (
	"image"
	"io"

	"github.com/chai2010/webp"
	"github.com/denismitr/cropper/internal/media"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Encode writes img to w in the requested format. Quality is ignored by
// the lossless formats.
func Encode(w io.Writer, img image.Image, format media.Format, quality int) error {
	var err error
	switch format {
	case media.JPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case media.PNG:
		err = imaging.Encode(w, img, imaging.PNG)
	case media.WEBP, media.WEBPLossless:
		err = webp.Encode(w, img, &webp.Options{
			Lossless: format.Lossless(),
			Quality:  float32(quality),
		})
	default:
		return errors.Wrapf(media.ErrInvalidFormat, "cannot encode %q", format)
	}

	if err != nil {
		return errors.Wrapf(err, "could not encode %s", format)
	}

	return nil
}
