package loader

import (
	"bytes"
	"image"
	"io"
	"io/ioutil"

	// decoders for image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/bamiaux/rez"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder is the codec capability the loader drives. DecodeCost reports the
// peak bytes Decode allocates for the stored bounds at a sample size, so the
// loader can refuse a decode before any pixel is read. Decode must return
// ErrOutOfMemory when the requested bitmap does not fit; the loader then
// retries with a larger sample size.
type Decoder interface {
	DecodeConfig(r io.Reader) (image.Config, string, error)
	DecodeCost(cfg image.Config, sampleSize int) int64
	Decode(r io.Reader, sampleSize int) (image.Image, error)
}

// ImageDecoder decodes with the registered image codecs at full resolution
// and then downsamples by the sample size. Budget caps the peak bytes of a
// decode and is checked against the stored bounds first; zero means no cap.
type ImageDecoder struct {
	Budget int64
}

func (d ImageDecoder) DecodeConfig(r io.Reader) (image.Config, string, error) {
	return image.DecodeConfig(r)
}

// DecodeCost counts the full resolution bitmap every registered codec
// allocates, plus the RGBA copy and the output of a downsample.
func (d ImageDecoder) DecodeCost(cfg image.Config, sampleSize int) int64 {
	native := BitmapBytes(cfg.Width, cfg.Height)
	if sampleSize <= 1 {
		return native
	}

	return 2*native + BitmapBytes(cfg.Width/sampleSize, cfg.Height/sampleSize)
}

func (d ImageDecoder) Decode(r io.Reader, sampleSize int) (image.Image, error) {
	if sampleSize < 1 {
		sampleSize = 1
	}

	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	w, h := cfg.Width/sampleSize, cfg.Height/sampleSize
	if w < 1 || h < 1 {
		return nil, errors.Errorf("sample size %d leaves nothing of %dx%d", sampleSize, cfg.Width, cfg.Height)
	}

	if cost := d.DecodeCost(cfg, sampleSize); d.Budget > 0 && cost > d.Budget {
		return nil, errors.Wrapf(
			ErrOutOfMemory,
			"decoding %dx%d at sample %d needs %s, budget %s",
			cfg.Width, cfg.Height, sampleSize, humanize.IBytes(uint64(cost)), humanize.IBytes(uint64(d.Budget)),
		)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if sampleSize == 1 {
		return src, nil
	}

	b := src.Bounds()
	return downsample(src, b.Dx()/sampleSize, b.Dy()/sampleSize), nil
}

// downsample converts to RGBA and resizes with rez, falling back to imaging
// for sizes rez refuses.
func downsample(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	in, ok := src.(*image.RGBA)
	if !ok {
		in = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(in, in.Bounds(), src, b.Min, draw.Src)
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := rez.Convert(out, in, rez.NewBilinearFilter()); err != nil {
		return imaging.Resize(in, w, h, imaging.Box)
	}

	return out
}

// BitmapBytes is the size of a w x h bitmap at four bytes per pixel.
func BitmapBytes(w, h int) int64 {
	return int64(w) * int64(h) * 4
}

// SampleSize is the largest power of two that still leaves at least the
// required size on both axes. A non-positive requirement does not constrain
// its axis.
func SampleSize(width, height, requiredWidth, requiredHeight int) int {
	if requiredWidth <= 0 {
		requiredWidth = 1
	}
	if requiredHeight <= 0 {
		requiredHeight = 1
	}

	sample := 1
	for width/(sample*2) >= requiredWidth && height/(sample*2) >= requiredHeight {
		sample *= 2
	}

	return sample
}
