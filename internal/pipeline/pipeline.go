package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/denismitr/cropper/internal/loader"
	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/storage"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FullDecoder decodes the source of a bitmap at its full usable resolution.
type FullDecoder interface {
	DecodeFull(ctx context.Context, bm *loader.Bitmap) (image.Image, error)
}

type Input struct {
	Bitmap *loader.Bitmap
	State  ImageState
	Params Params
}

type Result struct {
	Location    string       `json:"location"`
	OffsetX     int          `json:"offsetX"`
	OffsetY     int          `json:"offsetY"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	AspectRatio float64      `json:"aspectRatio"`
	Format      media.Format `json:"format"`
	Size        int64        `json:"size"`
	// Angle, Scale and Adjustments echo the state the crop was taken from.
	Angle       float64           `json:"angle"`
	Scale       float64           `json:"scale"`
	Adjustments media.Adjustments `json:"adjustments"`
	// Copied is set when the source bytes were copied untouched.
	Copied bool `json:"copied"`
}

type Pipeline struct {
	decoder   FullDecoder
	storage   storage.Storage
	convolver Convolver
	tempDir   string
	logger    logrus.FieldLogger
}

// New creates a pipeline. decoder may be nil, in which case the displayed
// bitmap is cropped; s may be nil when no destination is remote.
func New(decoder FullDecoder, s storage.Storage, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		decoder:   decoder,
		storage:   s,
		convolver: ImagingConvolver{},
		tempDir:   os.TempDir(),
		logger:    logger,
	}
}

// WithTempDir sets where results bound for storage are staged.
func (p *Pipeline) WithTempDir(dir string) *Pipeline {
	p.tempDir = dir
	return p
}

// Execute turns the committed state into a result at the destination. On
// failure nothing is left at the destination.
func (p *Pipeline) Execute(ctx context.Context, in Input) (*Result, error) {
	params := in.Params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	bm := in.Bitmap
	if bm == nil || bm.Image == nil {
		return nil, errors.Wrap(ErrInvalidParams, "no bitmap to crop")
	}

	lg := p.logger.WithFields(logrus.Fields{
		"source":      bm.Locator,
		"destination": params.Destination,
		"format":      params.Format,
	})

	viewW, viewH := float64(bm.Width()), float64(bm.Height())
	plan := NewPlan(in.State, p.nativeRatio(bm, viewW, viewH), params.MaxWidth, params.MaxHeight)

	out, err := newOutput(params.Destination, p.tempDir)
	if err != nil {
		return nil, err
	}
	defer out.cleanup()

	copied := p.canCopy(bm, plan, params)
	if copied {
		if err := copyFile(out.file, bm.Path); err != nil {
			return nil, errors.Wrap(err, "could not copy source")
		}
	} else {
		src, ratio, err := p.source(ctx, bm, viewW, viewH)
		if err != nil {
			return nil, err
		}

		plan = NewPlan(in.State, ratio, params.MaxWidth, params.MaxHeight)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := p.render(src, in.State, plan, params)
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := p.write(out.file, img, bm, params); err != nil {
			return nil, err
		}

		plan.Width, plan.Height = img.Bounds().Dx(), img.Bounds().Dy()
	}

	size, err := out.commit(ctx, p.storage)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Location:    params.Destination,
		OffsetX:     plan.OffsetX,
		OffsetY:     plan.OffsetY,
		Width:       plan.Width,
		Height:      plan.Height,
		AspectRatio: in.State.CropRect.Width() / in.State.CropRect.Height(),
		Format:      params.Format,
		Size:        size,
		Angle:       in.State.Angle,
		Scale:       in.State.Scale,
		Adjustments: params.Adjustments,
		Copied:      copied,
	}

	lg.WithFields(logrus.Fields{
		"offset": [2]int{res.OffsetX, res.OffsetY},
		"size":   [2]int{res.Width, res.Height},
		"bytes":  humanize.Bytes(uint64(size)),
		"copied": copied,
	}).Info("crop completed")

	return res, nil
}

// canCopy reports whether the source file already is the result.
func (p *Pipeline) canCopy(bm *loader.Bitmap, plan Plan, params Params) bool {
	return !plan.ShouldCrop &&
		params.Adjustments.None() &&
		bm.Path != "" &&
		!bm.Exif.Applied &&
		sameFormat(bm.Format, params.Format)
}

func sameFormat(decoded string, f media.Format) bool {
	src, err := media.ParseFormat(decoded)
	if err != nil {
		return false
	}

	return src == f
}

// nativeRatio estimates the source ratio before anything is decoded.
func (p *Pipeline) nativeRatio(bm *loader.Bitmap, viewW, viewH float64) float64 {
	w, h := float64(bm.NativeWidth), float64(bm.NativeHeight)
	if bm.Exif.Degrees == 90 || bm.Exif.Degrees == 270 {
		w, h = h, w
	}

	if w <= 0 || h <= 0 || p.decoder == nil || bm.Path == "" {
		return 1
	}

	return math.Min(w/viewW, h/viewH)
}

// source picks the pixels to crop from and how many of them stand for one
// displayed pixel.
func (p *Pipeline) source(ctx context.Context, bm *loader.Bitmap, viewW, viewH float64) (image.Image, float64, error) {
	if p.decoder == nil || bm.Path == "" {
		return bm.Image, 1, nil
	}

	full, err := p.decoder.DecodeFull(ctx, bm)
	if err != nil {
		return nil, 0, err
	}

	b := full.Bounds()
	return full, math.Min(float64(b.Dx())/viewW, float64(b.Dy())/viewH), nil
}

func (p *Pipeline) render(src image.Image, s ImageState, plan Plan, params Params) (image.Image, error) {
	img := src
	if plan.ResizeScale != 1 {
		b := img.Bounds()
		w := max(1, int(math.Round(float64(b.Dx())*plan.ResizeScale)))
		h := max(1, int(math.Round(float64(b.Dy())*plan.ResizeScale)))
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	if s.Angle != 0 {
		// imaging turns counter-clockwise
		img = imaging.Rotate(img, -s.Angle, color.Transparent)
	}

	rect, err := cropRect(img.Bounds(), plan)
	if err != nil {
		return nil, err
	}

	if rect != img.Bounds() {
		img = imaging.Crop(img, rect)
	}

	adj := params.Adjustments
	if m := AdjustmentMatrix(adj); !m.Identity() {
		img = m.Apply(img)
	}

	return Sharpen(p.convolver, img, adj.Sharpness), nil
}

// cropRect places the planned crop inside bounds. Overruns within the
// pixel error are rounding noise and get shifted back inside.
func cropRect(bounds image.Rectangle, plan Plan) (image.Rectangle, error) {
	tolerance := int(PixelError(plan.Width, plan.Height))
	r := image.Rect(plan.OffsetX, plan.OffsetY, plan.OffsetX+plan.Width, plan.OffsetY+plan.Height).Add(bounds.Min)

	if r.Empty() ||
		r.Min.X < bounds.Min.X-tolerance || r.Min.Y < bounds.Min.Y-tolerance ||
		r.Max.X > bounds.Max.X+tolerance || r.Max.Y > bounds.Max.Y+tolerance {
		return image.Rectangle{}, newError(
			ErrOutOfBounds,
			errors.Errorf("crop %v does not fit image %v", r, bounds),
		)
	}

	if dx := bounds.Min.X - r.Min.X; dx > 0 {
		r = r.Add(image.Pt(dx, 0))
	}
	if dy := bounds.Min.Y - r.Min.Y; dy > 0 {
		r = r.Add(image.Pt(0, dy))
	}
	if dx := r.Max.X - bounds.Max.X; dx > 0 {
		r = r.Sub(image.Pt(dx, 0))
	}
	if dy := r.Max.Y - bounds.Max.Y; dy > 0 {
		r = r.Sub(image.Pt(0, dy))
	}

	return r.Intersect(bounds), nil
}

// write encodes img and carries the source metadata over when the format
// has room for it.
func (p *Pipeline) write(w io.Writer, img image.Image, bm *loader.Bitmap, params Params) error {
	var buf bytes.Buffer
	if err := Encode(&buf, img, params.Format, params.Quality); err != nil {
		return newError(ErrEncodeFailed, err)
	}

	sink := StreamMetadata{Encoded: buf.Bytes(), Dest: w}

	var tiff []byte
	if !params.SkipExif && CarriesExif(params.Format) && bm.Path != "" {
		raw, err := FileMetadata{Path: bm.Path}.ReadExif()
		if err != nil {
			return newError(ErrExifCopyFailed, err)
		}

		if raw != nil {
			b := img.Bounds()
			if tiff, err = PatchExif(raw, b.Dx(), b.Dy()); err != nil {
				return newError(ErrExifCopyFailed, err)
			}
		}
	}

	if err := sink.WriteExif(tiff); err != nil {
		if len(tiff) > 0 {
			return newError(ErrExifCopyFailed, err)
		}
		return newError(ErrEncodeFailed, err)
	}

	return nil
}

func copyFile(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(dst, f)
	return err
}
