package server

import (
	"strconv"

	"github.com/denismitr/cropper/internal/aspect"
	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/pipeline"
	"github.com/denismitr/cropper/internal/session"
	"github.com/pkg/errors"
)

var ErrBadQueryParam = errors.New("bad query parameter")

type aspectRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type createCropRequest struct {
	Source      string            `json:"source"`
	Destination string            `json:"destination"`
	Script      string            `json:"script"`
	Aspect      *aspectRequest    `json:"aspect"`
	FreeStyle   bool              `json:"freeStyle"`
	MaxWidth    int               `json:"maxWidth"`
	MaxHeight   int               `json:"maxHeight"`
	Format      string            `json:"format"`
	Quality     int               `json:"quality"`
	Adjustments media.Adjustments `json:"adjustments"`
	SkipExif    bool              `json:"skipExif"`
}

type createCropDTO struct {
	cfg session.Config
	ops []session.Op
}

// toDTO turns the request into a session config. The adjustments of the
// request are applied through the script so they flow through the same path
// as an interactive edit.
func (r *createCropRequest) toDTO() (*createCropDTO, error) {
	vErr := pipeline.NewValidationError()

	cfg := session.DefaultConfig(r.Source, r.Destination)
	cfg.FreeStyle = r.FreeStyle
	cfg.Params.MaxWidth = r.MaxWidth
	cfg.Params.MaxHeight = r.MaxHeight
	cfg.Params.SkipExif = r.SkipExif
	if r.Quality != 0 {
		cfg.Params.Quality = r.Quality
	}

	if r.Format != "" {
		f, err := media.ParseFormat(r.Format)
		if err != nil {
			vErr.Add("format", err.Error())
		}
		cfg.Params.Format = f
	}

	if r.Aspect != nil {
		opts, err := aspect.NewOptions(0, aspect.Ratio(r.Aspect.X, r.Aspect.Y))
		if err != nil || r.Aspect.X < 0 || r.Aspect.Y < 0 {
			vErr.Add("aspect", "Aspect must be two non negative numbers")
		}
		cfg.Options = opts
	}

	ops, err := session.ParseScript(r.Script)
	if err != nil {
		var sErr *pipeline.ValidationError
		if errors.As(err, &sErr) {
			for k, v := range sErr.Errors() {
				vErr.Add("script."+k, v)
			}
		} else {
			vErr.Add("script", err.Error())
		}
	}

	ops = append(ops, adjustmentOps(r.Adjustments)...)

	if !vErr.Empty() {
		return nil, vErr
	}

	return &createCropDTO{cfg: cfg, ops: ops}, nil
}

func adjustmentOps(a media.Adjustments) []session.Op {
	var ops []session.Op
	add := func(name string, v float64) {
		if v != 0 {
			ops = append(ops, session.Op{Name: name, Args: []float64{v}})
		}
	}

	add("brightness", a.Brightness)
	add("contrast", a.Contrast)
	add("saturation", a.Saturation)
	add("sharpness", a.Sharpness)

	return ops
}

func intFromQueryStringOrDefault(input string, def int) (int, error) {
	if input == "" {
		return def, nil
	}

	v, err := strconv.Atoi(input)
	if err != nil || v < 0 {
		return 0, errors.Wrapf(ErrBadQueryParam, "%s is not a valid positive integer", input)
	}

	return v, nil
}
