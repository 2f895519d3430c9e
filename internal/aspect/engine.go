package aspect

import (
	"math"

	"github.com/denismitr/cropper/internal/geometry"
	"github.com/denismitr/cropper/internal/transform"
	"github.com/pkg/errors"
)

var ErrNotFreeStyle = errors.New("aspect viewport is locked to a ratio")

const DefaultMinViewportSide = 100.0

type Config struct {
	// FreeStyle lets the viewport be resized by its corners.
	FreeStyle       bool
	MinViewportSide float64
}

func DefaultConfig() Config {
	return Config{MinViewportSide: DefaultMinViewportSide}
}

// Handle is the part of the viewport being dragged in free-style mode.
type Handle int

const (
	Move Handle = iota
	TopLeft
	TopRight
	BottomRight
	BottomLeft
)

// Engine owns the viewport rectangle. The crop area is everything the
// viewport may occupy.
type Engine struct {
	cfg   Config
	area  geometry.Rect
	model *transform.Model

	imageWidth  float64
	imageHeight float64

	viewport geometry.Rect
	ratio    float64
	free     bool
}

func New(area geometry.Rect, model *transform.Model, cfg Config) *Engine {
	if cfg.MinViewportSide <= 0 {
		cfg.MinViewportSide = DefaultMinViewportSide
	}

	return &Engine{cfg: cfg, area: area, model: model, ratio: math.NaN(), viewport: area}
}

// SetImageSize binds the native size of the loaded image.
func (e *Engine) SetImageSize(w, h float64) {
	e.imageWidth = w
	e.imageHeight = h
}

func (e *Engine) Area() geometry.Rect {
	return e.area
}

func (e *Engine) Viewport() geometry.Rect {
	return e.viewport
}

// Ratio is the locked width/height ratio, NaN when unconstrained.
func (e *Engine) Ratio() float64 {
	return e.ratio
}

// FreeStyle reports whether the viewport can currently be resized.
func (e *Engine) FreeStyle() bool {
	return e.cfg.FreeStyle || e.free
}

// TargetRatio resolves an option against the bound image size.
func (e *Engine) TargetRatio(opt Option) float64 {
	r := opt.Value(e.imageWidth, e.imageHeight)
	if isFree(r) {
		return math.NaN()
	}

	return r
}

// Select lays out the viewport for the option and refits the image to it.
// Selecting the same option twice leaves identical state behind.
func (e *Engine) Select(opt Option) (geometry.Rect, transform.State, error) {
	e.ratio = e.TargetRatio(opt)
	e.free = isFree(e.ratio)
	e.viewport = Fit(e.area, e.ratio)

	state, err := e.model.Initialize(e.imageWidth, e.imageHeight, e.viewport)
	if err != nil {
		return geometry.Rect{}, transform.State{}, err
	}

	return e.viewport, state, nil
}

// Fit returns the largest rectangle with the ratio centered in area.
// A NaN ratio gives the area itself.
func Fit(area geometry.Rect, ratio float64) geometry.Rect {
	if isFree(ratio) {
		return area
	}

	w, h := area.Width(), area.Height()
	height := math.Round(w / ratio)
	if height > h {
		width := math.Round(h * ratio)
		return geometry.NewRect(area.Left+(w-width)/2, area.Top, width, h)
	}

	return geometry.NewRect(area.Left, area.Top+(h-height)/2, w, height)
}

// ResizeViewport drags a handle of the free-style viewport by (dx, dy).
// The viewport stays inside the area and no side gets shorter than the
// minimum; an axis that would violate either keeps its old edges.
// The image is not wrapped here, callers snap it back afterwards.
func (e *Engine) ResizeViewport(h Handle, dx, dy float64) (geometry.Rect, error) {
	if !e.FreeStyle() {
		return e.viewport, ErrNotFreeStyle
	}

	r := e.viewport
	next := r

	switch h {
	case Move:
		dx = math.Max(e.area.Left-r.Left, math.Min(e.area.Right-r.Right, dx))
		dy = math.Max(e.area.Top-r.Top, math.Min(e.area.Bottom-r.Bottom, dy))
		next = geometry.Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
	case TopLeft:
		next.Left, next.Top = r.Left+dx, r.Top+dy
	case TopRight:
		next.Right, next.Top = r.Right+dx, r.Top+dy
	case BottomRight:
		next.Right, next.Bottom = r.Right+dx, r.Bottom+dy
	case BottomLeft:
		next.Left, next.Bottom = r.Left+dx, r.Bottom+dy
	}

	next.Left = math.Max(next.Left, e.area.Left)
	next.Top = math.Max(next.Top, e.area.Top)
	next.Right = math.Min(next.Right, e.area.Right)
	next.Bottom = math.Min(next.Bottom, e.area.Bottom)

	if next.Width() < e.cfg.MinViewportSide {
		next.Left, next.Right = r.Left, r.Right
	}
	if next.Height() < e.cfg.MinViewportSide {
		next.Top, next.Bottom = r.Top, r.Bottom
	}

	e.viewport = next
	e.model.SetViewport(next)

	return next, nil
}
