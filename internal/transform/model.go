package transform

import (
	"math"

	"github.com/denismitr/cropper/internal/geometry"
	"github.com/pkg/errors"
)

var ErrEmptyImageRect = errors.New("transform empty image rect")

const DefaultMaxScaleMultiplier = 10.0

type Config struct {
	// MaxScaleMultiplier bounds the zoom: MaxScale = MinScale * MaxScaleMultiplier.
	MaxScaleMultiplier float64
}

func DefaultConfig() Config {
	return Config{MaxScaleMultiplier: DefaultMaxScaleMultiplier}
}

// State is a read-only snapshot of the placement of the image.
type State struct {
	Scale        float64
	Angle        float64
	TranslationX float64
	TranslationY float64
	MinScale     float64
	MaxScale     float64
}

// Model tracks how a bitmap of fixed size is placed against the viewport.
// All placement lives in a single affine matrix so that incremental
// gestures compose without accumulating separate scale/angle fields.
type Model struct {
	cfg Config

	imageWidth  float64
	imageHeight float64

	matrix   geometry.Matrix
	viewport geometry.Rect
	minScale float64
	maxScale float64

	laidOut bool
}

func New(cfg Config) *Model {
	if cfg.MaxScaleMultiplier <= 0 {
		cfg.MaxScaleMultiplier = DefaultMaxScaleMultiplier
	}

	return &Model{cfg: cfg, matrix: geometry.Identity()}
}

// Initialize fits an image of the given native size to the viewport:
// the image is scaled to cover the viewport, centered on it and unrotated.
func (m *Model) Initialize(imageWidth, imageHeight float64, viewport geometry.Rect) (State, error) {
	if imageWidth <= 0 || imageHeight <= 0 || viewport.Empty() {
		return State{}, errors.Wrapf(
			ErrEmptyImageRect,
			"cannot lay out %.0fx%.0f image in %.1fx%.1f viewport",
			imageWidth, imageHeight, viewport.Width(), viewport.Height(),
		)
	}

	m.imageWidth = imageWidth
	m.imageHeight = imageHeight
	m.viewport = viewport
	m.calculateScaleBounds()

	initial := math.Max(viewport.Width()/imageWidth, viewport.Height()/imageHeight)
	tx := (viewport.Width()-imageWidth*initial)/2 + viewport.Left
	ty := (viewport.Height()-imageHeight*initial)/2 + viewport.Top

	m.matrix = geometry.Scaling(initial, 0, 0).Then(geometry.Translation(tx, ty))
	m.laidOut = true

	// very elongated images need more than MaxScaleMultiplier to cover
	if initial > m.maxScale {
		m.maxScale = initial
	}

	return m.State(), nil
}

// SetViewport replaces the viewport while keeping the current placement.
// Scale bounds are recomputed and the scale pulled back inside them; the
// caller decides whether to wrap.
func (m *Model) SetViewport(viewport geometry.Rect) {
	m.viewport = viewport
	if !m.laidOut {
		return
	}

	m.calculateScaleBounds()
	if s := m.Scale(); s < m.minScale || s > m.maxScale {
		m.matrix = m.matrix.Then(geometry.Scaling(clamp(s, m.minScale, m.maxScale)/s, viewport.CenterX(), viewport.CenterY()))
	}
}

func (m *Model) calculateScaleBounds() {
	w, h := m.imageWidth, m.imageHeight
	vw, vh := m.viewport.Width(), m.viewport.Height()

	widthScale := math.Min(vw/w, vw/h)
	heightScale := math.Min(vh/h, vh/w)

	m.minScale = math.Min(widthScale, heightScale)
	m.maxScale = m.minScale * m.cfg.MaxScaleMultiplier
}

func (m *Model) LaidOut() bool {
	return m.laidOut
}

func (m *Model) Viewport() geometry.Rect {
	return m.viewport
}

func (m *Model) Matrix() geometry.Matrix {
	return m.matrix
}

func (m *Model) Scale() float64 {
	return m.matrix.Scale()
}

func (m *Model) MinScale() float64 {
	return m.minScale
}

func (m *Model) MaxScale() float64 {
	return m.maxScale
}

// Angle is the current rotation normalized to [0, 360).
func (m *Model) Angle() float64 {
	return geometry.NormalizeAngle(m.matrix.Angle())
}

// Corners returns the four image corners in view space.
func (m *Model) Corners() []float64 {
	return m.matrix.MapPoints(geometry.Rect{Right: m.imageWidth, Bottom: m.imageHeight}.Corners())
}

// ImageRect is the bounding box of the displayed image in view space.
func (m *Model) ImageRect() geometry.Rect {
	return geometry.TrapToRect(m.Corners())
}

func (m *Model) Center() (float64, float64) {
	return m.matrix.MapPoint(m.imageWidth/2, m.imageHeight/2)
}

func (m *Model) ImageSize() (float64, float64) {
	return m.imageWidth, m.imageHeight
}

func (m *Model) State() State {
	tx, ty := m.matrix.Translation()
	return State{
		Scale:        m.Scale(),
		Angle:        m.Angle(),
		TranslationX: tx,
		TranslationY: ty,
		MinScale:     m.minScale,
		MaxScale:     m.maxScale,
	}
}

// PostScale multiplies the scale by factor around the pivot, clamping the
// result to [MinScale, MaxScale]. It returns the factor actually applied.
func (m *Model) PostScale(factor, px, py float64) float64 {
	if !m.laidOut || factor <= 0 || factor == 1 {
		return 1
	}

	current := m.Scale()
	target := clamp(current*factor, m.minScale, m.maxScale)
	applied := target / current
	if applied == 1 {
		return 1
	}

	m.matrix = m.matrix.Then(geometry.Scaling(applied, px, py))
	return applied
}

// ZoomTo sets the absolute scale around the pivot, clamped to the bounds.
func (m *Model) ZoomTo(scale, px, py float64) {
	if !m.laidOut || scale <= 0 {
		return
	}

	m.PostScale(scale/m.Scale(), px, py)
}

// PostTranslate moves the image. No clamping happens here; see WrapToBounds.
func (m *Model) PostTranslate(dx, dy float64) {
	if !m.laidOut || (dx == 0 && dy == 0) {
		return
	}

	m.matrix = m.matrix.Then(geometry.Translation(dx, dy))
}

// PostRotate rotates the image clockwise by degrees around the pivot.
func (m *Model) PostRotate(degrees, px, py float64) {
	if !m.laidOut || degrees == 0 {
		return
	}

	m.matrix = m.matrix.Then(geometry.Rotation(degrees, px, py))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
