package gesture

import (
	"math"
	"time"

	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/transform"
)

// Mapper turns gesture and wheel input into changes of the transform model.
// It is not safe for concurrent use; the session goroutine owns it.
type Mapper struct {
	cfg   Config
	model *transform.Model

	tab         Tab
	adjustments media.Adjustments
	anim        *animation
}

func New(model *transform.Model, cfg Config) *Mapper {
	if cfg.DoubleTapSteps <= 0 {
		cfg.DoubleTapSteps = DefaultDoubleTapSteps
	}

	return &Mapper{cfg: cfg, model: model, tab: TabScale}
}

func (m *Mapper) Model() *transform.Model {
	return m.model
}

func (m *Mapper) Tab() Tab {
	return m.tab
}

func (m *Mapper) SelectTab(t Tab) {
	m.tab = t
}

// Allowed is the set of gestures the selected tab lets through.
func (m *Mapper) Allowed() Gestures {
	return m.cfg.allowedFor(m.tab)
}

func (m *Mapper) Adjustments() media.Adjustments {
	return m.adjustments
}

func (m *Mapper) SetAdjustments(a media.Adjustments) {
	m.adjustments = a.Clamp()
}

func (m *Mapper) Animating() bool {
	return m.anim != nil
}

// Cancel drops any running animation where it is.
func (m *Mapper) Cancel() {
	m.anim = nil
}

// ScrollStart is the wheel touch down.
func (m *Mapper) ScrollStart() {
	m.Cancel()
}

// Scroll feeds a wheel delta to the control of the selected tab.
func (m *Mapper) Scroll(delta, totalDistance float64) {
	if !m.model.LaidOut() || delta == 0 {
		return
	}

	vp := m.model.Viewport()

	switch m.tab {
	case TabRotate:
		m.model.PostRotate(delta/RotateSensitivity, vp.CenterX(), vp.CenterY())
	case TabScale:
		step := (m.model.MaxScale() - m.model.MinScale()) / ScaleSensitivity
		m.model.ZoomTo(m.model.Scale()+delta*step, vp.CenterX(), vp.CenterY())
	case TabBrightness:
		m.adjustments.Brightness += delta / BrightnessSensitivity
	case TabContrast:
		m.adjustments.Contrast += delta / ContrastSensitivity
	case TabSaturation:
		m.adjustments.Saturation += delta / SaturationSensitivity
	case TabSharpness:
		m.adjustments.Sharpness += delta / SharpnessSensitivity
	}

	m.adjustments = m.adjustments.Clamp()
}

// ScrollEnd is the wheel release; the image snaps back into the viewport.
func (m *Mapper) ScrollEnd(now time.Time) {
	m.WrapToBounds(now)
}

// GestureStart is the first pointer going down on the image.
func (m *Mapper) GestureStart() {
	m.Cancel()
}

// GestureEnd is the last pointer going up.
func (m *Mapper) GestureEnd(now time.Time) {
	m.WrapToBounds(now)
}

// Drag pans the image. Panning is never disabled.
func (m *Mapper) Drag(dx, dy float64) {
	m.model.PostTranslate(dx, dy)
}

// Pinch scales around the focus point when the tab allows scaling.
func (m *Mapper) Pinch(fx, fy, factor float64) bool {
	if !m.Allowed().Allows(Scale) {
		return false
	}

	return m.model.PostScale(factor, fx, fy) != 1
}

// TwoFingerRotate rotates around the focus point when the tab allows rotation.
func (m *Mapper) TwoFingerRotate(fx, fy, degrees float64) bool {
	if !m.Allowed().Allows(Rotate) {
		return false
	}

	m.model.PostRotate(degrees, fx, fy)
	return true
}

// DoubleTap zooms one step towards MaxScale around the tap.
func (m *Mapper) DoubleTap(fx, fy float64, now time.Time) bool {
	if !m.Allowed().Allows(Scale) || !m.model.LaidOut() {
		return false
	}

	m.Cancel()
	target := m.DoubleTapTargetScale()
	if m.cfg.DoubleTapDuration <= 0 {
		m.model.ZoomTo(target, fx, fy)
		m.model.WrapToBounds()
		return true
	}

	from := m.model.Scale()
	m.anim = &animation{
		kind:       zoomAnimation,
		started:    now,
		duration:   m.cfg.DoubleTapDuration,
		fromScale:  from,
		deltaScale: target - from,
		px:         fx,
		py:         fy,
	}

	return true
}

func (m *Mapper) DoubleTapTargetScale() float64 {
	ratio := m.model.MaxScale() / m.model.MinScale()
	return m.model.Scale() * math.Pow(ratio, 1/float64(m.cfg.DoubleTapSteps))
}

// ResetRotation turns the image back to zero degrees about the viewport center.
func (m *Mapper) ResetRotation(now time.Time) {
	vp := m.model.Viewport()
	m.Cancel()
	m.model.PostRotate(-m.model.Angle(), vp.CenterX(), vp.CenterY())
	m.WrapToBounds(now)
}

func (m *Mapper) RotateBy(degrees float64, now time.Time) {
	vp := m.model.Viewport()
	m.Cancel()
	m.model.PostRotate(degrees, vp.CenterX(), vp.CenterY())
	m.WrapToBounds(now)
}

// ZoomTo sets the absolute scale about the viewport center.
func (m *Mapper) ZoomTo(scale float64, now time.Time) {
	vp := m.model.Viewport()
	m.Cancel()
	m.model.ZoomTo(scale, vp.CenterX(), vp.CenterY())
	m.WrapToBounds(now)
}

// WrapToBounds starts the snap back animation, or snaps immediately when the
// configured duration is zero. It reports whether any correction is needed.
func (m *Mapper) WrapToBounds(now time.Time) bool {
	m.Cancel()

	if m.cfg.WrapDuration <= 0 {
		return m.model.WrapToBounds()
	}

	w, ok := m.model.WrapTarget()
	if !ok {
		return false
	}

	m.anim = &animation{
		kind:     wrapAnimation,
		started:  now,
		duration: m.cfg.WrapDuration,
		wrap:     w,
	}

	return true
}

// Tick advances the running animation to now. It returns true while an
// animation is still running.
func (m *Mapper) Tick(now time.Time) bool {
	if m.anim == nil {
		return false
	}

	if !m.anim.step(m.model, now) {
		return true
	}

	kind := m.anim.kind
	m.anim = nil

	// eased partial zooms drift the center a little; settle on the exact fixed point
	if kind == zoomAnimation {
		m.WrapToBounds(now)
		return m.anim != nil
	}

	m.model.WrapToBounds()
	return false
}

// Settle finishes any running animation at once.
func (m *Mapper) Settle() {
	if m.anim == nil {
		return
	}

	m.anim.duration = 0
	for m.Tick(time.Time{}) {
		m.anim.duration = 0
	}
}
