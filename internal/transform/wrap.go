package transform

import (
	"math"

	"github.com/denismitr/cropper/internal/geometry"
)

// Wrap describes the correction that makes the image cover the viewport.
// Either a pure translation (TranslateOnly) or a recentering translation
// followed by a zoom to Scale around the viewport center.
type Wrap struct {
	DeltaX        float64
	DeltaY        float64
	FromScale     float64
	DeltaScale    float64
	TranslateOnly bool
}

// coverTolerance absorbs floating point noise when comparing edges, so a
// wrapped image counts as covering and a second wrap is a no-op.
const coverTolerance = 1e-6

// Covers reports whether the rotated image fully covers the viewport.
func (m *Model) Covers() bool {
	return m.covers(m.Corners())
}

func (m *Model) covers(corners []float64) bool {
	image, viewport := m.unrotated(corners)
	return image.ContainsWithin(viewport, coverTolerance)
}

// unrotated returns the bounds of the image corners and of the viewport in
// the frame where the image is axis aligned.
func (m *Model) unrotated(corners []float64) (image, viewport geometry.Rect) {
	unrotate := geometry.Rotation(-m.matrix.Angle(), 0, 0)
	return geometry.BoundingRect(unrotate.MapPoints(corners)),
		geometry.BoundingRect(unrotate.MapPoints(m.viewport.Corners()))
}

// WrapTarget computes the correction needed to cover the viewport.
// ok is false when the image already covers it or is not laid out.
// MaxScale is raised when covering a rotated image needs more zoom.
func (m *Model) WrapTarget() (w Wrap, ok bool) {
	if !m.laidOut || m.Covers() {
		return Wrap{}, false
	}

	cx, cy := m.Center()
	w.FromScale = m.Scale()
	w.DeltaX = m.viewport.CenterX() - cx
	w.DeltaY = m.viewport.CenterY() - cy

	recentered := geometry.Translation(w.DeltaX, w.DeltaY).MapPoints(m.Corners())
	if m.covers(recentered) {
		left, top, right, bottom := m.indents()
		w.DeltaX = -(left + right)
		w.DeltaY = -(top + bottom)
		w.TranslateOnly = true
		return w, true
	}

	_, viewport := m.unrotated(recentered)
	sideW, sideH := geometry.SidesFromCorners(m.Corners())
	factor := math.Max(viewport.Width()/sideW, viewport.Height()/sideH)

	target := factor * w.FromScale
	if target > m.maxScale {
		m.maxScale = target
	}
	w.DeltaScale = target - w.FromScale

	return w, true
}

// indents measures, in the unrotated frame, how far each image edge falls
// inside the viewport, then rotates the (left, top) and (right, bottom)
// pairs back into view space.
func (m *Model) indents() (left, top, right, bottom float64) {
	image, viewport := m.unrotated(m.Corners())

	dl := image.Left - viewport.Left
	dt := image.Top - viewport.Top
	dr := image.Right - viewport.Right
	db := image.Bottom - viewport.Bottom

	ind := []float64{
		math.Max(dl, 0), math.Max(dt, 0),
		math.Min(dr, 0), math.Min(db, 0),
	}

	ind = geometry.Rotation(m.matrix.Angle(), 0, 0).MapPoints(ind)
	return ind[0], ind[1], ind[2], ind[3]
}

// WrapToBounds applies the full correction at once. It is a no-op when the
// image already covers the viewport.
func (m *Model) WrapToBounds() bool {
	w, ok := m.WrapTarget()
	if !ok {
		return false
	}

	m.ApplyWrapStep(w, 0, 1, 1)
	return true
}

// ApplyWrapStep advances a wrap from translation fraction `from` to `to`
// and sets the zoom to FromScale + DeltaScale*scaleProgress.
func (m *Model) ApplyWrapStep(w Wrap, from, to, scaleProgress float64) {
	m.PostTranslate(w.DeltaX*(to-from), w.DeltaY*(to-from))
	if !w.TranslateOnly {
		m.ZoomTo(w.FromScale+w.DeltaScale*scaleProgress, m.viewport.CenterX(), m.viewport.CenterY())
	}
}
