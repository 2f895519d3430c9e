package gesture

import (
	"time"

	"github.com/denismitr/cropper/internal/transform"
)

type animationKind int

const (
	wrapAnimation animationKind = iota
	zoomAnimation
)

// animation is advanced by Tick from the owner's frame clock.
type animation struct {
	kind     animationKind
	started  time.Time
	duration time.Duration

	wrap    transform.Wrap
	applied float64

	fromScale  float64
	deltaScale float64
	px, py     float64
}

func (a *animation) progress(now time.Time) float64 {
	if a.duration <= 0 {
		return 1
	}

	p := float64(now.Sub(a.started)) / float64(a.duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}

	return p
}

// step applies the motion up to now and reports whether it finished.
func (a *animation) step(m *transform.Model, now time.Time) bool {
	p := a.progress(now)

	switch a.kind {
	case wrapAnimation:
		moved := easeOutCubic(p)
		m.ApplyWrapStep(a.wrap, a.applied, moved, easeInOutCubic(p))
		a.applied = moved
	case zoomAnimation:
		m.ZoomTo(a.fromScale+a.deltaScale*easeInOutCubic(p), a.px, a.py)
	}

	return p >= 1
}

func easeOutCubic(t float64) float64 {
	t--
	return t*t*t + 1
}

func easeInOutCubic(t float64) float64 {
	t *= 2
	if t < 1 {
		return t * t * t / 2
	}

	t -= 2
	return (t*t*t + 2) / 2
}
