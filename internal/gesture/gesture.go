package gesture

import "time"

// Gestures is a set of multi-touch gesture classes a tab lets through.
// Drag is never gated.
type Gestures int

const (
	None   Gestures = 0
	Scale  Gestures = 1
	Rotate Gestures = 2
	All    Gestures = Scale | Rotate
)

func (g Gestures) Allows(o Gestures) bool {
	return g&o == o
}

func (g Gestures) String() string {
	switch g {
	case None:
		return "none"
	case Scale:
		return "scale"
	case Rotate:
		return "rotate"
	case All:
		return "all"
	default:
		return "unknown"
	}
}

// Tab is the control currently attached to the scroll wheel.
type Tab int

const (
	TabScale Tab = iota
	TabRotate
	TabAspectRatio
	TabBrightness
	TabContrast
	TabSaturation
	TabSharpness
)

// Wheel sensitivities convert raw wheel deltas into semantic units.
const (
	RotateSensitivity     = 42.0
	ScaleSensitivity      = 15000.0
	BrightnessSensitivity = 3.0
	ContrastSensitivity   = 4.0
	SaturationSensitivity = 3.0
	SharpnessSensitivity  = 400.0
)

const (
	DefaultWrapDuration    = 500 * time.Millisecond
	DefaultDoubleTapZoom   = 200 * time.Millisecond
	DefaultDoubleTapSteps  = 5
	TabsWithGestureControl = 3
)

type Config struct {
	// WrapDuration of the snap-to-bounds animation; zero snaps immediately.
	WrapDuration time.Duration
	// DoubleTapDuration of the double tap zoom animation; zero zooms immediately.
	DoubleTapDuration time.Duration
	// DoubleTapSteps is how many double taps take MinScale to MaxScale.
	DoubleTapSteps int
	// Allowed gestures for the scale, rotate and aspect ratio tabs, in that order.
	// Tonal tabs share the scale tab setting.
	Allowed [TabsWithGestureControl]Gestures
}

func DefaultConfig() Config {
	return Config{
		WrapDuration:      DefaultWrapDuration,
		DoubleTapDuration: DefaultDoubleTapZoom,
		DoubleTapSteps:    DefaultDoubleTapSteps,
		Allowed:           [TabsWithGestureControl]Gestures{Scale, Rotate, All},
	}
}

func (c Config) allowedFor(t Tab) Gestures {
	switch t {
	case TabRotate:
		return c.Allowed[1]
	case TabAspectRatio:
		return c.Allowed[2]
	default:
		return c.Allowed[0]
	}
}
