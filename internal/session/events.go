package session

import (
	"github.com/denismitr/cropper/internal/pipeline"
)

type EventKind int

const (
	Loading EventKind = iota
	LoadComplete
	LoadFailure
	Rotate
	Scale
	Brightness
	Contrast
	Saturation
	Sharpness
	Success
	Failure
)

var eventNames = map[EventKind]string{
	Loading:      "loading",
	LoadComplete: "load-complete",
	LoadFailure:  "load-failure",
	Rotate:       "rotate",
	Scale:        "scale",
	Brightness:   "brightness",
	Contrast:     "contrast",
	Saturation:   "saturation",
	Sharpness:    "sharpness",
	Success:      "success",
	Failure:      "failure",
}

func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}

	return "unknown"
}

// Terminal events end the session; nothing follows them.
func (k EventKind) Terminal() bool {
	return k == LoadFailure || k == Success || k == Failure
}

// informational events may be dropped when the host falls behind.
func (k EventKind) informational() bool {
	return k >= Rotate && k <= Sharpness
}

// Event is everything the session reports to its host.
type Event struct {
	Kind EventKind
	// Busy is set on Loading events.
	Busy bool
	// Value carries the angle, scale or tonal value of geometry events.
	Value  float64
	Result *pipeline.Result
	Err    error
}
