package session

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/denismitr/cropper/internal/aspect"
	"github.com/denismitr/cropper/internal/gesture"
	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/pipeline"
	"github.com/pkg/errors"
)

// Op is one step of a headless crop script, e.g. "rotate:90".
type Op struct {
	Name string
	Args []float64
}

func (o Op) String() string {
	parts := []string{o.Name}
	for _, a := range o.Args {
		parts = append(parts, strconv.FormatFloat(a, 'f', -1, 64))
	}

	return strings.Join(parts, ":")
}

type opSpec struct {
	minArgs int
	maxArgs int
	apply   func(s *Session, args []float64) error
}

var opRx = regexp.MustCompile(`^([a-z][a-z-]*)((?::-?\d+(?:\.\d+)?)*)$`)

var ops = map[string]opSpec{
	"pan": {2, 2, func(s *Session, a []float64) error {
		return gestureSequence(s, func() error { return s.Drag(a[0], a[1]) })
	}},
	"pinch": {1, 3, func(s *Session, a []float64) error {
		return withFocus(s, a[1:], func(fx, fy float64) error {
			return gestureSequence(s, func() error { return s.Pinch(fx, fy, a[0]) })
		})
	}},
	"turn": {1, 3, func(s *Session, a []float64) error {
		return withFocus(s, a[1:], func(fx, fy float64) error {
			return gestureSequence(s, func() error { return s.TwoFingerRotate(fx, fy, a[0]) })
		})
	}},
	"double-tap": {0, 2, func(s *Session, a []float64) error {
		return withFocus(s, a, s.DoubleTap)
	}},
	"rotate": {1, 1, func(s *Session, a []float64) error {
		return s.RotateBy(a[0])
	}},
	"reset-rotation": {0, 0, func(s *Session, _ []float64) error {
		return s.ResetRotation()
	}},
	"zoom": {1, 1, func(s *Session, a []float64) error {
		snap, err := s.Snapshot()
		if err != nil {
			return err
		}
		return s.ZoomTo(snap.Transform.Scale * a[0])
	}},
	"tab": {1, 1, func(s *Session, a []float64) error {
		return s.SelectTab(gesture.Tab(a[0]))
	}},
	"wheel": {1, 1, func(s *Session, a []float64) error {
		if err := s.ScrollStart(); err != nil {
			return err
		}
		if err := s.Scroll(a[0], a[0]); err != nil {
			return err
		}
		return s.ScrollEnd()
	}},
	"aspect": {1, 1, func(s *Session, a []float64) error {
		return s.SelectAspectRatio(int(a[0]))
	}},
	"toggle-aspect": {0, 0, func(s *Session, _ []float64) error {
		return s.ToggleAspectOrientation()
	}},
	"resize": {3, 3, func(s *Session, a []float64) error {
		return s.ResizeViewport(aspect.Handle(a[0]), a[1], a[2])
	}},
	"brightness": {1, 1, adjust(func(adj *media.Adjustments, v float64) { adj.Brightness = v })},
	"contrast":   {1, 1, adjust(func(adj *media.Adjustments, v float64) { adj.Contrast = v })},
	"saturation": {1, 1, adjust(func(adj *media.Adjustments, v float64) { adj.Saturation = v })},
	"sharpness":  {1, 1, adjust(func(adj *media.Adjustments, v float64) { adj.Sharpness = v })},
}

// ParseScript reads a comma separated list of ops such as
// "aspect:0,rotate:90,zoom:1.5,pan:10:-5".
func ParseScript(script string) ([]Op, error) {
	script = strings.Trim(script, ", ")
	if script == "" {
		return nil, nil
	}

	vErr := pipeline.NewValidationError()
	var result []Op

	for i, segment := range strings.Split(script, ",") {
		segment = strings.TrimSpace(segment)
		key := fmt.Sprintf("op[%d]", i)

		m := opRx.FindStringSubmatch(segment)
		if m == nil {
			vErr.Add(key, fmt.Sprintf("malformed op %q", segment))
			continue
		}

		spec, ok := ops[m[1]]
		if !ok {
			vErr.Add(key, fmt.Sprintf("unknown op %q", m[1]))
			continue
		}

		op := Op{Name: m[1]}
		for _, raw := range strings.Split(strings.TrimPrefix(m[2], ":"), ":") {
			if raw == "" {
				continue
			}

			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				vErr.Add(key, err.Error())
				continue
			}
			op.Args = append(op.Args, v)
		}

		if len(op.Args) < spec.minArgs || len(op.Args) > spec.maxArgs {
			vErr.Add(key, fmt.Sprintf("%s takes %d to %d arguments, got %d", op.Name, spec.minArgs, spec.maxArgs, len(op.Args)))
			continue
		}

		result = append(result, op)
	}

	if !vErr.Empty() {
		return nil, vErr
	}

	return result, nil
}

// Apply runs op and lets any animation it started finish at once.
func (s *Session) Apply(op Op) error {
	spec, ok := ops[op.Name]
	if !ok {
		return errors.Errorf("unknown op %q", op.Name)
	}

	if err := spec.apply(s, op.Args); err != nil {
		return errors.Wrapf(err, "op %s", op)
	}

	return s.Settle()
}

func gestureSequence(s *Session, fn func() error) error {
	if err := s.GestureStart(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return s.GestureEnd()
}

// withFocus calls fn with the given focus point or the viewport center.
func withFocus(s *Session, args []float64, fn func(fx, fy float64) error) error {
	switch len(args) {
	case 2:
		return fn(args[0], args[1])
	case 1:
		return errors.New("focus needs both x and y")
	}

	snap, err := s.Snapshot()
	if err != nil {
		return err
	}

	return fn(snap.Viewport.CenterX(), snap.Viewport.CenterY())
}

func adjust(set func(adj *media.Adjustments, v float64)) func(s *Session, args []float64) error {
	return func(s *Session, args []float64) error {
		snap, err := s.Snapshot()
		if err != nil {
			return err
		}

		adj := snap.Adjustments
		set(&adj, args[0])
		return s.SetAdjustments(adj)
	}
}
