package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/denismitr/cropper/internal/aspect"
	"github.com/denismitr/cropper/internal/geometry"
	"github.com/denismitr/cropper/internal/gesture"
	"github.com/denismitr/cropper/internal/loader"
	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/pipeline"
	"github.com/denismitr/cropper/internal/transform"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrBusy      = errors.New("session crop already pending")
	ErrClosed    = errors.New("session closed")
	ErrNotLoaded = errors.New("session image not loaded")
)

const (
	DefaultFrameInterval = 16 * time.Millisecond
	DefaultEventBuffer   = 64
	commandBuffer        = 16
)

// DefaultArea is the crop area used when the host does not give one.
var DefaultArea = geometry.NewRect(0, 0, 1000, 1000)

// Loader brings a source into memory at a working resolution.
type Loader interface {
	Load(ctx context.Context, locator string, requiredWidth, requiredHeight int) (*loader.Bitmap, error)
}

// Executor runs the crop of a committed session.
type Executor interface {
	Execute(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

// Config is fixed for the life of a session.
type Config struct {
	Source string
	Params pipeline.Params
	// Options nil means the default option list.
	Options   *aspect.Options
	FreeStyle bool
	// Area is the view space rectangle the viewport lives in.
	Area          geometry.Rect
	Transform     transform.Config
	Gestures      gesture.Config
	MinViewport   float64
	FrameInterval time.Duration
	EventBuffer   int
}

func DefaultConfig(source, destination string) Config {
	return Config{
		Source:        source,
		Params:        pipeline.DefaultParams(destination),
		Area:          DefaultArea,
		Transform:     transform.DefaultConfig(),
		Gestures:      gesture.DefaultConfig(),
		MinViewport:   aspect.DefaultMinViewportSide,
		FrameInterval: DefaultFrameInterval,
		EventBuffer:   DefaultEventBuffer,
	}
}

// Snapshot is a copy of the interactive state.
type Snapshot struct {
	Loaded      bool
	Viewport    geometry.Rect
	ImageRect   geometry.Rect
	Transform   transform.State
	Adjustments media.Adjustments
	Tab         gesture.Tab
	Aspect      aspect.Option
	Animating   bool
}

type command struct {
	run   func(a *actor) error
	reply chan error
}

// Session is one crop from load to result. All state lives in a single
// goroutine; the methods only send it commands.
type Session struct {
	events   chan Event
	commands chan command
	busy     int32
	done     chan struct{}
	cancel   context.CancelFunc
}

// Start validates cfg and begins loading the source in the background.
func Start(ctx context.Context, cfg Config, l Loader, p Executor, logger logrus.FieldLogger) (*Session, error) {
	cfg, err := normalize(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		events:   make(chan Event, cfg.EventBuffer),
		commands: make(chan command, commandBuffer),
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	a := newActor(ctx, s, cfg, l, p, logger)
	go a.run()

	return s, nil
}

// Validate reports the problems Start would reject cfg for.
func (cfg Config) Validate() error {
	_, err := normalize(cfg)
	return err
}

func normalize(cfg Config) (Config, error) {
	if cfg.Options == nil {
		cfg.Options = aspect.DefaultOptions()
	}
	if cfg.Area.Empty() {
		cfg.Area = DefaultArea
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	if cfg.MinViewport <= 0 {
		cfg.MinViewport = aspect.DefaultMinViewportSide
	}

	cfg.Params = cfg.Params.Normalize()
	vErr := pipeline.NewValidationError()
	if cfg.Source == "" {
		vErr.Add("source", "Source is required")
	}
	if err := cfg.Params.Validate(); err != nil {
		var pErr *pipeline.ValidationError
		if errors.As(err, &pErr) {
			for k, v := range pErr.Errors() {
				vErr.Add(k, v)
			}
		}
	}

	if !vErr.Empty() {
		return cfg, vErr
	}

	return cfg, nil
}

// Events delivers the session events. The channel is closed once the
// session is over.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed when the session goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close tears the session down and waits for it.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}

func (s *Session) call(fn func(a *actor) error) error {
	reply := make(chan error, 1)

	select {
	case s.commands <- command{run: fn, reply: reply}:
	case <-s.done:
		return ErrClosed
	}

	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// Commit hands the current state to the pipeline. A result arrives as a
// Success or Failure event.
func (s *Session) Commit() error {
	if !atomic.CompareAndSwapInt32(&s.busy, 0, 1) {
		return ErrBusy
	}

	err := s.call(func(a *actor) error { return a.commit() })
	if err != nil && !errors.Is(err, ErrClosed) {
		atomic.StoreInt32(&s.busy, 0)
	}

	return err
}

func (s *Session) Busy() bool {
	return atomic.LoadInt32(&s.busy) == 1
}

func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.call(func(a *actor) error {
		snap = a.snapshot()
		return nil
	})

	return snap, err
}

func (s *Session) GestureStart() error {
	return s.gesture(func(a *actor) { a.mapper.GestureStart() })
}

func (s *Session) GestureEnd() error {
	return s.gesture(func(a *actor) { a.mapper.GestureEnd(a.now()) })
}

func (s *Session) Drag(dx, dy float64) error {
	return s.gesture(func(a *actor) { a.mapper.Drag(dx, dy) })
}

func (s *Session) Pinch(fx, fy, factor float64) error {
	return s.gesture(func(a *actor) { a.mapper.Pinch(fx, fy, factor) })
}

func (s *Session) TwoFingerRotate(fx, fy, degrees float64) error {
	return s.gesture(func(a *actor) { a.mapper.TwoFingerRotate(fx, fy, degrees) })
}

func (s *Session) DoubleTap(fx, fy float64) error {
	return s.gesture(func(a *actor) { a.mapper.DoubleTap(fx, fy, a.now()) })
}

func (s *Session) SelectTab(t gesture.Tab) error {
	return s.gesture(func(a *actor) { a.mapper.SelectTab(t) })
}

func (s *Session) ScrollStart() error {
	return s.gesture(func(a *actor) { a.mapper.ScrollStart() })
}

func (s *Session) Scroll(delta, totalDistance float64) error {
	return s.gesture(func(a *actor) { a.mapper.Scroll(delta, totalDistance) })
}

func (s *Session) ScrollEnd() error {
	return s.gesture(func(a *actor) { a.mapper.ScrollEnd(a.now()) })
}

func (s *Session) ResetRotation() error {
	return s.gesture(func(a *actor) { a.mapper.ResetRotation(a.now()) })
}

func (s *Session) RotateBy(degrees float64) error {
	return s.gesture(func(a *actor) { a.mapper.RotateBy(degrees, a.now()) })
}

func (s *Session) ZoomTo(scale float64) error {
	return s.gesture(func(a *actor) { a.mapper.ZoomTo(scale, a.now()) })
}

func (s *Session) SetAdjustments(adj media.Adjustments) error {
	return s.gesture(func(a *actor) { a.mapper.SetAdjustments(adj) })
}

// Settle finishes any running animation immediately.
func (s *Session) Settle() error {
	return s.gesture(func(a *actor) { a.mapper.Settle() })
}

// SelectAspectRatio switches to the option at index i.
func (s *Session) SelectAspectRatio(i int) error {
	return s.call(func(a *actor) error { return a.selectAspect(i) })
}

// ToggleAspectOrientation swaps the sides of the selected option.
func (s *Session) ToggleAspectOrientation() error {
	return s.call(func(a *actor) error { return a.toggleAspect() })
}

// ResizeViewport drags a handle of a free-style viewport.
func (s *Session) ResizeViewport(h aspect.Handle, dx, dy float64) error {
	return s.call(func(a *actor) error { return a.resizeViewport(h, dx, dy) })
}

func (s *Session) gesture(fn func(a *actor)) error {
	return s.call(func(a *actor) error {
		if !a.loaded() {
			return ErrNotLoaded
		}

		fn(a)
		a.reportGeometry()
		return nil
	})
}
