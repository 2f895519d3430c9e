package session

import (
	"context"
	"time"

	"github.com/denismitr/cropper/internal/aspect"
	"github.com/denismitr/cropper/internal/gesture"
	"github.com/denismitr/cropper/internal/loader"
	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/pipeline"
	"github.com/denismitr/cropper/internal/transform"
	"github.com/sirupsen/logrus"
)

type loadResult struct {
	bitmap *loader.Bitmap
	err    error
}

type cropResult struct {
	result *pipeline.Result
	err    error
}

// actor owns the mutable session state. Only its goroutine touches it.
type actor struct {
	ctx      context.Context
	session  *Session
	cfg      Config
	loader   Loader
	executor Executor
	logger   logrus.FieldLogger
	now      func() time.Time

	bitmap *loader.Bitmap
	model  *transform.Model
	mapper *gesture.Mapper
	engine *aspect.Engine

	loadDone chan loadResult
	cropDone chan cropResult
	finished bool
	pending  []Event

	reported reported
}

// reported holds the last values sent to the host.
type reported struct {
	angle       float64
	scale       float64
	adjustments media.Adjustments
}

func newActor(ctx context.Context, s *Session, cfg Config, l Loader, p Executor, logger logrus.FieldLogger) *actor {
	model := transform.New(cfg.Transform)

	return &actor{
		ctx:      ctx,
		session:  s,
		cfg:      cfg,
		loader:   l,
		executor: p,
		logger:   logger.WithField("source", cfg.Source),
		now:      time.Now,
		model:    model,
		mapper:   gesture.New(model, cfg.Gestures),
		engine: aspect.New(cfg.Area, model, aspect.Config{
			FreeStyle:       cfg.FreeStyle,
			MinViewportSide: cfg.MinViewport,
		}),
		loadDone: make(chan loadResult, 1),
		cropDone: make(chan cropResult, 1),
	}
}

func (a *actor) run() {
	defer a.teardown()

	ticker := time.NewTicker(a.cfg.FrameInterval)
	defer ticker.Stop()

	a.startLoad()

	for !a.finished {
		var out chan<- Event
		var next Event
		if len(a.pending) > 0 {
			out, next = a.session.events, a.pending[0]
		}

		select {
		case <-a.ctx.Done():
			a.logger.Debug("session cancelled")
			return
		case out <- next:
			a.pending = a.pending[1:]
		case cmd := <-a.session.commands:
			cmd.reply <- cmd.run(a)
		case res := <-a.loadDone:
			a.loadFinished(res)
		case res := <-a.cropDone:
			a.cropFinished(res)
		case <-ticker.C:
			if a.mapper.Animating() {
				a.mapper.Tick(a.now())
				a.reportGeometry()
			}
		}
	}

	a.flush()
}

// flush delivers what is still queued once the session is over.
func (a *actor) flush() {
	for _, e := range a.pending {
		select {
		case a.session.events <- e:
		case <-a.ctx.Done():
			return
		}
	}
	a.pending = nil
}

func (a *actor) teardown() {
	if a.bitmap != nil {
		a.bitmap.Release()
		a.bitmap = nil
	}

	a.session.cancel()
	close(a.session.done)
	close(a.session.events)
}

// emit queues an event for the host without ever blocking the session.
// Informational events are dropped while the host is behind.
func (a *actor) emit(e Event) {
	if e.Kind.informational() && len(a.pending) >= a.cfg.EventBuffer {
		return
	}

	a.pending = append(a.pending, e)
}

func (a *actor) startLoad() {
	a.emit(Event{Kind: Loading, Busy: true})
	a.logger.Debug("loading source")

	w, h := int(a.cfg.Area.Width()), int(a.cfg.Area.Height())
	go func() {
		bm, err := a.loader.Load(a.ctx, a.cfg.Source, w, h)
		a.loadDone <- loadResult{bitmap: bm, err: err}
	}()
}

func (a *actor) loadFinished(res loadResult) {
	a.emit(Event{Kind: Loading, Busy: false})

	if res.err != nil {
		a.logger.WithError(res.err).Error("source could not be loaded")
		a.finish(Event{Kind: LoadFailure, Err: res.err})
		return
	}

	a.bitmap = res.bitmap
	a.engine.SetImageSize(float64(a.bitmap.Width()), float64(a.bitmap.Height()))

	if _, _, err := a.engine.Select(a.cfg.Options.Selected()); err != nil {
		a.logger.WithError(err).Error("image could not be laid out")
		a.finish(Event{Kind: LoadFailure, Err: err})
		return
	}

	a.logger.WithFields(logrus.Fields{
		"bitmap":   [2]int{a.bitmap.Width(), a.bitmap.Height()},
		"viewport": a.engine.Viewport(),
	}).Info("source loaded")

	a.emit(Event{Kind: LoadComplete})
	a.reported = reported{angle: -1, scale: -1}
	a.reportGeometry()
}

func (a *actor) loaded() bool {
	return a.model.LaidOut() && a.bitmap != nil
}

// commit freezes the geometry and moves the bitmap to the crop worker.
func (a *actor) commit() error {
	if !a.loaded() {
		return ErrNotLoaded
	}

	a.mapper.Settle()
	a.reportGeometry()

	params := a.cfg.Params
	params.Adjustments = a.mapper.Adjustments()

	in := pipeline.Input{
		Bitmap: a.bitmap,
		State:  pipeline.Snapshot(a.model),
		Params: params,
	}
	a.bitmap = nil

	a.emit(Event{Kind: Loading, Busy: true})
	a.logger.WithFields(logrus.Fields{
		"angle": in.State.Angle,
		"scale": in.State.Scale,
	}).Debug("crop committed")

	go func() {
		res, err := a.executor.Execute(a.ctx, in)
		in.Bitmap.Release()
		a.cropDone <- cropResult{result: res, err: err}
	}()

	return nil
}

func (a *actor) cropFinished(res cropResult) {
	a.emit(Event{Kind: Loading, Busy: false})

	if res.err != nil {
		a.logger.WithError(res.err).Error("crop failed")
		a.finish(Event{Kind: Failure, Err: res.err})
		return
	}

	a.finish(Event{Kind: Success, Result: res.result})
}

func (a *actor) finish(e Event) {
	a.emit(e)
	a.finished = true
}

func (a *actor) selectAspect(i int) error {
	opt, err := a.cfg.Options.Select(i)
	if err != nil {
		return err
	}

	return a.relayout(opt)
}

func (a *actor) toggleAspect() error {
	return a.relayout(a.cfg.Options.ToggleSelected())
}

func (a *actor) relayout(opt aspect.Option) error {
	if !a.loaded() {
		return nil
	}

	a.mapper.Cancel()
	if _, _, err := a.engine.Select(opt); err != nil {
		return err
	}

	a.reportGeometry()
	return nil
}

func (a *actor) resizeViewport(h aspect.Handle, dx, dy float64) error {
	if !a.loaded() {
		return ErrNotLoaded
	}

	a.mapper.Cancel()
	if _, err := a.engine.ResizeViewport(h, dx, dy); err != nil {
		return err
	}

	a.mapper.WrapToBounds(a.now())
	a.reportGeometry()
	return nil
}

// reportGeometry emits the values that changed since the last report.
func (a *actor) reportGeometry() {
	if !a.model.LaidOut() {
		return
	}

	if angle := a.model.Angle(); angle != a.reported.angle {
		a.reported.angle = angle
		a.emit(Event{Kind: Rotate, Value: angle})
	}

	if scale := a.model.Scale(); scale != a.reported.scale {
		a.reported.scale = scale
		a.emit(Event{Kind: Scale, Value: scale})
	}

	adj, prev := a.mapper.Adjustments(), a.reported.adjustments
	a.reported.adjustments = adj

	if adj.Brightness != prev.Brightness {
		a.emit(Event{Kind: Brightness, Value: adj.Brightness})
	}
	if adj.Contrast != prev.Contrast {
		a.emit(Event{Kind: Contrast, Value: adj.Contrast})
	}
	if adj.Saturation != prev.Saturation {
		a.emit(Event{Kind: Saturation, Value: adj.Saturation})
	}
	if adj.Sharpness != prev.Sharpness {
		a.emit(Event{Kind: Sharpness, Value: adj.Sharpness})
	}
}

func (a *actor) snapshot() Snapshot {
	snap := Snapshot{
		Loaded:      a.loaded(),
		Viewport:    a.engine.Viewport(),
		Adjustments: a.mapper.Adjustments(),
		Tab:         a.mapper.Tab(),
		Aspect:      a.cfg.Options.Selected(),
		Animating:   a.mapper.Animating(),
	}

	if a.model.LaidOut() {
		snap.ImageRect = a.model.ImageRect()
		snap.Transform = a.model.State()
	}

	return snap
}
