package session

import (
	"context"

	"github.com/denismitr/cropper/internal/pipeline"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Run drives a session without a host: it waits for the load, applies the
// ops in order, commits and returns the crop result.
func Run(ctx context.Context, cfg Config, ops []Op, l Loader, p Executor, logger logrus.FieldLogger) (*pipeline.Result, error) {
	s, err := Start(ctx, cfg, l, p, logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := s.awaitLoad(ctx); err != nil {
		return nil, err
	}

	for _, op := range ops {
		if err := s.Apply(op); err != nil {
			return nil, err
		}
	}

	if err := s.Commit(); err != nil {
		return nil, err
	}

	return s.awaitResult(ctx)
}

func (s *Session) awaitLoad(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-s.events:
			if !ok {
				return ErrClosed
			}

			switch e.Kind {
			case LoadComplete:
				return nil
			case LoadFailure:
				return e.Err
			}
		}
	}
}

func (s *Session) awaitResult(ctx context.Context) (*pipeline.Result, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case e, ok := <-s.events:
			if !ok {
				return nil, errors.Wrap(ErrClosed, "no crop result")
			}

			switch e.Kind {
			case Success:
				return e.Result, nil
			case Failure:
				return nil, e.Err
			}
		}
	}
}
