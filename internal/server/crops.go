package server

import (
	"context"
	"net/url"
	"time"

	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/pipeline"
	"github.com/denismitr/cropper/internal/registry"
	"github.com/denismitr/cropper/internal/session"
	"github.com/denismitr/cropper/internal/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrCropFailed = errors.New("crop failed")

// Crops runs headless crop sessions and records each of them in the registry.
// Results written to storage are removed together with their record.
type Crops struct {
	registry registry.Registry
	storage  storage.Storage
	loader   session.Loader
	executor session.Executor
	timeout  time.Duration
	logger   logrus.FieldLogger
}

// NewCrops creates the service. s may be nil when results never go to storage.
func NewCrops(
	r registry.Registry,
	s storage.Storage,
	l session.Loader,
	p session.Executor,
	timeout time.Duration,
	logger logrus.FieldLogger,
) *Crops {
	return &Crops{
		registry: r,
		storage:  s,
		loader:   l,
		executor: p,
		timeout:  timeout,
		logger:   logger,
	}
}

// createCrop stores a pending record, runs the session and stores the
// outcome. A failed crop is still recorded and returned together with
// ErrCropFailed.
func (c *Crops) createCrop(ctx context.Context, dto *createCropDTO) (*media.Crop, error) {
	if err := dto.cfg.Validate(); err != nil {
		return nil, err
	}

	crop := makeNewCrop(c.registry.GenerateID(), dto, time.Now().UTC())
	if err := c.registry.CreateCrop(ctx, crop); err != nil {
		return nil, errors.Wrap(err, "could not create crop in registry")
	}

	lg := c.logger.WithField("crop", crop.ID.String())

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, runErr := session.Run(runCtx, dto.cfg, dto.ops, c.loader, c.executor, lg)
	if runErr != nil {
		lg.WithError(runErr).Warn("crop session failed")
		crop.Status = media.Failed
		crop.Error = runErr.Error()
	} else {
		completeCrop(crop, result)
	}

	if err := c.registry.UpdateCrop(ctx, crop); err != nil {
		return nil, errors.Wrap(err, "could not update crop in registry")
	}

	if runErr != nil {
		return crop, errors.Wrapf(ErrCropFailed, "%v", runErr)
	}

	return crop, nil
}

func (c *Crops) getCrop(ctx context.Context, id media.ID) (*media.Crop, error) {
	return c.registry.GetCropByID(ctx, id)
}

func (c *Crops) getCrops(ctx context.Context, filter media.CropFilter) (*media.CropCollection, error) {
	return c.registry.GetCrops(ctx, filter)
}

func (c *Crops) removeCrop(ctx context.Context, id media.ID) error {
	crop, err := c.registry.GetCropByID(ctx, id)
	if err != nil {
		return err
	}

	if err := c.removeResult(ctx, crop); err != nil {
		return errors.Wrapf(err, "could not remove result of crop %s", id.String())
	}

	return c.registry.RemoveCrop(ctx, id)
}

// removeResult deletes the stored object of a completed crop. Local files
// are left to their owner.
func (c *Crops) removeResult(ctx context.Context, crop *media.Crop) error {
	if c.storage == nil || crop.Status != media.Completed {
		return nil
	}

	u, err := url.Parse(crop.Destination)
	if err != nil || u.Scheme != storage.Scheme {
		return nil
	}

	namespace, key, err := storage.ParseLocation(u)
	if err != nil {
		return err
	}

	return c.storage.Remove(ctx, namespace, key)
}

func makeNewCrop(id media.ID, dto *createCropDTO, now time.Time) *media.Crop {
	params := dto.cfg.Params.Normalize()

	return &media.Crop{
		ID:          id,
		Source:      dto.cfg.Source,
		Destination: params.Destination,
		Format:      params.Format,
		Quality:     params.Quality,
		Status:      media.Pending,
		CreatedAt:   now,
	}
}

func completeCrop(crop *media.Crop, result *pipeline.Result) {
	crop.Status = media.Completed
	crop.Destination = result.Location
	crop.Format = result.Format
	crop.OffsetX = result.OffsetX
	crop.OffsetY = result.OffsetY
	crop.Width = result.Width
	crop.Height = result.Height
	crop.AspectRatio = result.AspectRatio
	crop.Size = result.Size
	crop.Angle = result.Angle
	crop.Scale = result.Scale
	crop.Adjustments = result.Adjustments
}
