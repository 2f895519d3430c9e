package registry

import (
	"context"

	"github.com/denismitr/cropper/internal/media"
	"github.com/pkg/errors"
)

var ErrCouldNotOpenTx = errors.New("could not open tx")
var ErrRegistryReadFailed = errors.New("registry read error")
var ErrRegistryWriteFailed = errors.New("registry write error")
var ErrEntityNotFound = errors.New("entity not found")
var ErrInvalidID = errors.New("invalid ID")
var ErrEntityAlreadyExists = errors.New("entity already exists")

// Registry keeps the history of crop jobs.
type Registry interface {
	GenerateID() media.ID
	CreateCrop(ctx context.Context, crop *media.Crop) error
	UpdateCrop(ctx context.Context, crop *media.Crop) error
	GetCropByID(ctx context.Context, id media.ID) (*media.Crop, error)
	GetCrops(ctx context.Context, filter media.CropFilter) (*media.CropCollection, error)
	RemoveCrop(ctx context.Context, id media.ID) error
}
