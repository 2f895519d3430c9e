// Package memregistry keeps crop records in process memory. It backs the
// daemon when no database is configured and the server tests.
package memregistry

import (
	"context"
	"sort"
	"sync"

	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/registry"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemRegistry struct {
	mu    sync.RWMutex
	crops map[media.ID]media.Crop
}

var _ registry.Registry = (*MemRegistry)(nil)

func New() *MemRegistry {
	return &MemRegistry{crops: make(map[media.ID]media.Crop)}
}

// GenerateID hands out object IDs so records can move to mongo unchanged.
func (r *MemRegistry) GenerateID() media.ID {
	return media.ID(primitive.NewObjectID().Hex())
}

func (r *MemRegistry) CreateCrop(_ context.Context, crop *media.Crop) error {
	if crop.ID.None() {
		return errors.Wrap(registry.ErrInvalidID, "crop ID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.crops[crop.ID]; ok {
		return errors.Wrapf(registry.ErrEntityAlreadyExists, "crop with ID [%s] already exists", crop.ID)
	}

	r.crops[crop.ID] = *crop
	return nil
}

func (r *MemRegistry) UpdateCrop(_ context.Context, crop *media.Crop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.crops[crop.ID]; !ok {
		return errors.Wrapf(registry.ErrEntityNotFound, "crop with ID [%s] not found", crop.ID)
	}

	r.crops[crop.ID] = *crop
	return nil
}

func (r *MemRegistry) GetCropByID(_ context.Context, ID media.ID) (*media.Crop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	crop, ok := r.crops[ID]
	if !ok {
		return nil, errors.Wrapf(registry.ErrEntityNotFound, "crop with ID [%s] not found", ID)
	}

	return &crop, nil
}

// GetCrops lists the newest crops first.
func (r *MemRegistry) GetCrops(_ context.Context, filter media.CropFilter) (*media.CropCollection, error) {
	r.mu.RLock()
	matched := make([]media.Crop, 0, len(r.crops))
	for _, c := range r.crops {
		if filter.Status == "" || c.Status == filter.Status {
			matched = append(matched, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	collection := &media.CropCollection{Crops: make([]media.Crop, 0)}
	collection.Meta.Total = uint(len(matched))
	collection.Meta.Page = filter.Page
	collection.Meta.PerPage = filter.Limit()

	from := int(filter.Offset())
	if from >= len(matched) {
		return collection, nil
	}

	to := from + int(filter.Limit())
	if to > len(matched) {
		to = len(matched)
	}

	collection.Crops = append(collection.Crops, matched[from:to]...)
	return collection, nil
}

func (r *MemRegistry) RemoveCrop(_ context.Context, ID media.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.crops[ID]; !ok {
		return errors.Wrapf(registry.ErrEntityNotFound, "crop with ID [%s] not found", ID)
	}

	delete(r.crops, ID)
	return nil
}
