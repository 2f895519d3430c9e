package memregistry

import (
	"context"
	"testing"
	"time"

	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/registry"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, r *MemRegistry, n int, status func(i int) media.Status) []media.ID {
	t.Helper()

	start := time.Date(2020, 11, 7, 12, 0, 0, 0, time.UTC)
	ids := make([]media.ID, n)
	for i := 0; i < n; i++ {
		ids[i] = r.GenerateID()
		require.NoError(t, r.CreateCrop(context.Background(), &media.Crop{
			ID:        ids[i],
			Status:    status(i),
			CreatedAt: start.Add(time.Duration(i) * time.Minute),
		}))
	}

	return ids
}

func TestMemRegistry_CRUD(t *testing.T) {
	ctx := context.Background()
	r := New()

	id := r.GenerateID()
	crop := media.Crop{ID: id, Source: "file:///tmp/a.jpg", Status: media.Pending}

	require.NoError(t, r.CreateCrop(ctx, &crop))
	assert.True(t, errors.Is(r.CreateCrop(ctx, &crop), registry.ErrEntityAlreadyExists))

	crop.Status = media.Completed
	crop.Width = 100
	require.NoError(t, r.UpdateCrop(ctx, &crop))

	found, err := r.GetCropByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, media.Completed, found.Status)
	assert.Equal(t, 100, found.Width)

	require.NoError(t, r.RemoveCrop(ctx, id))

	_, err = r.GetCropByID(ctx, id)
	assert.True(t, errors.Is(err, registry.ErrEntityNotFound))
	assert.True(t, errors.Is(r.RemoveCrop(ctx, id), registry.ErrEntityNotFound))
	assert.True(t, errors.Is(r.UpdateCrop(ctx, &crop), registry.ErrEntityNotFound))
	assert.True(t, errors.Is(r.CreateCrop(ctx, &media.Crop{}), registry.ErrInvalidID))
}

func TestMemRegistry_GetCrops(t *testing.T) {
	r := New()
	ids := seed(t, r, 7, func(i int) media.Status {
		if i%2 == 0 {
			return media.Completed
		}
		return media.Failed
	})

	tt := []struct {
		name   string
		filter media.CropFilter
		total  uint
		ids    []media.ID
	}{
		{
			name:   "first page newest first",
			filter: media.CropFilter{Pagination: media.Pagination{Page: 1, PerPage: 3}},
			total:  7,
			ids:    []media.ID{ids[6], ids[5], ids[4]},
		},
		{
			name:   "last partial page",
			filter: media.CropFilter{Pagination: media.Pagination{Page: 3, PerPage: 3}},
			total:  7,
			ids:    []media.ID{ids[0]},
		},
		{
			name:   "page past the end",
			filter: media.CropFilter{Pagination: media.Pagination{Page: 5, PerPage: 3}},
			total:  7,
			ids:    []media.ID{},
		},
		{
			name:   "by status",
			filter: media.CropFilter{Status: media.Failed},
			total:  3,
			ids:    []media.ID{ids[5], ids[3], ids[1]},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			collection, err := r.GetCrops(context.Background(), tc.filter)
			require.NoError(t, err)

			got := make([]media.ID, 0, len(collection.Crops))
			for _, c := range collection.Crops {
				got = append(got, c.ID)
			}

			assert.Equal(t, tc.ids, got)
			assert.Equal(t, tc.total, collection.Meta.Total)
			assert.Equal(t, tc.filter.Limit(), collection.Meta.PerPage)
		})
	}
}
