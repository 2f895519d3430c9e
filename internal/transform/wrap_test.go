package transform

import (
	"math"
	"math/rand"
	"testing"

	"github.com/denismitr/cropper/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_WrapToBounds(t *testing.T) {
	tt := []struct {
		name       string
		seed       int64
		ratios     [2]float64
		runs       int
		minWrapped int
		atScale    bool
	}{
		{name: "moderate ratios", seed: 1, ratios: [2]float64{0.5, 2}, runs: 2000, minWrapped: 1000},
		{name: "extreme ratios", seed: 2, ratios: [2]float64{0.1, 10}, runs: 1000, minWrapped: 500},
		{name: "clamped at max scale", seed: 3, ratios: [2]float64{0.1, 10}, runs: 500, minWrapped: 1, atScale: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rnd := rand.New(rand.NewSource(tc.seed))
			viewport := geometry.NewRect(50, 50, 200, 150)

			wrapped := 0
			for i := 0; i < tc.runs; i++ {
				ratio := tc.ratios[0] + rnd.Float64()*(tc.ratios[1]-tc.ratios[0])
				m := newLaidOutModel(t, 1000, math.Round(1000/ratio), viewport)

				cx, cy := viewport.CenterX(), viewport.CenterY()
				m.PostRotate(rnd.Float64()*90-45, cx, cy)
				if tc.atScale {
					m.ZoomTo(m.MaxScale(), cx, cy)
				} else {
					m.PostScale(0.5+rnd.Float64()*2, cx, cy)
				}
				m.PostTranslate(rnd.Float64()*200-100, rnd.Float64()*200-100)

				if !m.WrapToBounds() {
					require.True(t, m.Covers(), "run %d: no wrap but not covering", i)
					continue
				}
				wrapped++

				require.True(t, m.Covers(), "run %d: one wrap must cover, angle %.3f", i, m.Angle())
				assertScaleInBounds(t, m)

				settled := m.Matrix()
				require.False(t, m.WrapToBounds(), "run %d: second wrap must be a no-op", i)
				require.Equal(t, settled, m.Matrix())
			}

			assert.GreaterOrEqual(t, wrapped, tc.minWrapped)
		})
	}
}

func TestModel_WrapTarget_RaisesMaxScaleForRotatedCover(t *testing.T) {
	viewport := geometry.NewRect(0, 0, 200, 200)
	m := newLaidOutModel(t, 2000, 100, viewport)
	m.ZoomTo(m.MaxScale(), 100, 100)
	m.PostRotate(45, 100, 100)
	before := m.MaxScale()

	w, ok := m.WrapTarget()
	require.True(t, ok)
	assert.False(t, w.TranslateOnly)
	assert.Greater(t, m.MaxScale(), before)
	assert.InDelta(t, m.MaxScale(), w.FromScale+w.DeltaScale, 1e-9)

	assert.True(t, m.WrapToBounds())
	assert.True(t, m.Covers())
}

func TestModel_WrapToBounds_InBoundsIsNoop(t *testing.T) {
	m := newLaidOutModel(t, 800, 600, geometry.NewRect(0, 0, 300, 300))
	m.PostScale(2, 150, 150)
	m.PostTranslate(10, -10)

	before := m.Matrix()
	assert.False(t, m.WrapToBounds())
	assert.Equal(t, before, m.Matrix())
}

func TestModel_WrapTarget_TranslateOnly(t *testing.T) {
	m := newLaidOutModel(t, 400, 200, geometry.NewRect(0, 0, 200, 200))
	m.PostTranslate(130, 0)

	w, ok := m.WrapTarget()
	require.True(t, ok)
	assert.True(t, w.TranslateOnly)
	assert.InDelta(t, -30, w.DeltaX, 1e-9)
	assert.InDelta(t, 0, w.DeltaY, 1e-9)
}
