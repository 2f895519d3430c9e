package aspect

import (
	"math"
	"testing"

	"github.com/denismitr/cropper/internal/geometry"
	"github.com/denismitr/cropper/internal/transform"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions_RejectsOutOfRangeIndex(t *testing.T) {
	tt := []struct {
		name     string
		selected int
		list     []Option
	}{
		{name: "index equals length", selected: 2, list: []Option{Ratio(1, 1), Ratio(3, 4)}},
		{name: "negative index", selected: -1, list: []Option{Ratio(1, 1)}},
		{name: "empty list", selected: 0},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			opts, err := NewOptions(tc.selected, tc.list...)
			assert.Nil(t, opts)
			assert.True(t, errors.Is(err, ErrInvalidAspectRatioIndex))
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, 5, opts.Len())
	assert.Equal(t, 2, opts.SelectedIndex())
	assert.True(t, opts.Selected().IsSource())
	assert.Equal(t, "Original", opts.Selected().String())

	opt, err := opts.Select(4)
	require.NoError(t, err)
	assert.Equal(t, "16:9", opt.String())
	assert.Equal(t, "9:16", opts.ToggleSelected().String())

	_, err = opts.Select(5)
	assert.True(t, errors.Is(err, ErrInvalidAspectRatioIndex))
}

func TestOption_Value(t *testing.T) {
	assert.InDelta(t, 0.75, Ratio(3, 4).Value(4000, 3000), 1e-12)
	assert.InDelta(t, 4.0/3, Original().Value(4000, 3000), 1e-12)
	assert.True(t, math.IsNaN(Original().Value(0, 0)))
	assert.Equal(t, Original(), Original().Toggle())
}

func TestFit(t *testing.T) {
	area := geometry.NewRect(0, 0, 400, 300)

	tt := []struct {
		name     string
		ratio    float64
		expected geometry.Rect
	}{
		{name: "square", ratio: 1, expected: geometry.NewRect(50, 0, 300, 300)},
		{name: "wide", ratio: 2, expected: geometry.NewRect(0, 50, 400, 200)},
		{name: "same as area", ratio: 4.0 / 3, expected: area},
		{name: "unconstrained", ratio: math.NaN(), expected: area},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Fit(area, tc.ratio))
		})
	}
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()

	e := New(geometry.NewRect(0, 0, 600, 800), transform.New(transform.DefaultConfig()), cfg)
	e.SetImageSize(4000, 3000)
	return e
}

func TestEngine_SelectIsIdempotent(t *testing.T) {
	for _, opt := range DefaultOptions().All() {
		t.Run(opt.String(), func(t *testing.T) {
			e := newEngine(t, DefaultConfig())

			vp1, st1, err := e.Select(opt)
			require.NoError(t, err)
			m1 := e.model.Matrix()

			vp2, st2, err := e.Select(opt)
			require.NoError(t, err)

			assert.Equal(t, vp1, vp2)
			assert.Equal(t, st1, st2)
			assert.Equal(t, m1, e.model.Matrix())
			assert.True(t, e.model.Covers())
		})
	}
}

func TestEngine_SelectSource(t *testing.T) {
	e := newEngine(t, DefaultConfig())

	vp, st, err := e.Select(Original())
	require.NoError(t, err)

	assert.Equal(t, geometry.NewRect(0, 175, 600, 450), vp)
	assert.InDelta(t, 0.15, st.Scale, 1e-9)
	assert.InDelta(t, 0.1125, st.MinScale, 1e-9)
	assert.False(t, e.FreeStyle())
}

func TestEngine_SelectWithoutImage(t *testing.T) {
	e := New(geometry.NewRect(0, 0, 100, 100), transform.New(transform.DefaultConfig()), DefaultConfig())

	_, _, err := e.Select(Ratio(1, 1))
	assert.True(t, errors.Is(err, transform.ErrEmptyImageRect))
}

func TestEngine_ResizeViewport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FreeStyle = true
	e := newEngine(t, cfg)

	_, _, err := e.Select(Ratio(1, 1))
	require.NoError(t, err)
	start := e.Viewport()

	vp, err := e.ResizeViewport(TopLeft, 50, 60)
	require.NoError(t, err)
	assert.Equal(t, geometry.Rect{Left: start.Left + 50, Top: start.Top + 60, Right: start.Right, Bottom: start.Bottom}, vp)
	assert.Equal(t, vp, e.model.Viewport())

	vp, err = e.ResizeViewport(BottomRight, 1000, 1000)
	require.NoError(t, err)
	assert.Equal(t, e.Area().Right, vp.Right)
	assert.Equal(t, e.Area().Bottom, vp.Bottom)

	before := vp
	vp, err = e.ResizeViewport(TopRight, -10000, 0)
	require.NoError(t, err)
	assert.Equal(t, before.Left, vp.Left)
	assert.Equal(t, before.Right, vp.Right, "width below the minimum keeps the old edges")

	vp, err = e.ResizeViewport(Move, -5000, -5000)
	require.NoError(t, err)
	assert.Equal(t, e.Area().Left, vp.Left)
	assert.Equal(t, e.Area().Top, vp.Top)
	assert.InDelta(t, before.Width(), vp.Width(), 1e-9)
}

func TestEngine_ResizeViewport_Locked(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	_, _, err := e.Select(Ratio(3, 2))
	require.NoError(t, err)

	vp, err := e.ResizeViewport(TopLeft, 10, 10)
	assert.True(t, errors.Is(err, ErrNotFreeStyle))
	assert.Equal(t, e.Viewport(), vp)
}
