package session

import (
	"testing"

	"github.com/denismitr/cropper/internal/pipeline"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScript(t *testing.T) {
	tt := []struct {
		script string
		expect []Op
		errs   []string
	}{
		{script: "", expect: nil},
		{
			script: "aspect:0,rotate:90,zoom:1.5,pan:10:-5",
			expect: []Op{
				{Name: "aspect", Args: []float64{0}},
				{Name: "rotate", Args: []float64{90}},
				{Name: "zoom", Args: []float64{1.5}},
				{Name: "pan", Args: []float64{10, -5}},
			},
		},
		{
			script: " reset-rotation, double-tap , brightness:-20 ",
			expect: []Op{
				{Name: "reset-rotation"},
				{Name: "double-tap"},
				{Name: "brightness", Args: []float64{-20}},
			},
		},
		{
			script: "pinch:2:50:60,turn:-15",
			expect: []Op{
				{Name: "pinch", Args: []float64{2, 50, 60}},
				{Name: "turn", Args: []float64{-15}},
			},
		},
		{script: "fly:1", errs: []string{"op[0]"}},
		{script: "rotate", errs: []string{"op[0]"}},
		{script: "rotate:1,pan:1", errs: []string{"op[1]"}},
		{script: "zoom:abc,rotate:1:2", errs: []string{"op[0]", "op[1]"}},
	}

	for _, tc := range tt {
		t.Run(tc.script, func(t *testing.T) {
			ops, err := ParseScript(tc.script)
			if len(tc.errs) == 0 {
				require.NoError(t, err)
				assert.Equal(t, tc.expect, ops)
				return
			}

			var vErr *pipeline.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Len(t, vErr.Errors(), len(tc.errs))
			for _, k := range tc.errs {
				assert.Contains(t, vErr.Errors(), k)
			}
		})
	}
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "pan:10:-5.5", Op{Name: "pan", Args: []float64{10, -5.5}}.String())
	assert.Equal(t, "reset-rotation", Op{Name: "reset-rotation"}.String())
}

func TestSession_ApplyOps(t *testing.T) {
	s := start(t, testConfig(), &stubLoader{bitmap: bitmap(200, 100)}, newStubExecutor())
	waitFor(t, s, LoadComplete)

	ops, err := ParseScript("aspect:0,rotate:90,contrast:20,saturation:-30,sharpness:0.5")
	require.NoError(t, err)

	for _, op := range ops {
		require.NoError(t, s.Apply(op))
	}

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.InDelta(t, 90, snap.Transform.Angle, 1e-6)
	assert.Equal(t, 20.0, snap.Adjustments.Contrast)
	assert.Equal(t, -30.0, snap.Adjustments.Saturation)
	assert.Equal(t, 0.5, snap.Adjustments.Sharpness)
	assert.False(t, snap.Animating)

	err = s.Apply(Op{Name: "pinch", Args: []float64{2, 10}})
	assert.Error(t, err)

	err = s.Apply(Op{Name: "nope"})
	assert.Error(t, err)
}
