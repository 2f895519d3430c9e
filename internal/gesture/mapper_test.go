package gesture

import (
	"math"
	"testing"
	"time"

	"github.com/denismitr/cropper/internal/geometry"
	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC)

func newMapper(t *testing.T, cfg Config) *Mapper {
	t.Helper()

	model := transform.New(transform.DefaultConfig())
	_, err := model.Initialize(800, 600, geometry.NewRect(0, 0, 300, 300))
	require.NoError(t, err)

	return New(model, cfg)
}

func immediate() Config {
	cfg := DefaultConfig()
	cfg.WrapDuration = 0
	cfg.DoubleTapDuration = 0
	return cfg
}

func TestGestures_Allows(t *testing.T) {
	tt := []struct {
		set      Gestures
		class    Gestures
		expected bool
	}{
		{None, Scale, false},
		{None, Rotate, false},
		{Scale, Scale, true},
		{Scale, Rotate, false},
		{Rotate, Rotate, true},
		{All, Scale, true},
		{All, Rotate, true},
	}

	for _, tc := range tt {
		t.Run(tc.set.String()+"/"+tc.class.String(), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.set.Allows(tc.class))
		})
	}
}

func TestMapper_DisabledGesturesAreNoops(t *testing.T) {
	m := newMapper(t, immediate())

	m.SelectTab(TabScale)
	before := m.Model().Matrix()
	assert.False(t, m.TwoFingerRotate(150, 150, 30))
	assert.Equal(t, before, m.Model().Matrix())

	m.SelectTab(TabRotate)
	assert.False(t, m.Pinch(150, 150, 2))
	assert.False(t, m.DoubleTap(150, 150, epoch))
	assert.Equal(t, before, m.Model().Matrix())

	m.SelectTab(TabBrightness)
	assert.Equal(t, Scale, m.Allowed())

	m.SelectTab(TabAspectRatio)
	assert.True(t, m.Pinch(150, 150, 2))
	assert.True(t, m.TwoFingerRotate(150, 150, 30))
	assert.NotEqual(t, before, m.Model().Matrix())
}

func TestMapper_NoneConfigRejectsEverythingButDrag(t *testing.T) {
	cfg := immediate()
	cfg.Allowed = [TabsWithGestureControl]Gestures{None, None, None}
	m := newMapper(t, cfg)

	for _, tab := range []Tab{TabScale, TabRotate, TabAspectRatio} {
		m.SelectTab(tab)
		assert.False(t, m.Pinch(10, 10, 3))
		assert.False(t, m.TwoFingerRotate(10, 10, 3))
	}

	m.Drag(-20, 5)
	tx, ty := m.Model().Matrix().Translation()
	assert.InDelta(t, -20+(300-800*0.5)/2, tx, 1e-9)
	assert.InDelta(t, 5, ty, 1e-9)
}

func TestMapper_ScaleInvariantUnderGestures(t *testing.T) {
	m := newMapper(t, immediate())
	m.SelectTab(TabAspectRatio)

	for i := 0; i < 50; i++ {
		m.Pinch(float64(i*7%300), float64(i*13%300), 1+float64(i%5)/2)
		m.TwoFingerRotate(150, 150, float64(i))
		m.Drag(float64(i%3-1)*40, float64(i%5-2)*30)
		if i%4 == 0 {
			m.Pinch(100, 100, 0.1)
		}

		s := m.Model().State()
		assert.GreaterOrEqual(t, s.Scale, s.MinScale-1e-9)
		assert.LessOrEqual(t, s.Scale, s.MaxScale+1e-9)
	}

	m.GestureEnd(epoch)
	assert.True(t, m.Model().Covers())
}

func TestMapper_ScrollWheels(t *testing.T) {
	m := newMapper(t, immediate())

	m.SelectTab(TabRotate)
	m.Scroll(42, 42)
	assert.InDelta(t, 1, m.Model().Angle(), 1e-9)

	m.SelectTab(TabScale)
	before := m.Model().Scale()
	m.Scroll(1500, 1500)
	expected := before + 1500*(m.Model().MaxScale()-m.Model().MinScale())/ScaleSensitivity
	assert.InDelta(t, expected, m.Model().Scale(), 1e-9)

	m.SelectTab(TabBrightness)
	m.Scroll(30, 30)
	m.SelectTab(TabContrast)
	m.Scroll(-40, -40)
	m.SelectTab(TabSaturation)
	m.Scroll(3000, 3000)
	m.SelectTab(TabSharpness)
	m.Scroll(200, 200)

	assert.Equal(t, media.Adjustments{Brightness: 10, Contrast: -10, Saturation: 100, Sharpness: 0.5}, m.Adjustments())
}

func TestMapper_WrapAnimation(t *testing.T) {
	m := newMapper(t, DefaultConfig())
	m.Drag(200, 0)
	require.False(t, m.Model().Covers())

	assert.True(t, m.WrapToBounds(epoch))
	assert.True(t, m.Animating())

	assert.True(t, m.Tick(epoch.Add(100*time.Millisecond)))
	assert.False(t, m.Model().Covers(), "half way the image is still moving")

	assert.False(t, m.Tick(epoch.Add(DefaultWrapDuration)))
	assert.False(t, m.Animating())
	assert.True(t, m.Model().Covers())

	settled := m.Model().Matrix()
	assert.False(t, m.WrapToBounds(epoch))
	assert.Equal(t, settled, m.Model().Matrix())
}

func TestMapper_NewGestureCancelsWrapAnimation(t *testing.T) {
	m := newMapper(t, DefaultConfig())
	m.Drag(200, 0)
	m.GestureEnd(epoch)
	m.Tick(epoch.Add(50 * time.Millisecond))

	m.GestureStart()
	assert.False(t, m.Animating())

	frozen := m.Model().Matrix()
	assert.False(t, m.Tick(epoch.Add(time.Second)))
	assert.Equal(t, frozen, m.Model().Matrix())

	m.ScrollEnd(epoch)
	m.ScrollStart()
	assert.False(t, m.Animating())
}

func TestMapper_DoubleTap(t *testing.T) {
	m := newMapper(t, DefaultConfig())
	m.SelectTab(TabScale)
	target := m.DoubleTapTargetScale()

	assert.True(t, m.DoubleTap(150, 150, epoch))
	for now := epoch; m.Tick(now); now = now.Add(16 * time.Millisecond) {
	}

	assert.InDelta(t, target, m.Model().Scale(), 1e-9)
	assert.True(t, m.Model().Covers())
}

func TestMapper_ExplicitOperations(t *testing.T) {
	m := newMapper(t, immediate())

	m.RotateBy(90, epoch)
	assert.InDelta(t, 90, m.Model().Angle(), 1e-9)
	assert.True(t, m.Model().Covers())

	m.ResetRotation(epoch)
	a := m.Model().Angle()
	assert.InDelta(t, 0, math.Min(a, 360-a), 1e-9)
	assert.True(t, m.Model().Covers())

	m.ZoomTo(1e9, epoch)
	assert.InDelta(t, m.Model().MaxScale(), m.Model().Scale(), 1e-9)
}

func TestMapper_Settle(t *testing.T) {
	m := newMapper(t, DefaultConfig())
	m.Drag(-300, 120)
	m.GestureEnd(epoch)

	m.Settle()
	assert.False(t, m.Animating())
	assert.True(t, m.Model().Covers())
}

func TestEasing(t *testing.T) {
	for _, f := range []func(float64) float64{easeOutCubic, easeInOutCubic} {
		assert.InDelta(t, 0, f(0), 1e-12)
		assert.InDelta(t, 1, f(1), 1e-12)
	}

	assert.InDelta(t, 0.5, easeInOutCubic(0.5), 1e-12)
	assert.Greater(t, easeOutCubic(0.5), 0.5)
}
