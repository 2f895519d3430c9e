package pipeline

import (
	"image"
	"image/color"
	"testing"

	"github.com/denismitr/cropper/internal/imagetest"
	"github.com/denismitr/cropper/internal/media"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

// loopConvolver is a plain loop over every pixel, edges clamped.
type loopConvolver struct{}

func (loopConvolver) Convolve(img image.Image, k Kernel) *image.NRGBA {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					weight := k[(ky+1)*3+kx+1]
					if weight == 0 {
						continue
					}

					sx := clampInt(x+kx, 0, w-1)
					sy := clampInt(y+ky, 0, h-1)
					i := src.PixOffset(sx, sy)
					r += weight * float64(src.Pix[i])
					g += weight * float64(src.Pix[i+1])
					b += weight * float64(src.Pix[i+2])
				}
			}

			i := dst.PixOffset(x, y)
			dst.Pix[i] = clampChannel(r)
			dst.Pix[i+1] = clampChannel(g)
			dst.Pix[i+2] = clampChannel(b)
			dst.Pix[i+3] = src.Pix[src.PixOffset(x, y)+3]
		}
	}

	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func TestColorMatrix_Brightness(t *testing.T) {
	tt := []struct {
		name   string
		value  float64
		in     uint8
		expect uint8
	}{
		{name: "mid gray up", value: 10, in: 128, expect: 138},
		{name: "mid gray down", value: -10, in: 128, expect: 118},
		{name: "clamped high", value: 100, in: 200, expect: 255},
		{name: "clamped low", value: -100, in: 50, expect: 0},
		{name: "value clamped to range", value: 500, in: 0, expect: 100},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			out := BrightnessMatrix(tc.value).Transform(color.NRGBA{R: tc.in, G: tc.in, B: tc.in, A: 200})
			assert.Equal(t, color.NRGBA{R: tc.expect, G: tc.expect, B: tc.expect, A: 200}, out)
		})
	}
}

func TestColorMatrix_Contrast(t *testing.T) {
	tt := []struct {
		name   string
		value  float64
		scale  float64
		offset float64
	}{
		{name: "zero", value: 0, scale: 1, offset: 0},
		{name: "negative", value: -50, scale: 0.5, offset: 31.75},
		{name: "table entry", value: 50, scale: 2, offset: -63.5},
		{name: "interpolated", value: 10.5, scale: 1.13, offset: -8.255},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			m := ContrastMatrix(tc.value)
			for row := 0; row < 3; row++ {
				assert.InDelta(t, tc.scale, m[row*6], 1e-9)
				assert.InDelta(t, tc.offset, m[row*5+4], 1e-9)
			}
			assert.Equal(t, 1.0, m[18])
		})
	}
}

func TestColorMatrix_Saturation(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}

	gray := SaturationMatrix(-100).Transform(red)
	assert.Equal(t, color.NRGBA{R: 79, G: 79, B: 79, A: 255}, gray)

	assert.True(t, SaturationMatrix(0).Identity())

	vivid := SaturationMatrix(50).Transform(color.NRGBA{R: 150, G: 100, B: 100, A: 255})
	assert.Greater(t, int(vivid.R)-int(vivid.G), 50)
}

func TestColorMatrix_Then(t *testing.T) {
	gray := color.NRGBA{R: 100, G: 100, B: 100, A: 255}

	m := BrightnessMatrix(10).Then(SaturationMatrix(-100))
	assert.Equal(t, color.NRGBA{R: 110, G: 110, B: 110, A: 255}, m.Transform(gray))

	brightFirst := BrightnessMatrix(50).Then(ContrastMatrix(-50))
	contrastFirst := ContrastMatrix(-50).Then(BrightnessMatrix(50))
	assert.NotEqual(t, brightFirst.Transform(gray), contrastFirst.Transform(gray))

	assert.Equal(t, brightFirst, AdjustmentMatrix(media.Adjustments{Brightness: 50, Contrast: -50}))
	assert.True(t, AdjustmentMatrix(media.Adjustments{Sharpness: 1}).Identity())
}

func TestColorMatrix_Apply(t *testing.T) {
	img := imagetest.Flat(8, 6, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	out := BrightnessMatrix(10).Apply(img)

	assert.Equal(t, image.Rect(0, 0, 8, 6), out.Bounds())
	for i := 0; i < len(out.Pix); i += 4 {
		assert.Equal(t, []uint8{138, 138, 138, 255}, out.Pix[i:i+4])
	}
}

func TestConvolvers_Agree(t *testing.T) {
	img := imagetest.Gradient(24, 16)

	tt := []struct {
		name     string
		strength float64
	}{
		{name: "sharpen", strength: 0.5},
		{name: "strong", strength: 1},
		{name: "soften", strength: -0.2},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			k := SharpenKernel(tc.strength)
			ref := loopConvolver{}.Convolve(img, k)
			fast := ImagingConvolver{}.Convolve(img, k)

			assert.Equal(t, ref.Bounds(), fast.Bounds())
			for i := range ref.Pix {
				diff := int(ref.Pix[i]) - int(fast.Pix[i])
				if diff < -1 || diff > 1 {
					t.Fatalf("pixel byte %d differs: %d vs %d", i, ref.Pix[i], fast.Pix[i])
				}
			}
		})
	}
}

func TestSharpen(t *testing.T) {
	img := imagetest.Gradient(10, 10)

	assert.Same(t, img, Sharpen(loopConvolver{}, img, 0))

	flat := imagetest.Flat(10, 10, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
	out := Sharpen(loopConvolver{}, flat, 0.8).(*image.NRGBA)
	assert.Equal(t, flat.Pix, out.Pix, "a flat image has no edges to sharpen")
}
