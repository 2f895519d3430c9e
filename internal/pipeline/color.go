package pipeline

import (
	"image"
	"image/color"
	"math"

	"github.com/denismitr/cropper/internal/media"
	"github.com/disintegration/imaging"
)

// ColorMatrix is a 4x5 row-major matrix over RGBA with offsets in the
// fifth column, channels in [0, 255].
type ColorMatrix [20]float64

const (
	lumR = 0.3086
	lumG = 0.6094
	lumB = 0.0820
)

// contrastCurve maps positive contrast steps onto a matrix multiplier.
var contrastCurve = [...]float64{
	0, 0.01, 0.02, 0.04, 0.05, 0.06, 0.07, 0.08, 0.1, 0.11,
	0.12, 0.14, 0.15, 0.16, 0.17, 0.18, 0.20, 0.21, 0.22, 0.24,
	0.25, 0.27, 0.28, 0.30, 0.32, 0.34, 0.36, 0.38, 0.40, 0.42,
	0.44, 0.46, 0.48, 0.5, 0.53, 0.56, 0.59, 0.62, 0.65, 0.68,
	0.71, 0.74, 0.77, 0.80, 0.83, 0.86, 0.89, 0.92, 0.95, 0.98,
	1.0, 1.06, 1.12, 1.18, 1.24, 1.30, 1.36, 1.42, 1.48, 1.54,
	1.60, 1.66, 1.72, 1.78, 1.84, 1.90, 1.96, 2.0, 2.12, 2.25,
	2.37, 2.50, 2.62, 2.75, 2.87, 3.0, 3.2, 3.4, 3.6, 3.8,
	4.0, 4.3, 4.7, 4.9, 5.0, 5.5, 6.0, 6.5, 6.8, 7.0,
	7.3, 7.5, 7.8, 8.0, 8.4, 8.7, 9.0, 9.4, 9.6, 9.8,
	10.0,
}

func IdentityColorMatrix() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

func BrightnessMatrix(value float64) ColorMatrix {
	v := clampValue(value, media.MaxBrightness)
	m := IdentityColorMatrix()
	m[4], m[9], m[14] = v, v, v
	return m
}

func ContrastMatrix(value float64) ColorMatrix {
	v := clampValue(value, media.MaxContrast)
	if v == 0 {
		return IdentityColorMatrix()
	}

	var x float64
	if v < 0 {
		x = 127 + v/100*127
	} else {
		i := int(math.Floor(v))
		frac := v - float64(i)
		x = contrastCurve[i]
		if frac > 0 && i+1 < len(contrastCurve) {
			x = contrastCurve[i]*(1-frac) + contrastCurve[i+1]*frac
		}
		x = x*127 + 127
	}

	d := x / 127
	o := 0.5 * (127 - x)
	return ColorMatrix{
		d, 0, 0, 0, o,
		0, d, 0, 0, o,
		0, 0, d, 0, o,
		0, 0, 0, 1, 0,
	}
}

func SaturationMatrix(value float64) ColorMatrix {
	v := clampValue(value, media.MaxSaturation)
	if v == 0 {
		return IdentityColorMatrix()
	}

	x := 1 + v/100
	if v > 0 {
		x = 1 + 3*v/100
	}

	r, g, b := lumR*(1-x), lumG*(1-x), lumB*(1-x)
	return ColorMatrix{
		r + x, g, b, 0, 0,
		r, g + x, b, 0, 0,
		r, g, b + x, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Then returns the matrix that applies m first and next after it.
func (m ColorMatrix) Then(next ColorMatrix) ColorMatrix {
	var out ColorMatrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += next[row*5+k] * m[k*5+col]
			}
			if col == 4 {
				sum += next[row*5+4]
			}
			out[row*5+col] = sum
		}
	}

	return out
}

// AdjustmentMatrix chains brightness, contrast and saturation in that order.
func AdjustmentMatrix(a media.Adjustments) ColorMatrix {
	return BrightnessMatrix(a.Brightness).
		Then(ContrastMatrix(a.Contrast)).
		Then(SaturationMatrix(a.Saturation))
}

func (m ColorMatrix) Identity() bool {
	return m == IdentityColorMatrix()
}

// Transform maps one non-premultiplied color.
func (m ColorMatrix) Transform(c color.NRGBA) color.NRGBA {
	in := [4]float64{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
	var out [4]uint8
	for row := 0; row < 4; row++ {
		v := m[row*5+4]
		for k := 0; k < 4; k++ {
			v += m[row*5+k] * in[k]
		}
		out[row] = clampChannel(v)
	}

	return color.NRGBA{R: out[0], G: out[1], B: out[2], A: out[3]}
}

// Apply runs the matrix over every pixel.
func (m ColorMatrix) Apply(img image.Image) *image.NRGBA {
	return imaging.AdjustFunc(img, m.Transform)
}

func clampValue(v, limit float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return math.Max(-limit, math.Min(limit, v))
}

func clampChannel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
