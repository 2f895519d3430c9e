package media

import "math"

const (
	MaxBrightness = 100.0
	MaxContrast   = 50.0
	MaxSaturation = 100.0
	MaxSharpness  = 1.0
)

// Adjustments are the tonal scalars of a crop. Zero means no change.
type Adjustments struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Sharpness  float64 `json:"sharpness"`
}

// Clamp pulls every value into its allowed range.
func (a Adjustments) Clamp() Adjustments {
	return Adjustments{
		Brightness: symmetric(a.Brightness, MaxBrightness),
		Contrast:   symmetric(a.Contrast, MaxContrast),
		Saturation: symmetric(a.Saturation, MaxSaturation),
		Sharpness:  symmetric(a.Sharpness, MaxSharpness),
	}
}

func (a Adjustments) None() bool {
	return a.Brightness == 0 && a.Contrast == 0 && a.Saturation == 0 && a.Sharpness == 0
}

func symmetric(v, limit float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return math.Max(-limit, math.Min(limit, v))
}
