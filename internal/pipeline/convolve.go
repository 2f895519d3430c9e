package pipeline

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Kernel is a 3x3 convolution kernel in row-major order.
type Kernel [9]float64

// SharpenKernel returns the sharpening kernel for strength s; negative
// strengths soften.
func SharpenKernel(s float64) Kernel {
	return Kernel{
		0, -s, 0,
		-s, 1 + 4*s, -s,
		0, -s, 0,
	}
}

// Convolver applies a kernel to the color channels, leaving alpha as is.
type Convolver interface {
	Convolve(img image.Image, k Kernel) *image.NRGBA
}

// ImagingConvolver delegates to the parallel convolution of imaging.
type ImagingConvolver struct{}

func (ImagingConvolver) Convolve(img image.Image, k Kernel) *image.NRGBA {
	return imaging.Convolve3x3(img, k, nil)
}

// Sharpen is a no-op for zero strength.
func Sharpen(c Convolver, img image.Image, strength float64) image.Image {
	s := clampValue(strength, 1)
	if s == 0 || math.IsNaN(s) {
		return img
	}

	return c.Convolve(img, SharpenKernel(s))
}
