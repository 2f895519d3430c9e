package pipeline

import (
	"fmt"

	"github.com/denismitr/cropper/internal/media"
)

// MinResultSize is the smallest max result side; smaller limits are raised to it.
const MinResultSize = 10

// Params is everything about a crop that is not geometry.
type Params struct {
	// MaxWidth and MaxHeight bound the result when both are positive.
	MaxWidth    int
	MaxHeight   int
	Format      media.Format
	Quality     int
	Destination string
	Adjustments media.Adjustments
	// SkipExif drops the source metadata from the result.
	SkipExif bool
}

func DefaultParams(destination string) Params {
	return Params{
		Format:      media.FormatFromFilename(destination, media.DefaultFormat),
		Quality:     media.DefaultQuality,
		Destination: destination,
	}
}

// Normalize applies defaults and clamps every value into its range.
func (p Params) Normalize() Params {
	if p.Format == "" {
		p.Format = media.FormatFromFilename(p.Destination, media.DefaultFormat)
	}

	if p.MaxWidth > 0 && p.MaxWidth < MinResultSize {
		p.MaxWidth = MinResultSize
	}
	if p.MaxHeight > 0 && p.MaxHeight < MinResultSize {
		p.MaxHeight = MinResultSize
	}

	p.Adjustments = p.Adjustments.Clamp()
	return p
}

func (p Params) Validate() error {
	vErr := NewValidationError()

	if p.Destination == "" {
		vErr.Add("destination", "Destination is required")
	}

	if p.Quality < 0 || p.Quality > 100 {
		vErr.Add("quality", fmt.Sprintf("Quality %d is out of range [0, 100]", p.Quality))
	}

	if p.MaxWidth < 0 || p.MaxHeight < 0 {
		vErr.Add("maxSize", "Max result size cannot be negative")
	}

	if _, err := media.ParseFormat(string(p.Format)); err != nil {
		vErr.Add("format", fmt.Sprintf("Format %s is unsupported", p.Format))
	}

	if !vErr.Empty() {
		return vErr
	}

	return nil
}
