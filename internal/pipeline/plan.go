package pipeline

import (
	"math"

	"github.com/denismitr/cropper/internal/geometry"
	"github.com/denismitr/cropper/internal/transform"
)

// ImageState is the geometry of a session frozen at commit.
type ImageState struct {
	CropRect geometry.Rect
	// ImageRect is the bounding box of the rotated image in view space.
	ImageRect geometry.Rect
	Scale     float64
	Angle     float64
}

func Snapshot(m *transform.Model) ImageState {
	return ImageState{
		CropRect:  m.Viewport(),
		ImageRect: m.ImageRect(),
		Scale:     m.Scale(),
		Angle:     m.Angle(),
	}
}

// Plan is the pixel work a crop needs, derived from geometry alone.
type Plan struct {
	// Scale converts view distances into pixels of the working bitmap.
	Scale       float64
	ResizeScale float64
	OffsetX     int
	OffsetY     int
	Width       int
	Height      int
	ShouldCrop  bool
}

// NewPlan works out the crop. sourceRatio is how many source pixels one
// pixel of the displayed bitmap stands for.
func NewPlan(s ImageState, sourceRatio float64, maxWidth, maxHeight int) Plan {
	p := Plan{Scale: s.Scale, ResizeScale: 1}
	if sourceRatio > 0 {
		p.Scale /= sourceRatio
	}

	maxSet := maxWidth > 0 && maxHeight > 0
	if maxSet {
		cropW := s.CropRect.Width() / p.Scale
		cropH := s.CropRect.Height() / p.Scale
		if cropW > float64(maxWidth) || cropH > float64(maxHeight) {
			p.ResizeScale = math.Min(float64(maxWidth)/cropW, float64(maxHeight)/cropH)
			p.Scale /= p.ResizeScale
		}
	}

	p.OffsetX = int(math.Round((s.CropRect.Left - s.ImageRect.Left) / p.Scale))
	p.OffsetY = int(math.Round((s.CropRect.Top - s.ImageRect.Top) / p.Scale))
	p.Width = int(math.Round(s.CropRect.Width() / p.Scale))
	p.Height = int(math.Round(s.CropRect.Height() / p.Scale))
	p.ShouldCrop = ShouldCrop(s, p.Width, p.Height, maxSet)

	return p
}

// PixelError is the fuzz allowed between the crop and image edges: one
// pixel plus one per thousand pixels of crop.
func PixelError(width, height int) float64 {
	return 1 + math.Round(float64(max(width, height))/1000)
}

// ShouldCrop is false only when the crop is the whole unrotated image and
// no max size is set.
func ShouldCrop(s ImageState, width, height int, maxSizeSet bool) bool {
	tolerance := PixelError(width, height)

	return maxSizeSet ||
		math.Abs(s.CropRect.Left-s.ImageRect.Left) > tolerance ||
		math.Abs(s.CropRect.Top-s.ImageRect.Top) > tolerance ||
		math.Abs(s.CropRect.Bottom-s.ImageRect.Bottom) > tolerance ||
		math.Abs(s.CropRect.Right-s.ImageRect.Right) > tolerance ||
		s.Angle != 0
}
