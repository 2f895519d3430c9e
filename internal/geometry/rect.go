package geometry

import "math"

// Rect is an axis-aligned rectangle in view space.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

func NewRect(left, top, width, height float64) Rect {
	return Rect{Left: left, Top: top, Right: left + width, Bottom: top + height}
}

func (r Rect) Width() float64 {
	return r.Right - r.Left
}

func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

func (r Rect) CenterX() float64 {
	return (r.Left + r.Right) / 2
}

func (r Rect) CenterY() float64 {
	return (r.Top + r.Bottom) / 2
}

func (r Rect) Empty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// Contains reports whether o lies entirely inside r. An empty r contains nothing.
func (r Rect) Contains(o Rect) bool {
	return !r.Empty() &&
		r.Left <= o.Left && r.Top <= o.Top &&
		r.Right >= o.Right && r.Bottom >= o.Bottom
}

// ContainsWithin is Contains allowing each edge of o to overrun r by up
// to tolerance.
func (r Rect) ContainsWithin(o Rect, tolerance float64) bool {
	return !r.Empty() &&
		r.Left <= o.Left+tolerance && r.Top <= o.Top+tolerance &&
		r.Right >= o.Right-tolerance && r.Bottom >= o.Bottom-tolerance
}

// Corners returns the corners clockwise starting at the top-left:
//
//	0------->1
//	^        |
//	|        v
//	3<-------2
func (r Rect) Corners() []float64 {
	return []float64{
		r.Left, r.Top,
		r.Right, r.Top,
		r.Right, r.Bottom,
		r.Left, r.Bottom,
	}
}

// BoundingRect returns the smallest rectangle containing all the points.
func BoundingRect(points []float64) Rect {
	r := Rect{
		Left:   math.Inf(1),
		Top:    math.Inf(1),
		Right:  math.Inf(-1),
		Bottom: math.Inf(-1),
	}

	for i := 1; i < len(points); i += 2 {
		r.Left = math.Min(r.Left, points[i-1])
		r.Top = math.Min(r.Top, points[i])
		r.Right = math.Max(r.Right, points[i-1])
		r.Bottom = math.Max(r.Bottom, points[i])
	}

	return r
}

// TrapToRect is BoundingRect with coordinates rounded to one decimal,
// which absorbs matrix noise in displayed and cropped rects.
func TrapToRect(points []float64) Rect {
	r := BoundingRect(points)
	return Rect{
		Left:   round1(r.Left),
		Top:    round1(r.Top),
		Right:  round1(r.Right),
		Bottom: round1(r.Bottom),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// SidesFromCorners returns the lengths of the top and right sides of a
// (possibly rotated) rectangle given by its four corners.
func SidesFromCorners(c []float64) (width, height float64) {
	width = math.Hypot(c[0]-c[2], c[1]-c[3])
	height = math.Hypot(c[2]-c[4], c[3]-c[5])
	return width, height
}

// CenterFromCorners returns the midpoint of the diagonal of four corners.
func CenterFromCorners(c []float64) (x, y float64) {
	return (c[0] + c[4]) / 2, (c[1] + c[5]) / 2
}
