package geometry

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Matrix is a 2D affine transform laid out as
//
//	| m[0] m[1] m[2] |
//	| m[3] m[4] m[5] |
//
// so that x' = m[0]*x + m[1]*y + m[2] and y' = m[3]*x + m[4]*y + m[5].
type Matrix f64.Aff3

func Identity() Matrix {
	return Matrix{1, 0, 0, 0, 1, 0}
}

func Translation(dx, dy float64) Matrix {
	return Matrix{1, 0, dx, 0, 1, dy}
}

// Scaling scales by s around the pivot (px, py).
func Scaling(s, px, py float64) Matrix {
	return Matrix{s, 0, px - s*px, 0, s, py - s*py}
}

// Rotation rotates clockwise (y axis pointing down) by degrees around (px, py).
func Rotation(degrees, px, py float64) Matrix {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Matrix{
		cos, -sin, px - cos*px + sin*py,
		sin, cos, py - sin*px - cos*py,
	}
}

// Then returns the transform that applies m first and n afterwards.
func (m Matrix) Then(n Matrix) Matrix {
	return Matrix{
		n[0]*m[0] + n[1]*m[3],
		n[0]*m[1] + n[1]*m[4],
		n[0]*m[2] + n[1]*m[5] + n[2],
		n[3]*m[0] + n[4]*m[3],
		n[3]*m[1] + n[4]*m[4],
		n[3]*m[2] + n[4]*m[5] + n[5],
	}
}

func (m Matrix) MapPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// MapPoints returns a copy of pts (x, y pairs) transformed by m.
func (m Matrix) MapPoints(pts []float64) []float64 {
	out := make([]float64, len(pts))
	for i := 1; i < len(pts); i += 2 {
		out[i-1], out[i] = m.MapPoint(pts[i-1], pts[i])
	}
	return out
}

// MapRect returns the bounding box of r after the transform.
func (m Matrix) MapRect(r Rect) Rect {
	return BoundingRect(m.MapPoints(r.Corners()))
}

// Scale is the uniform scale factor encoded in the matrix.
func (m Matrix) Scale() float64 {
	return math.Hypot(m[0], m[3])
}

// Angle is the clockwise rotation in degrees, in (-180, 180].
func (m Matrix) Angle() float64 {
	return -math.Atan2(m[1], m[0]) * 180 / math.Pi
}

func (m Matrix) Translation() (float64, float64) {
	return m[2], m[5]
}

// NormalizeAngle maps degrees into [0, 360).
func NormalizeAngle(degrees float64) float64 {
	a := math.Mod(degrees, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}
