package pose

import (
	"errors"
	"math"
)

// ErrDegenerateAngle is returned when an angle is undefined: a ray of zero
// length or a non-finite coordinate.
var ErrDegenerateAngle = errors.New("degenerate angle")

// minRayLength guards against coincident points.
const minRayLength = 1e-9

// Angle returns the angle in degrees at vertex b between rays b->a and b->c.
// The result is always within [0, 180].
func Angle(a, b, c Point) (float64, error) {
	for _, p := range [3]Point{a, b, c} {
		if !finite(p.X) || !finite(p.Y) {
			return 0, ErrDegenerateAngle
		}
	}
	if math.Hypot(a.X-b.X, a.Y-b.Y) < minRayLength || math.Hypot(c.X-b.X, c.Y-b.Y) < minRayLength {
		return 0, ErrDegenerateAngle
	}

	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180.0 {
		angle = 360.0 - angle
	}
	return angle, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PointAt returns the point at distance length from vertex such that the angle
// between vertex->ref and vertex->result is degrees, rotating counter-clockwise
// in frame coordinates. It is the inverse of Angle and is used to synthesize
// landmark frames.
func PointAt(vertex, ref Point, degrees, length float64) Point {
	dx, dy := ref.X-vertex.X, ref.Y-vertex.Y
	norm := math.Hypot(dx, dy)
	if norm < minRayLength {
		dx, dy, norm = 0, -1, 1
	}
	dx, dy = dx/norm, dy/norm
	rad := degrees * math.Pi / 180.0
	sin, cos := math.Sincos(rad)
	return Point{
		X: vertex.X + length*(dx*cos-dy*sin),
		Y: vertex.Y + length*(dx*sin+dy*cos),
	}
}
