package geometry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Epsilon is the tolerance used for float64 comparisons.
const Epsilon = 1e-9

// DefaultHeading is the bearing (degrees) reported for a zero-length motion.
const DefaultHeading = 0.0

// ErrMalformedPoint is returned when an "x,y" pair cannot be parsed.
var ErrMalformedPoint = errors.New("malformed point")

// Point2D is a position or a displacement in the simulation plane.
// It is a plain value: copy it freely, compare it with Eq.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point2D{X: x, Y: y}.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Polar builds a displacement of length radius along theta (radians).
func Polar(radius, theta float64) Point2D {
	x := radius * math.Cos(theta)
	y := radius * math.Sin(theta)
	if math.Abs(x) < Epsilon {
		x = 0
	}
	if math.Abs(y) < Epsilon {
		y = 0
	}
	return Point2D{X: x, Y: y}
}

// ParsePoint reads the "x,y" notation used by scenario documents.
// Exactly two comma separated numeric fields are accepted; blanks around them are ignored.
func ParsePoint(s string) (Point2D, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 2 {
		return Point2D{}, fmt.Errorf("%w: %q has %d fields, want 2", ErrMalformedPoint, s, len(fields))
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return Point2D{}, fmt.Errorf("%w: %q: %v", ErrMalformedPoint, s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return Point2D{}, fmt.Errorf("%w: %q: %v", ErrMalformedPoint, s, err)
	}
	if !isFinite(x) || !isFinite(y) {
		return Point2D{}, fmt.Errorf("%w: %q is not finite", ErrMalformedPoint, s)
	}
	return Point2D{X: x, Y: y}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// String implements fmt.Stringer.
func (p Point2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}

// ---------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{p.X - q.X, p.Y - q.Y}
}

// Scale returns p scaled by k.
func (p Point2D) Scale(k float64) Point2D {
	return Point2D{p.X * k, p.Y * k}
}

// Dot returns the scalar product.
func (p Point2D) Dot(q Point2D) float64 {
	return p.X*q.X + p.Y*q.Y
}

// ---------------------------------------------------------------------
// Magnitude
// ---------------------------------------------------------------------

// LenSqr avoids the square root; use it for comparisons.
func (p Point2D) LenSqr() float64 {
	return p.X*p.X + p.Y*p.Y
}

// Len is the Euclidean norm.
func (p Point2D) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// IsZero reports whether the vector is too short to carry a direction.
func (p Point2D) IsZero() bool {
	return p.Len() < Epsilon
}

// Normalize returns the unit vector of p, or the zero vector when p has no direction.
// Callers needing a direction for a zero vector must handle IsZero themselves.
func (p Point2D) Normalize() Point2D {
	l := p.Len()
	if l < Epsilon {
		return Point2D{}
	}
	return p.Scale(1 / l)
}

// DistanceTo is the Euclidean distance between two points.
func (p Point2D) DistanceTo(q Point2D) float64 {
	return p.Sub(q).Len()
}

// DistanceSquaredTo is the squared Euclidean distance between two points.
func (p Point2D) DistanceSquaredTo(q Point2D) float64 {
	return p.Sub(q).LenSqr()
}

// Heading converts a motion vector into the icon rotation in degrees, -atan2(x, y).
// Straight down the screen (+Y) is 180 and straight up is 0.
// A zero vector yields DefaultHeading.
func (p Point2D) Heading() float64 {
	if p.IsZero() {
		return DefaultHeading
	}
	if p.X == 0 {
		if p.Y > 0 {
			return 180
		}
		return 0
	}
	return -math.Atan2(p.X, p.Y) * 180.0 / math.Pi
}

// Eq checks approximate equality using Epsilon.
func (p Point2D) Eq(q Point2D) bool {
	return math.Abs(p.X-q.X) <= Epsilon && math.Abs(p.Y-q.Y) <= Epsilon
}

// ---------------------------------------------------------------------
// orb interop
// ---------------------------------------------------------------------

// Orb converts to an orb.Point.
func (p Point2D) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// FromOrb converts an orb.Point.
func FromOrb(p orb.Point) Point2D {
	return Point2D{X: p.X(), Y: p.Y()}
}
