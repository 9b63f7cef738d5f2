// Package geom provides the plane predicates and small vector helpers the
// half-edge mesh is built on. All comparisons use an explicit tolerance so
// callers decide how coarse "on the plane" is.
package geom

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultEpsilon is the tolerance used when a caller does not supply one.
const DefaultEpsilon = 1e-6

// ErrZeroNormal is returned when a plane is built from a zero-length normal.
var ErrZeroNormal = errors.New("geom: plane normal has zero length")

// Plane is an oriented plane through Point with unit Normal. Distances are
// positive on the side the normal points to.
type Plane struct {
	Point  v3.Vec
	Normal v3.Vec
	Eps    float64
}

// NewPlane builds a plane through point with the given normal. The normal is
// normalised; eps <= 0 selects DefaultEpsilon.
func NewPlane(point, normal v3.Vec, eps float64) (Plane, error) {
	l := normal.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Plane{}, fmt.Errorf("new plane through %v: %w", point, ErrZeroNormal)
	}
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	return Plane{Point: point, Normal: normal.MulScalar(1 / l), Eps: eps}, nil
}

// MustPlane is like NewPlane but panics on a zero normal. For literals in
// tests and scripts whose normal is known to be valid.
func MustPlane(point, normal v3.Vec, eps float64) Plane {
	p, err := NewPlane(point, normal, eps)
	if err != nil {
		panic(err)
	}
	return p
}

// SignedDistance returns the distance from the plane to v along the normal.
func (p Plane) SignedDistance(v v3.Vec) float64 {
	return v.Sub(p.Point).Dot(p.Normal)
}

// OnPlane reports whether v is within tolerance of the plane.
func (p Plane) OnPlane(v v3.Vec) bool {
	return math.Abs(p.SignedDistance(v)) <= p.Eps
}

// Side classifies v as -1, 0 or +1 relative to the plane.
func (p Plane) Side(v v3.Vec) int {
	d := p.SignedDistance(v)
	switch {
	case d > p.Eps:
		return 1
	case d < -p.Eps:
		return -1
	}
	return 0
}

// Cuts reports whether the segment a-b properly crosses the plane: both ends
// are off the plane and on opposite sides. Cuts(a, b) == Cuts(b, a).
// The product test d(a)*d(b) <= -eps is not used: it misses crossings whose
// end distances each exceed eps but multiply to less than eps.
func (p Plane) Cuts(a, b v3.Vec) bool {
	sa, sb := p.Side(a), p.Side(b)
	return sa != 0 && sb != 0 && sa != sb
}

// Intersection returns the point where segment a-b crosses the plane. The
// second result is false when the segment does not cut the plane.
func (p Plane) Intersection(a, b v3.Vec) (v3.Vec, bool) {
	if !p.Cuts(a, b) {
		return v3.Vec{}, false
	}
	d := b.Sub(a)
	denom := d.Dot(p.Normal)
	if denom == 0 {
		return v3.Vec{}, false
	}
	t := p.Point.Sub(a).Dot(p.Normal) / denom
	return a.Add(d.MulScalar(t)), true
}

// Margin returns the smaller of the largest positive distance and the largest
// negative distance magnitude over vs. A side without points counts as 0, so
// a plane that leaves every point on one side has margin 0.
func (p Plane) Margin(vs []v3.Vec) float64 {
	var pos, neg float64
	for _, v := range vs {
		d := p.SignedDistance(v)
		if d > pos {
			pos = d
		}
		if -d > neg {
			neg = -d
		}
	}
	return math.Min(pos, neg)
}

// Translate returns the plane moved by -offset, that is the same plane
// expressed in a frame whose origin sits at offset.
func (p Plane) Translate(offset v3.Vec) Plane {
	p.Point = p.Point.Sub(offset)
	return p
}

func (p Plane) String() string {
	return fmt.Sprintf("plane{point=(%g %g %g) normal=(%g %g %g)}",
		p.Point.X, p.Point.Y, p.Point.Z, p.Normal.X, p.Normal.Y, p.Normal.Z)
}
