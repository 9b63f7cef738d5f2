package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Near reports whether a and b are within eps of each other on every axis.
func Near(a, b v3.Vec, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

// Average returns the arithmetic mean of vs, or the zero vector for none.
func Average(vs []v3.Vec) v3.Vec {
	var sum v3.Vec
	if len(vs) == 0 {
		return sum
	}
	for _, v := range vs {
		sum = sum.Add(v)
	}
	return sum.MulScalar(1 / float64(len(vs)))
}

// Bounds returns the axis-aligned box enclosing vs.
func Bounds(vs []v3.Vec) sdf.Box3 {
	if len(vs) == 0 {
		return sdf.Box3{}
	}
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = v3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = v3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return sdf.Box3{Min: lo, Max: hi}
}

// Normal returns the unit normal of the polygon vs using Newell's method, or
// the zero vector when the polygon is degenerate.
func Normal(vs []v3.Vec) v3.Vec {
	var n v3.Vec
	for i, a := range vs {
		b := vs[(i+1)%len(vs)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	l := n.Length()
	if l == 0 {
		return v3.Vec{}
	}
	return n.MulScalar(1 / l)
}

// Area returns the area of the planar polygon vs.
func Area(vs []v3.Vec) float64 {
	if len(vs) < 3 {
		return 0
	}
	var sum v3.Vec
	for i := 1; i+1 < len(vs); i++ {
		sum = sum.Add(vs[i].Sub(vs[0]).Cross(vs[i+1].Sub(vs[0])))
	}
	return sum.Length() / 2
}

// OnSegment reports whether p lies strictly between a and b within eps.
func OnSegment(p, a, b v3.Vec, eps float64) bool {
	ab := b.Sub(a)
	l := ab.Length()
	if l <= eps {
		return false
	}
	ap := p.Sub(a)
	if ap.Cross(ab).Length()/l > eps {
		return false
	}
	t := ap.Dot(ab) / (l * l)
	return t*l > eps && (1-t)*l > eps
}
