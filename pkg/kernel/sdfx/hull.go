package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/shatter/pkg/geom"
	"github.com/chazu/shatter/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"
)

// Hull returns the convex hull of points as a closed triangulated solid.
// Every triangle is wound counter-clockwise seen from outside.
func (k *SdfxKernel) Hull(points []v3.Vec) (kernel.Solid, error) {
	if len(points) < 4 {
		return nil, fmt.Errorf("sdfx: hull needs at least 4 points, got %d", len(points))
	}
	if !spansVolume(points) {
		return nil, fmt.Errorf("sdfx: hull points are coplanar")
	}
	cloud := make([]r3.Vector, len(points))
	for i, p := range points {
		cloud[i] = r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
	}

	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(cloud, true, true, geom.DefaultEpsilon)
	if len(ch.Indices) < 12 || len(ch.Indices)%3 != 0 {
		return nil, fmt.Errorf("sdfx: hull of %d points is degenerate", len(points))
	}

	c := geom.Average(points)
	faces := make([][]v3.Vec, 0, len(ch.Indices)/3)
	for i := 0; i+2 < len(ch.Indices); i += 3 {
		a, b, d := points[ch.Indices[i]], points[ch.Indices[i+1]], points[ch.Indices[i+2]]
		n := b.Sub(a).Cross(d.Sub(a))
		if n.Dot(a.Sub(c)) < 0 {
			b, d = d, b
		}
		faces = append(faces, []v3.Vec{a, b, d})
	}
	return &polySolid{faces: faces}, nil
}

// spansVolume reports whether the points are not all coplanar.
func spansVolume(points []v3.Vec) bool {
	a := points[0]
	for i := 1; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			n := points[i].Sub(a).Cross(points[j].Sub(a))
			if n.Length() <= geom.DefaultEpsilon {
				continue
			}
			n = n.Normalize()
			for _, p := range points {
				if math.Abs(n.Dot(p.Sub(a))) > geom.DefaultEpsilon {
					return true
				}
			}
			return false
		}
	}
	return false
}
