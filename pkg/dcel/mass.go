package dcel

import (
	"math"

	"github.com/chazu/shatter/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MassProperties describes a solid of uniform density.
type MassProperties struct {
	CenterOfMass v3.Vec
	Volume       float64
	// Degenerate is set when the enclosed volume is too small to locate a
	// centroid; CenterOfMass is then the vertex average.
	Degenerate bool
}

// computeMass sums signed tetrahedra between a reference point and every fan
// triangle of every face. The reference is the vertex average, which keeps
// the tetrahedra small and the sums well conditioned.
//
// The solid is degenerate when its volume is under eps times its surface
// area, i.e. it is thinner than about two eps everywhere.
func (m *Mesh) computeMass() (MassProperties, error) {
	loops, err := m.loops("mass properties")
	if err != nil {
		return MassProperties{}, err
	}
	r := geom.Average(m.Vertices())

	var vol, area float64
	var moment v3.Vec
	for _, l := range loops {
		a := m.verts[m.edges[l[0]].Start]
		for i := 1; i+1 < len(l); i++ {
			b := m.verts[m.edges[l[i]].Start]
			c := m.verts[m.edges[l[i+1]].Start]
			area += b.Sub(a).Cross(c.Sub(a)).Length() / 2
			v := tetraVolume(a, b, c, r)
			if v == 0 {
				continue
			}
			vol += v
			centroid := a.Add(b).Add(c).Add(r).MulScalar(0.25)
			moment = moment.Add(centroid.MulScalar(v))
		}
	}

	if area == 0 || math.Abs(vol) < m.opts.eps*area {
		return MassProperties{CenterOfMass: r, Volume: vol, Degenerate: true}, nil
	}
	return MassProperties{CenterOfMass: moment.MulScalar(1 / vol), Volume: vol}, nil
}

// tetraVolume is the signed volume of the tetrahedron with base a, b, c and
// apex r. It is positive when r lies behind a counter-clockwise triangle.
func tetraVolume(a, b, c, r v3.Vec) float64 {
	n := a.Sub(b).Cross(c.Sub(b))
	nl := n.Length()
	if nl < 1e-12 {
		return 0
	}
	height := r.Sub(b).Dot(n.MulScalar(1 / nl))
	return heron(a.Sub(b).Length(), c.Sub(b).Length(), c.Sub(a).Length()) * height / 3
}

// heron returns the area of a triangle with side lengths x, y and z.
func heron(x, y, z float64) float64 {
	s := (x + y + z) / 2
	sq := s * (s - x) * (s - y) * (s - z)
	if sq <= 0 {
		return 0
	}
	return math.Sqrt(sq)
}
