// Package sdfx implements the kernel.Kernel interface for closed polyhedra,
// using the github.com/deadsy/sdfx vector, matrix and bounding box types.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/shatter/pkg/geom"
	"github.com/chazu/shatter/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// polySolid is a closed polyhedron stored as its boundary faces.
type polySolid struct {
	faces [][]v3.Vec
}

// BoundingBox returns the axis-aligned bounding box.
func (s *polySolid) BoundingBox() (min, max [3]float64) {
	bb := s.bounds()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

func (s *polySolid) bounds() sdf.Box3 {
	var pts []v3.Vec
	for _, f := range s.faces {
		pts = append(pts, f...)
	}
	return geom.Bounds(pts)
}

// Faces returns a copy of the boundary polygons.
func (s *polySolid) Faces() [][]v3.Vec {
	out := make([][]v3.Vec, len(s.faces))
	for i, f := range s.faces {
		out[i] = append([]v3.Vec(nil), f...)
	}
	return out
}

// SdfxKernel implements kernel.Kernel for polyhedral solids.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying polyhedron from a kernel.Solid.
func unwrap(s kernel.Solid) *polySolid {
	if p, ok := s.(*polySolid); ok {
		return p
	}
	return &polySolid{faces: s.Faces()}
}

// Box creates a box with the given dimensions. The resulting solid has its
// minimum corner at the origin (0,0,0) so that placement translations work
// intuitively: (place :at (vec3 10 0 0)) puts the box's corner at x=10.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	p := func(a, b, c float64) v3.Vec { return v3.Vec{X: a * x, Y: b * y, Z: c * z} }
	return &polySolid{faces: [][]v3.Vec{
		{p(1, 0, 0), p(1, 1, 0), p(1, 1, 1), p(1, 0, 1)},
		{p(0, 0, 0), p(0, 0, 1), p(0, 1, 1), p(0, 1, 0)},
		{p(0, 1, 0), p(0, 1, 1), p(1, 1, 1), p(1, 1, 0)},
		{p(0, 0, 0), p(1, 0, 0), p(1, 0, 1), p(0, 0, 1)},
		{p(0, 0, 1), p(1, 0, 1), p(1, 1, 1), p(0, 1, 1)},
		{p(0, 0, 0), p(0, 1, 0), p(1, 1, 0), p(1, 0, 0)},
	}}
}

// Cylinder creates a prism with the given number of sides approximating a
// cylinder, centred on the origin with its axis along Z. Fewer than three
// segments is treated as three.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	if segments < 3 {
		segments = 3
	}
	h := height / 2
	ring := func(z float64) []v3.Vec {
		pts := make([]v3.Vec, segments)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / float64(segments)
			pts[i] = v3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a), Z: z}
		}
		return pts
	}
	bottom, top := ring(-h), ring(h)

	faces := make([][]v3.Vec, 0, segments+2)
	capTop := append([]v3.Vec(nil), top...)
	capBottom := make([]v3.Vec, segments)
	for i := range bottom {
		capBottom[i] = bottom[segments-1-i]
	}
	faces = append(faces, capTop, capBottom)
	for i := range segments {
		j := (i + 1) % segments
		faces = append(faces, []v3.Vec{bottom[i], bottom[j], top[j], top[i]})
	}
	return &polySolid{faces: faces}
}

// transform applies m to every vertex.
func transform(s kernel.Solid, m sdf.M44) kernel.Solid {
	src := unwrap(s)
	faces := make([][]v3.Vec, len(src.faces))
	for i, f := range src.faces {
		out := make([]v3.Vec, len(f))
		for j, p := range f {
			out[j] = m.MulPosition(p)
		}
		faces[i] = out
	}
	return &polySolid{faces: faces}
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return transform(s, sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z}))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return transform(s, m)
}

// ToMesh fan-triangulates every face into an unwelded triangle mesh with
// flat per-face normals.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	src := unwrap(s)
	if len(src.faces) == 0 {
		return nil, fmt.Errorf("sdfx: solid has no faces")
	}

	var vertices, normals []float32
	var indices []uint32
	for _, f := range src.faces {
		n := geom.Normal(f)
		for i := 1; i+1 < len(f); i++ {
			for _, v := range [3]v3.Vec{f[0], f[i], f[i+1]} {
				indices = append(indices, uint32(len(vertices)/3))
				vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
				normals = append(normals, float32(n.X), float32(n.Y), float32(n.Z))
			}
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
