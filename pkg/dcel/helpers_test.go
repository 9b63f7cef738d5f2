package dcel

import (
	"math"
	"sort"
	"testing"

	"github.com/chazu/shatter/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// cubeQuads returns the six faces of an axis-aligned cube of edge 2h centred
// on c, wound counter-clockwise seen from outside.
func cubeQuads(c v3.Vec, h float64) []Face {
	p := func(x, y, z float64) v3.Vec { return v3.Vec{X: c.X + x*h, Y: c.Y + y*h, Z: c.Z + z*h} }
	return []Face{
		{p(1, -1, -1), p(1, 1, -1), p(1, 1, 1), p(1, -1, 1)},
		{p(-1, -1, -1), p(-1, -1, 1), p(-1, 1, 1), p(-1, 1, -1)},
		{p(-1, 1, -1), p(-1, 1, 1), p(1, 1, 1), p(1, 1, -1)},
		{p(-1, -1, -1), p(1, -1, -1), p(1, -1, 1), p(-1, -1, 1)},
		{p(-1, -1, 1), p(1, -1, 1), p(1, 1, 1), p(-1, 1, 1)},
		{p(-1, -1, -1), p(-1, 1, -1), p(1, 1, -1), p(1, -1, -1)},
	}
}

// cubeTriangles splits each cube face into two triangles, 12 in total.
func cubeTriangles(c v3.Vec, h float64) []Face {
	var tris []Face
	for _, q := range cubeQuads(c, h) {
		tris = append(tris, Face{q[0], q[1], q[2]}, Face{q[0], q[2], q[3]})
	}
	return tris
}

// unitCube is the 12-triangle cube spanning [-0.5, 0.5] on every axis.
func unitCube(t *testing.T, opts ...Option) *Mesh {
	t.Helper()
	m, err := New(cubeTriangles(v3.Vec{}, 0.5), opts...)
	if err != nil {
		t.Fatalf("New(cube): %v", err)
	}
	return m
}

func plane(t *testing.T, point, normal v3.Vec) geom.Plane {
	t.Helper()
	p, err := geom.NewPlane(point, normal, 0)
	if err != nil {
		t.Fatalf("NewPlane: %v", err)
	}
	return p
}

func assertHealthy(t *testing.T, m *Mesh) {
	t.Helper()
	if vs := m.Check(); len(vs) != 0 {
		t.Fatalf("expected no violations, got %d, first: %v", len(vs), vs[0])
	}
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// bufferArea sums the areas of all triangles in b.
func bufferArea(b Buffers) float64 {
	at := func(i uint32) v3.Vec {
		return v3.Vec{X: float64(b.Positions[3*i]), Y: float64(b.Positions[3*i+1]), Z: float64(b.Positions[3*i+2])}
	}
	var area float64
	for i := 0; i+2 < len(b.Indices); i += 3 {
		a, bb, c := at(b.Indices[i]), at(b.Indices[i+1]), at(b.Indices[i+2])
		area += bb.Sub(a).Cross(c.Sub(a)).Length() / 2
	}
	return area
}

// voxelFaces returns the boundary of a union of unit cells, each cell given
// by its minimum corner. Faces between two occupied cells are left out.
func voxelFaces(cells [][3]int) []Face {
	occupied := make(map[[3]int]bool, len(cells))
	for _, c := range cells {
		occupied[c] = true
	}
	// Same order as cubeQuads: +X, -X, +Y, -Y, +Z, -Z.
	dirs := [6][3]int{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	var faces []Face
	for _, c := range cells {
		quads := cubeQuads(v3.Vec{X: float64(c[0]) + 0.5, Y: float64(c[1]) + 0.5, Z: float64(c[2]) + 0.5}, 0.5)
		for i, d := range dirs {
			if !occupied[[3]int{c[0] + d[0], c[1] + d[1], c[2] + d[2]}] {
				faces = append(faces, quads[i])
			}
		}
	}
	return faces
}

// uShape is five unit cells forming a U in the XY plane: a 3x1 base along
// X with one-cell arms rising at each end, leaving a notch over x in [1, 2].
// Volume 5, surface area 22.
func uShape(t *testing.T, opts ...Option) *Mesh {
	t.Helper()
	m, err := New(voxelFaces([][3]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {0, 1, 0}, {2, 1, 0}}), opts...)
	if err != nil {
		t.Fatalf("New(U): %v", err)
	}
	return m
}

// sortedVolumes returns the piece volumes in increasing order.
func sortedVolumes(pieces []*Mesh) []float64 {
	vols := make([]float64, len(pieces))
	for i, p := range pieces {
		vols[i] = p.Volume()
	}
	sort.Float64s(vols)
	return vols
}
