package dcel

import (
	"testing"

	"github.com/chazu/shatter/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestMergeCoplanar_Cube(t *testing.T) {
	m := unitCube(t, WithMergeCoplanar(true))
	assertHealthy(t, m)
	n, err := m.FaceCount()
	if err != nil {
		t.Fatalf("FaceCount: %v", err)
	}
	if n != 6 {
		t.Errorf("expected 6 faces, got %d", n)
	}
	if m.EdgeCount() != 24 {
		t.Errorf("expected 24 half-edges, got %d", m.EdgeCount())
	}
	if !approx(m.Volume(), 1, 1e-9) {
		t.Errorf("expected volume 1, got %v", m.Volume())
	}
}

func TestMergeCoplanar_Idempotent(t *testing.T) {
	m := unitCube(t, WithMergeCoplanar(true))
	before := m.EdgeCount()
	if err := m.MergeCoplanar(); err != nil {
		t.Fatalf("MergeCoplanar: %v", err)
	}
	if m.EdgeCount() != before {
		t.Errorf("second pass changed edge count from %d to %d", before, m.EdgeCount())
	}
	assertHealthy(t, m)
}

// subdividedCube returns a cube of edge 2 whose +Z face is split into two
// quads by a seam through the midpoints of two opposite edges, leaving
// those midpoints as colinear vertices on the neighbouring faces.
func subdividedCube() []Face {
	p := func(x, y, z float64) v3.Vec { return v3.Vec{X: x, Y: y, Z: z} }
	return []Face{
		// +Z split along x = 0
		{p(-1, -1, 1), p(0, -1, 1), p(0, 1, 1), p(-1, 1, 1)},
		{p(0, -1, 1), p(1, -1, 1), p(1, 1, 1), p(0, 1, 1)},
		// -Z
		{p(-1, -1, -1), p(-1, 1, -1), p(1, 1, -1), p(1, -1, -1)},
		// +X, -X
		{p(1, -1, -1), p(1, 1, -1), p(1, 1, 1), p(1, -1, 1)},
		{p(-1, -1, -1), p(-1, -1, 1), p(-1, 1, 1), p(-1, 1, -1)},
		// +Y with the extra vertex (0,1,1)
		{p(-1, 1, -1), p(-1, 1, 1), p(0, 1, 1), p(1, 1, 1), p(1, 1, -1)},
		// -Y with the extra vertex (0,-1,1)
		{p(-1, -1, -1), p(1, -1, -1), p(1, -1, 1), p(0, -1, 1), p(-1, -1, 1)},
	}
}

func TestRemoveColinear_AfterMerge(t *testing.T) {
	m, err := New(subdividedCube(), WithMergeCoplanar(true), WithRemoveColinear(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	assertHealthy(t, m)
	if got := m.VertexCount(); got != 8 {
		t.Errorf("expected 8 vertices, got %d", got)
	}
	n, _ := m.FaceCount()
	if n != 6 {
		t.Errorf("expected 6 faces, got %d", n)
	}
	if !approx(m.Volume(), 8, 1e-9) {
		t.Errorf("expected volume 8, got %v", m.Volume())
	}
}

func TestRemoveColinear_KeepsJunctions(t *testing.T) {
	// Without merging, the seam vertices have degree three and stay.
	m, err := New(subdividedCube(), WithRemoveColinear(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.VertexCount(); got != 10 {
		t.Errorf("expected 10 vertices, got %d", got)
	}
}

func TestSimplify_Reentrant(t *testing.T) {
	m := unitCube(t)
	m.busy = true
	if err := m.MergeCoplanar(); !IsFault(err, FaultReentrant) {
		t.Errorf("expected reentrant fault, got %v", err)
	}
	if err := m.RemoveColinear(); !IsFault(err, FaultReentrant) {
		t.Errorf("expected reentrant fault, got %v", err)
	}
}

func TestMergeCoplanar_KeepsFacesConvex(t *testing.T) {
	// The U's bottom and top are non-convex; merging must stop at convex
	// pieces so the fan triangulation still covers exactly the surface.
	m := uShape(t, WithMergeCoplanar(true), WithRemoveColinear(true))
	assertHealthy(t, m)

	loops, err := m.loops("test")
	if err != nil {
		t.Fatalf("loops: %v", err)
	}
	for _, l := range loops {
		var pts []v3.Vec
		for _, e := range l {
			pts = append(pts, m.verts[m.edges[e].Start])
		}
		n := geom.Normal(pts)
		for i, p := range pts {
			in := p.Sub(pts[(i+len(pts)-1)%len(pts)])
			out := pts[(i+1)%len(pts)].Sub(p)
			if in.Cross(out).Dot(n) < -1e-9 {
				t.Fatalf("face %v has a reflex corner at %v", pts, p)
			}
		}
	}

	b, err := m.Flatten()
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if a := bufferArea(b); !approx(a, 22, 1e-4) {
		t.Errorf("flattened area = %v, want 22", a)
	}
	if !approx(m.Volume(), 5, 1e-9) {
		t.Errorf("volume = %v, want 5", m.Volume())
	}

	plain := uShape(t)
	pn, _ := plain.FaceCount()
	mn, _ := m.FaceCount()
	if mn >= pn {
		t.Errorf("merge should still reduce faces: %d before, %d after", pn, mn)
	}
}
