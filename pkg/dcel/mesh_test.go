package dcel

import (
	"errors"
	"testing"

	"github.com/chazu/shatter/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNew_Cube(t *testing.T) {
	m := unitCube(t)
	assertHealthy(t, m)

	if got := m.VertexCount(); got != 8 {
		t.Errorf("expected 8 vertices, got %d", got)
	}
	if got := m.EdgeCount(); got != 36 {
		t.Errorf("expected 36 half-edges, got %d", got)
	}
	n, err := m.FaceCount()
	if err != nil {
		t.Fatalf("FaceCount: %v", err)
	}
	if n != 12 {
		t.Errorf("expected 12 faces, got %d", n)
	}
}

func TestNew_TwinsPaired(t *testing.T) {
	m := unitCube(t)
	for _, e := range m.EdgeIDs() {
		he, _ := m.Edge(e)
		tw, ok := m.Edge(he.Twin)
		if !ok {
			t.Fatalf("edge %d has no twin", e)
		}
		if tw.Start != he.End || tw.End != he.Start || tw.Twin != e {
			t.Errorf("edge %d twin %d does not mirror it", e, he.Twin)
		}
	}
}

func TestNew_Recenter(t *testing.T) {
	c := v3.Vec{X: 10, Y: -2, Z: 3}
	m, err := New(cubeTriangles(c, 1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !geom.Near(m.Offset(), c, 1e-9) {
		t.Errorf("expected offset %v, got %v", c, m.Offset())
	}
	if avg := geom.Average(m.Vertices()); !geom.Near(avg, v3.Vec{}, 1e-9) {
		t.Errorf("expected local vertices centred on origin, got %v", avg)
	}
	if !geom.Near(m.CenterOfMass(), c, 1e-9) {
		t.Errorf("expected world center of mass %v, got %v", c, m.CenterOfMass())
	}
}

func TestNew_NoRecenterWithOffset(t *testing.T) {
	off := v3.Vec{Y: 5}
	m, err := New(cubeTriangles(v3.Vec{X: 1}, 0.5), WithRecenter(false), WithOffset(off))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Offset() != off {
		t.Errorf("expected offset %v, got %v", off, m.Offset())
	}
	if want := (v3.Vec{X: 1, Y: 5}); !geom.Near(m.CenterOfMass(), want, 1e-9) {
		t.Errorf("expected center of mass %v, got %v", want, m.CenterOfMass())
	}
}

func TestNew_DedupesWithinEpsilon(t *testing.T) {
	faces := cubeTriangles(v3.Vec{}, 0.5)
	// Nudge one copy of a corner by less than the tolerance.
	faces[0][0] = faces[0][0].Add(v3.Vec{X: 1e-8})
	m, err := New(faces)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.VertexCount(); got != 8 {
		t.Errorf("expected 8 vertices, got %d", got)
	}
}

func TestNew_Errors(t *testing.T) {
	cube := cubeTriangles(v3.Vec{}, 0.5)
	tests := []struct {
		name  string
		faces []Face
		kind  FaultKind
	}{
		{"no faces", nil, FaultMalformedInput},
		{"two points", []Face{{{}, {X: 1}}}, FaultMalformedInput},
		{"collapsed points", []Face{{{}, {X: 1e-9}, {X: 1}}}, FaultMalformedInput},
		{"duplicate face", append(append([]Face{}, cube...), cube[0]), FaultDuplicateEdge},
		{"open surface", cube[1:], FaultInvariant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.faces)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrTopology) {
				t.Errorf("expected ErrTopology, got %v", err)
			}
			if !IsFault(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestNew_OpenSurfaceReportsMissingTwins(t *testing.T) {
	_, err := New(cubeTriangles(v3.Vec{}, 0.5)[1:])
	var te *TopologyError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TopologyError, got %v", err)
	}
	found := false
	for _, v := range te.Violations {
		if v.Kind == MissingTwin {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a missing twin violation, got %v", te.Violations)
	}
}

// ---------------------------------------------------------------------------
// Flatten
// ---------------------------------------------------------------------------

func TestFlatten_Cube(t *testing.T) {
	m := unitCube(t)
	b, err := m.Flatten()
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if got := len(b.Positions) / 3; got != 8 {
		t.Errorf("expected 8 positions, got %d", got)
	}
	if got := len(b.Indices) / 3; got != 12 {
		t.Errorf("expected 12 triangles, got %d", got)
	}
	if a := bufferArea(b); !approx(a, 6, 1e-6) {
		t.Errorf("expected surface area 6, got %v", a)
	}
	for i := 0; i < len(b.Positions); i++ {
		if c := b.Positions[i]; c != 0.5 && c != -0.5 {
			t.Errorf("position component %v is not a cube corner coordinate", c)
		}
	}
}

func TestFlatten_QuadsFanTriangulated(t *testing.T) {
	m, err := New(cubeQuads(v3.Vec{}, 1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := m.Flatten()
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if got := len(b.Indices) / 3; got != 12 {
		t.Errorf("expected 12 triangles, got %d", got)
	}
	if a := bufferArea(b); !approx(a, 24, 1e-5) {
		t.Errorf("expected surface area 24, got %v", a)
	}
}

// ---------------------------------------------------------------------------
// Mass properties
// ---------------------------------------------------------------------------

func TestMass_Cube(t *testing.T) {
	m := unitCube(t)
	if !approx(m.Volume(), 1, 1e-9) {
		t.Errorf("expected volume 1, got %v", m.Volume())
	}
	if !geom.Near(m.CenterOfMass(), v3.Vec{}, 1e-9) {
		t.Errorf("expected center of mass at origin, got %v", m.CenterOfMass())
	}
	if m.Mass().Degenerate {
		t.Error("cube must not be degenerate")
	}
}

func TestMass_Box(t *testing.T) {
	// A 2 x 1 x 4 box with its minimum corner at the origin.
	var faces []Face
	for _, q := range cubeQuads(v3.Vec{}, 0.5) {
		f := make(Face, len(q))
		for i, p := range q {
			f[i] = v3.Vec{X: (p.X + 0.5) * 2, Y: p.Y + 0.5, Z: (p.Z + 0.5) * 4}
		}
		faces = append(faces, f)
	}
	m, err := New(faces)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !approx(m.Volume(), 8, 1e-9) {
		t.Errorf("expected volume 8, got %v", m.Volume())
	}
	if want := (v3.Vec{X: 1, Y: 0.5, Z: 2}); !geom.Near(m.CenterOfMass(), want, 1e-9) {
		t.Errorf("expected center %v, got %v", want, m.CenterOfMass())
	}
}

func TestMass_Degenerate(t *testing.T) {
	// Two triangles back to back enclose nothing.
	a, b, c := v3.Vec{}, v3.Vec{X: 1}, v3.Vec{Y: 1}
	m, err := New([]Face{{a, b, c}, {a, c, b}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mp := m.Mass()
	if !mp.Degenerate {
		t.Errorf("expected degenerate mass, got volume %v", mp.Volume)
	}
	if want := geom.Average([]v3.Vec{a, b, c}); !geom.Near(mp.CenterOfMass, want, 1e-9) {
		t.Errorf("expected vertex average %v, got %v", want, mp.CenterOfMass)
	}
}

func TestHeron(t *testing.T) {
	if a := heron(3, 4, 5); !approx(a, 6, 1e-12) {
		t.Errorf("heron(3,4,5) = %v, want 6", a)
	}
	if a := heron(1, 2, 3); a != 0 {
		t.Errorf("flat triangle area = %v, want 0", a)
	}
}

func TestMass_SmallCubeIsNotDegenerate(t *testing.T) {
	// Side 0.009: volume 7.29e-7 is below eps but the cube is far thicker.
	c := v3.Vec{X: 0.02, Y: -0.01, Z: 0.005}
	m, err := New(cubeQuads(c, 0.0045))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mp := m.Mass()
	if mp.Degenerate {
		t.Fatalf("small cube flagged degenerate, volume %v", mp.Volume)
	}
	if !approx(mp.Volume, 0.009*0.009*0.009, 1e-15) {
		t.Errorf("volume = %v, want %v", mp.Volume, 0.009*0.009*0.009)
	}
	if !geom.Near(m.CenterOfMass(), c, 1e-9) {
		t.Errorf("center = %v, want %v", m.CenterOfMass(), c)
	}
}
