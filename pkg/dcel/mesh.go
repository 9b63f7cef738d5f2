// Package dcel implements a half-edge (doubly connected edge list) mesh that
// can be cut by a plane and broken into its disjoint pieces.
//
// A Mesh is built from closed, consistently wound polygon soup with New.
// Cut inserts the cross-section of a plane into the topology and separates
// the two sides; Break and Split recover the independent pieces. Every
// mesh carries its mass properties, computed once at construction.
//
// Edges live in an arena addressed by EdgeID. All next/prev writes go
// through a single linking primitive that keeps both directions in sync, and
// every traversal is bounded so corrupted topology surfaces as an error
// instead of a hang. A Mesh is not safe for concurrent use.
package dcel

import (
	"math"

	"github.com/chazu/shatter/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultTraversalLimit bounds every single walk along next pointers.
const DefaultTraversalLimit = 10000

// Face is an ordered, counter-clockwise list of vertex positions.
type Face []v3.Vec

type options struct {
	eps            float64
	limit          int
	mergeCoplanar  bool
	removeColinear bool
	recenter       bool
	offset         v3.Vec
}

func defaultOptions() options {
	return options{
		eps:      geom.DefaultEpsilon,
		limit:    DefaultTraversalLimit,
		recenter: true,
	}
}

// Option configures mesh construction.
type Option func(*options)

// WithEpsilon sets the distance under which two points are the same vertex
// and a point lies on a plane.
func WithEpsilon(eps float64) Option {
	return func(o *options) {
		if eps > 0 {
			o.eps = eps
		}
	}
}

// WithTraversalLimit bounds the length of any single loop walk.
func WithTraversalLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// WithMergeCoplanar dissolves edges between coplanar adjacent faces.
func WithMergeCoplanar(on bool) Option {
	return func(o *options) { o.mergeCoplanar = on }
}

// WithRemoveColinear removes vertices that sit in the middle of a straight
// run of two edges.
func WithRemoveColinear(on bool) Option {
	return func(o *options) { o.removeColinear = on }
}

// WithRecenter controls whether vertices are shifted so that their average
// sits at the local origin. On by default.
func WithRecenter(on bool) Option {
	return func(o *options) { o.recenter = on }
}

// WithOffset declares that input positions are relative to offset.
func WithOffset(offset v3.Vec) Option {
	return func(o *options) { o.offset = offset }
}

type cell struct{ x, y, z int64 }

// Mesh is a closed half-edge mesh. Vertex positions are stored relative to
// Offset().
type Mesh struct {
	opts   options
	offset v3.Vec

	verts []v3.Vec
	grid  map[cell][]int
	out   [][]EdgeID
	in    [][]EdgeID

	edges []HalfEdge
	index map[edgeKey]EdgeID

	mass MassProperties
	cut  bool
	busy bool
}

// New builds a mesh from faces. Each face must have at least three points
// wound counter-clockwise seen from outside, and together the faces must
// close a manifold surface: every directed edge appears once and has a twin.
func New(faces []Face, opts ...Option) (*Mesh, error) {
	const op = "new mesh"
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	m := &Mesh{
		opts:   o,
		offset: o.offset,
		grid:   make(map[cell][]int),
		index:  make(map[edgeKey]EdgeID),
	}
	if len(faces) == 0 {
		return nil, fault(op, FaultMalformedInput, NoEdge, -1, "no faces")
	}

	loops := make([][]int, 0, len(faces))
	for fi, f := range faces {
		idx := make([]int, 0, len(f))
		for _, p := range f {
			if !finite(p) {
				return nil, fault(op, FaultMalformedInput, NoEdge, -1, "face %d has non-finite point %v", fi, p)
			}
			vi := m.addVertex(p)
			if len(idx) > 0 && idx[len(idx)-1] == vi {
				continue
			}
			idx = append(idx, vi)
		}
		if len(idx) > 1 && idx[0] == idx[len(idx)-1] {
			idx = idx[:len(idx)-1]
		}
		if len(idx) < 3 {
			return nil, fault(op, FaultMalformedInput, NoEdge, -1, "face %d has %d distinct points", fi, len(idx))
		}
		loops = append(loops, idx)
	}

	if o.recenter {
		m.recenter()
	}

	for _, idx := range loops {
		if err := m.addFace(op, idx); err != nil {
			return nil, err
		}
	}

	if o.mergeCoplanar {
		if err := m.MergeCoplanar(); err != nil {
			return nil, err
		}
	}
	if o.removeColinear {
		if err := m.RemoveColinear(); err != nil {
			return nil, err
		}
	}
	if err := m.verify(op, true); err != nil {
		return nil, err
	}

	mass, err := m.computeMass()
	if err != nil {
		return nil, err
	}
	m.mass = mass
	return m, nil
}

func finite(p v3.Vec) bool {
	for _, c := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func (m *Mesh) addFace(op string, idx []int) error {
	ids := make([]EdgeID, 0, len(idx)+1)
	for i, u := range idx {
		e, err := m.addEdge(op, u, idx[(i+1)%len(idx)])
		if err != nil {
			return err
		}
		ids = append(ids, e)
	}
	ids = append(ids, ids[0])
	return m.chain(op, ids...)
}

// recenter moves every vertex so their average is the local origin and
// folds that average into the offset.
func (m *Mesh) recenter() {
	avg := geom.Average(m.verts)
	m.offset = m.offset.Add(avg)
	m.grid = make(map[cell][]int, len(m.verts))
	for i, v := range m.verts {
		m.verts[i] = v.Sub(avg)
		c := m.cellOf(m.verts[i])
		m.grid[c] = append(m.grid[c], i)
	}
}

func (m *Mesh) cellOf(p v3.Vec) cell {
	s := m.opts.eps
	return cell{int64(math.Floor(p.X / s)), int64(math.Floor(p.Y / s)), int64(math.Floor(p.Z / s))}
}

// findVertex returns a vertex within eps of p, skipping skip.
func (m *Mesh) findVertex(p v3.Vec, skip int) (int, bool) {
	c := m.cellOf(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, i := range m.grid[cell{c.x + dx, c.y + dy, c.z + dz}] {
					if i != skip && m.verts[i].Sub(p).Length() <= m.opts.eps {
						return i, true
					}
				}
			}
		}
	}
	return -1, false
}

// addVertex returns the index of a vertex at p, reusing one within eps.
func (m *Mesh) addVertex(p v3.Vec) int {
	if i, ok := m.findVertex(p, -1); ok {
		return i
	}
	return m.appendVertex(p)
}

// appendVertex always creates a new vertex, even if one already sits at p.
func (m *Mesh) appendVertex(p v3.Vec) int {
	i := len(m.verts)
	m.verts = append(m.verts, p)
	m.out = append(m.out, nil)
	m.in = append(m.in, nil)
	c := m.cellOf(p)
	m.grid[c] = append(m.grid[c], i)
	return i
}

func (m *Mesh) referenced(v int) bool {
	return len(m.out[v]) > 0 || len(m.in[v]) > 0
}

// begin guards against a mutation starting while another is in progress,
// for example from a callback that reaches back into the mesh.
func (m *Mesh) begin(op string) (func(), error) {
	if m.busy {
		return nil, fault(op, FaultReentrant, NoEdge, -1, "")
	}
	m.busy = true
	return func() { m.busy = false }, nil
}

// Offset is the world position of the local origin.
func (m *Mesh) Offset() v3.Vec { return m.offset }

// Epsilon is the tolerance the mesh was built with.
func (m *Mesh) Epsilon() float64 { return m.opts.eps }

// Mass returns the mass properties computed at construction, with the
// center of mass in world coordinates.
func (m *Mesh) Mass() MassProperties {
	mp := m.mass
	mp.CenterOfMass = mp.CenterOfMass.Add(m.offset)
	return mp
}

// Volume is the enclosed volume at construction time.
func (m *Mesh) Volume() float64 { return m.mass.Volume }

// CenterOfMass is the world-space centroid at construction time.
func (m *Mesh) CenterOfMass() v3.Vec { return m.mass.CenterOfMass.Add(m.offset) }

// IsCut reports whether Cut changed the mesh since it was built.
func (m *Mesh) IsCut() bool { return m.cut }

// Vertex returns the local position of vertex i.
func (m *Mesh) Vertex(i int) v3.Vec { return m.verts[i] }

// VertexCount is the number of vertices referenced by at least one edge.
func (m *Mesh) VertexCount() int {
	n := 0
	for v := range m.verts {
		if m.referenced(v) {
			n++
		}
	}
	return n
}

// Vertices returns the local positions of all referenced vertices.
func (m *Mesh) Vertices() []v3.Vec {
	vs := make([]v3.Vec, 0, len(m.verts))
	for v, p := range m.verts {
		if m.referenced(v) {
			vs = append(vs, p)
		}
	}
	return vs
}

// EdgeCount is the number of live half-edges.
func (m *Mesh) EdgeCount() int { return len(m.index) }

// Edge returns a copy of the half-edge e.
func (m *Mesh) Edge(e EdgeID) (HalfEdge, bool) {
	if !m.live(e) {
		return HalfEdge{}, false
	}
	return m.edges[e], true
}

// Find returns the half-edge u -> v.
func (m *Mesh) Find(u, v int) (EdgeID, bool) {
	e, ok := m.index[edgeKey{u, v}]
	return e, ok
}

// EdgeIDs returns the live half-edges in creation order.
func (m *Mesh) EdgeIDs() []EdgeID {
	ids := make([]EdgeID, 0, len(m.index))
	for i := range m.edges {
		if !m.edges[i].dead {
			ids = append(ids, EdgeID(i))
		}
	}
	return ids
}

// Outgoing returns the half-edges starting at vertex v in creation order.
func (m *Mesh) Outgoing(v int) []EdgeID {
	return append([]EdgeID(nil), m.out[v]...)
}

// Incoming returns the half-edges ending at vertex v in creation order.
func (m *Mesh) Incoming(v int) []EdgeID {
	return append([]EdgeID(nil), m.in[v]...)
}

// FaceCount is the number of face loops.
func (m *Mesh) FaceCount() (int, error) {
	loops, err := m.loops("face count")
	return len(loops), err
}

// Faces returns every face loop as world-space positions.
func (m *Mesh) Faces() ([]Face, error) {
	loops, err := m.loops("faces")
	if err != nil {
		return nil, err
	}
	return m.facesOf(loops), nil
}

func (m *Mesh) facesOf(loops [][]EdgeID) []Face {
	faces := make([]Face, 0, len(loops))
	for _, l := range loops {
		f := make(Face, len(l))
		for i, e := range l {
			f[i] = m.verts[m.edges[e].Start].Add(m.offset)
		}
		faces = append(faces, f)
	}
	return faces
}
