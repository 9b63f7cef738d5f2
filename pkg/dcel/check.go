package dcel

import "fmt"

// ViolationKind classifies a broken structural invariant.
type ViolationKind int

const (
	MissingNext ViolationKind = iota
	MissingPrev
	MissingTwin
	NextPrevMismatch
	PrevNextMismatch
	TwinMismatch
	Discontinuous
	ShortLoop
	OpenLoop
	IndexMismatch
	AdjacencyMismatch
	DuplicateVertex
)

var violationNames = map[ViolationKind]string{
	MissingNext:       "missing next",
	MissingPrev:       "missing prev",
	MissingTwin:       "missing twin",
	NextPrevMismatch:  "next.prev is not the edge",
	PrevNextMismatch:  "prev.next is not the edge",
	TwinMismatch:      "twin does not mirror the edge",
	Discontinuous:     "next does not start at end",
	ShortLoop:         "face loop shorter than 3",
	OpenLoop:          "face loop does not close",
	IndexMismatch:     "edge index out of sync",
	AdjacencyMismatch: "vertex adjacency out of sync",
	DuplicateVertex:   "two vertices share a position",
}

func (k ViolationKind) String() string {
	if s, ok := violationNames[k]; ok {
		return s
	}
	return fmt.Sprintf("violation(%d)", int(k))
}

// Violation is a single broken invariant found by Check.
type Violation struct {
	Kind   ViolationKind
	Edge   EdgeID
	Vertex int
	Detail string
}

func (v Violation) Error() string {
	s := v.Kind.String()
	if v.Edge != NoEdge {
		s += fmt.Sprintf(" at edge %d", v.Edge)
	}
	if v.Vertex >= 0 {
		s += fmt.Sprintf(" at vertex %d", v.Vertex)
	}
	if v.Detail != "" {
		s += ": " + v.Detail
	}
	return s
}

// Check returns every structural invariant the mesh currently violates. A
// healthy closed mesh returns nil. Once a mesh has been cut the two sides
// hold separate vertices at the same positions, so duplicates are only
// reported for meshes that have not been cut.
func (m *Mesh) Check() []Violation {
	return m.check(true, !m.cut)
}

// verify runs the invariant check and converts violations into an error.
func (m *Mesh) verify(op string, duplicates bool) error {
	vs := m.check(true, duplicates)
	if len(vs) == 0 {
		return nil
	}
	return &TopologyError{Op: op, Kind: FaultInvariant, Edge: vs[0].Edge, Vertex: vs[0].Vertex, Violations: vs}
}

func (m *Mesh) check(requireTwins, duplicates bool) []Violation {
	var vs []Violation
	add := func(kind ViolationKind, e EdgeID, v int, format string, args ...any) {
		vs = append(vs, Violation{Kind: kind, Edge: e, Vertex: v, Detail: fmt.Sprintf(format, args...)})
	}

	live := 0
	for i := range m.edges {
		he := m.edges[i]
		if he.dead {
			continue
		}
		live++
		e := EdgeID(i)
		switch {
		case he.Next == NoEdge || !m.live(he.Next):
			add(MissingNext, e, -1, "")
		case m.edges[he.Next].Prev != e:
			add(NextPrevMismatch, e, -1, "next %d has prev %d", he.Next, m.edges[he.Next].Prev)
		case m.edges[he.Next].Start != he.End:
			add(Discontinuous, e, he.End, "next %d starts at %d", he.Next, m.edges[he.Next].Start)
		}
		switch {
		case he.Prev == NoEdge || !m.live(he.Prev):
			add(MissingPrev, e, -1, "")
		case m.edges[he.Prev].Next != e:
			add(PrevNextMismatch, e, -1, "prev %d has next %d", he.Prev, m.edges[he.Prev].Next)
		}
		switch {
		case he.Twin == NoEdge || !m.live(he.Twin):
			if requireTwins {
				add(MissingTwin, e, -1, "%d -> %d", he.Start, he.End)
			}
		case m.edges[he.Twin].Twin != e || m.edges[he.Twin].Start != he.End || m.edges[he.Twin].End != he.Start:
			add(TwinMismatch, e, -1, "twin %d", he.Twin)
		}
		if got, ok := m.index[edgeKey{he.Start, he.End}]; !ok || got != e {
			add(IndexMismatch, e, -1, "index holds %d", got)
		}
		if !containsEdge(m.out[he.Start], e) || !containsEdge(m.in[he.End], e) {
			add(AdjacencyMismatch, e, he.Start, "")
		}
	}
	if live != len(m.index) {
		add(IndexMismatch, NoEdge, -1, "%d live edges, %d indexed", live, len(m.index))
	}

	if len(vs) == 0 {
		vs = append(vs, m.checkLoops()...)
	}
	if duplicates {
		vs = append(vs, m.checkDuplicates()...)
	}
	return vs
}

// checkLoops is only meaningful once next/prev are consistent.
func (m *Mesh) checkLoops() []Violation {
	var vs []Violation
	seen := make([]bool, len(m.edges))
	for i := range m.edges {
		if seen[i] || m.edges[i].dead {
			continue
		}
		l, err := m.loop("check", EdgeID(i))
		if err != nil {
			vs = append(vs, Violation{Kind: OpenLoop, Edge: EdgeID(i), Vertex: -1, Detail: err.Error()})
			seen[i] = true
			continue
		}
		for _, e := range l {
			seen[e] = true
		}
		if len(l) < 3 {
			vs = append(vs, Violation{Kind: ShortLoop, Edge: EdgeID(i), Vertex: -1, Detail: fmt.Sprintf("%d edges", len(l))})
		}
	}
	return vs
}

func (m *Mesh) checkDuplicates() []Violation {
	var vs []Violation
	for v, p := range m.verts {
		if !m.referenced(v) {
			continue
		}
		c := m.cellOf(p)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, w := range m.grid[cell{c.x + dx, c.y + dy, c.z + dz}] {
						if w > v && m.referenced(w) && m.verts[w].Sub(p).Length() <= m.opts.eps {
							vs = append(vs, Violation{Kind: DuplicateVertex, Edge: NoEdge, Vertex: v, Detail: fmt.Sprintf("and %d", w)})
						}
					}
				}
			}
		}
	}
	return vs
}

func containsEdge(s []EdgeID, e EdgeID) bool {
	for _, x := range s {
		if x == e {
			return true
		}
	}
	return false
}
