package dcel

// EdgeID is a handle into a mesh's half-edge arena. Handles are never reused
// within one mesh, so a handle to a deleted edge stays invalid.
type EdgeID int

// NoEdge is the nil handle.
const NoEdge EdgeID = -1

// HalfEdge is a directed edge Start -> End on the boundary of exactly one
// face. Next and Prev walk that face counter-clockwise; Twin is the edge
// End -> Start on the adjacent face.
type HalfEdge struct {
	Start, End int
	Next       EdgeID
	Prev       EdgeID
	Twin       EdgeID

	dead bool
}

type edgeKey struct{ start, end int }

func (m *Mesh) live(e EdgeID) bool {
	return e >= 0 && int(e) < len(m.edges) && !m.edges[e].dead
}

// addEdge appends the edge u -> v, pairing it with v -> u when present.
func (m *Mesh) addEdge(op string, u, v int) (EdgeID, error) {
	if u == v {
		return NoEdge, fault(op, FaultDegenerateEdge, NoEdge, u, "edge %d -> %d", u, v)
	}
	if old, ok := m.index[edgeKey{u, v}]; ok {
		return NoEdge, fault(op, FaultDuplicateEdge, old, u, "edge %d -> %d already exists", u, v)
	}
	id := EdgeID(len(m.edges))
	he := HalfEdge{Start: u, End: v, Next: NoEdge, Prev: NoEdge, Twin: NoEdge}
	if t, ok := m.index[edgeKey{v, u}]; ok {
		he.Twin = t
		m.edges[t].Twin = id
	}
	m.edges = append(m.edges, he)
	m.index[edgeKey{u, v}] = id
	m.out[u] = append(m.out[u], id)
	m.in[v] = append(m.in[v], id)
	return id, nil
}

// link makes next follow e. It is the only place next/prev pointers are
// written. Stale links on either side are severed first so that no edge is
// left pointing at a neighbour that no longer points back.
func (m *Mesh) link(op string, e, next EdgeID) error {
	if !m.live(e) || !m.live(next) {
		return fault(op, FaultInvariant, e, -1, "link %d -> %d references a deleted edge", e, next)
	}
	he, hn := &m.edges[e], &m.edges[next]
	if he.Twin != NoEdge && he.Twin == next {
		return fault(op, FaultTwinAsNext, e, he.End, "twin %d", next)
	}
	if he.End != hn.Start {
		return fault(op, FaultDiscontinuous, e, he.End, "next %d starts at %d", next, hn.Start)
	}
	if hn.Next == e {
		return fault(op, FaultTwoEdgeLoop, e, he.End, "with %d", next)
	}
	if old := he.Next; old != NoEdge && old != next && m.edges[old].Prev == e {
		m.edges[old].Prev = NoEdge
	}
	if old := hn.Prev; old != NoEdge && old != e && m.edges[old].Next == next {
		m.edges[old].Next = NoEdge
	}
	he.Next = next
	hn.Prev = e
	return nil
}

// chain links consecutive edges: ids[0] -> ids[1] -> ... -> ids[n-1].
func (m *Mesh) chain(op string, ids ...EdgeID) error {
	for i := 0; i+1 < len(ids); i++ {
		if err := m.link(op, ids[i], ids[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// deleteEdges removes a set of edges. Every edge outside the set that still
// links to a member is a fault; callers re-chain around edges first.
func (m *Mesh) deleteEdges(op string, ids ...EdgeID) error {
	set := make(map[EdgeID]bool, len(ids))
	for _, e := range ids {
		if !m.live(e) {
			return fault(op, FaultInvariant, e, -1, "delete of missing edge")
		}
		set[e] = true
	}
	for _, e := range ids {
		he := m.edges[e]
		if p := he.Prev; p != NoEdge && !set[p] && m.edges[p].Next == e {
			return fault(op, FaultOrphanedNeighbour, e, he.Start, "prev %d still links here", p)
		}
		if n := he.Next; n != NoEdge && !set[n] && m.edges[n].Prev == e {
			return fault(op, FaultOrphanedNeighbour, e, he.End, "next %d still links here", n)
		}
	}
	for _, e := range ids {
		he := &m.edges[e]
		if t := he.Twin; t != NoEdge && !set[t] && m.edges[t].Twin == e {
			m.edges[t].Twin = NoEdge
		}
		delete(m.index, edgeKey{he.Start, he.End})
		m.out[he.Start] = removeEdge(m.out[he.Start], e)
		m.in[he.End] = removeEdge(m.in[he.End], e)
		he.Next, he.Prev, he.Twin = NoEdge, NoEdge, NoEdge
		he.dead = true
	}
	return nil
}

// removeEdge deletes e from s keeping the order of the remaining handles.
func removeEdge(s []EdgeID, e EdgeID) []EdgeID {
	for i, x := range s {
		if x == e {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
