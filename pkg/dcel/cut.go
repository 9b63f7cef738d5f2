package dcel

import (
	"fmt"

	"github.com/chazu/shatter/pkg/geom"
)

// Cut slices the mesh with plane p, given in world coordinates. Afterwards
// the cross-section is capped on both sides and the two sides no longer
// share any vertex or edge, so Break returns them as separate pieces.
//
// Cut does nothing and returns false when the plane leaves less than
// marginThreshold of the mesh on either side, or when it does not pass
// through the interior at all.
//
// A plane that contains a whole face of the mesh while still leaving material
// on both sides (the floor of a notch in a non-convex solid) is rejected with
// FaultFaceOnPlane before anything is modified. Any other error leaves the
// mesh unusable.
func (m *Mesh) Cut(p geom.Plane, marginThreshold float64) (bool, error) {
	const op = "cut"
	done, err := m.begin(op)
	if err != nil {
		return false, err
	}
	defer done()
	if m.cut {
		return false, fmt.Errorf("%s: %w", op, ErrSplitPending)
	}

	local := p.Translate(m.offset)
	local.Eps = m.opts.eps
	margin := local.Margin(m.Vertices())
	if margin < marginThreshold || margin <= local.Eps {
		return false, nil
	}
	if err := m.rejectFaceOnPlane(op, local); err != nil {
		return false, err
	}

	if err := m.insertPoints(local); err != nil {
		return false, err
	}
	if err := m.insertLoops(local); err != nil {
		return false, err
	}
	if err := m.cutLoops(local); err != nil {
		return false, err
	}
	m.cut = true
	return true, nil
}

// rejectFaceOnPlane fails when every vertex of some face lies on p.
func (m *Mesh) rejectFaceOnPlane(op string, p geom.Plane) error {
	loops, err := m.loops(op)
	if err != nil {
		return err
	}
	for _, l := range loops {
		flat := true
		for _, e := range l {
			if !p.OnPlane(m.verts[m.edges[e].Start]) {
				flat = false
				break
			}
		}
		if flat {
			return fault(op, FaultFaceOnPlane, l[0], m.edges[l[0]].Start, "face of %d edges", len(l))
		}
	}
	return nil
}

// insertPoints splits every edge that crosses the plane at the crossing,
// so each crossed face gets exactly two vertices on the plane.
func (m *Mesh) insertPoints(p geom.Plane) error {
	const op = "insert points"
	var crossing []EdgeID
	for i, he := range m.edges {
		if !he.dead && p.Cuts(m.verts[he.Start], m.verts[he.End]) {
			crossing = append(crossing, EdgeID(i))
		}
	}
	for _, e := range crossing {
		he := m.edges[e]
		x, ok := p.Intersection(m.verts[he.Start], m.verts[he.End])
		if !ok {
			continue
		}
		xi := m.addVertex(x)
		e1, err := m.addEdge(op, he.Start, xi)
		if err != nil {
			return err
		}
		e2, err := m.addEdge(op, xi, he.End)
		if err != nil {
			return err
		}
		if err := m.chain(op, he.Prev, e1, e2, he.Next); err != nil {
			return err
		}
		if err := m.deleteEdges(op, e); err != nil {
			return err
		}
	}
	return m.verify(op, true)
}

func (m *Mesh) onPlane(p geom.Plane) []int {
	var vs []int
	for v, pos := range m.verts {
		if m.referenced(v) && p.OnPlane(pos) {
			vs = append(vs, v)
		}
	}
	return vs
}

// insertLoops connects every pair of on-plane vertices that bound a common
// face, so the cross-section becomes closed loops of on-plane edges.
func (m *Mesh) insertLoops(p geom.Plane) error {
	const op = "insert loops"
	remaining := m.onPlane(p)
	if len(remaining) < 3 {
		return nil
	}
	pending := make(map[int]bool, len(remaining))
	for _, v := range remaining {
		pending[v] = true
	}

	var loops [][]int
	for len(remaining) > 0 {
		var loop []int
		v := remaining[0]
		for {
			loop = append(loop, v)
			delete(pending, v)
			remaining = removeInt(remaining, v)
			if len(loop) > m.opts.limit {
				return fault(op, FaultTraversalExceeded, NoEdge, v, "section loop")
			}
			next, ok, err := m.nextOnPlane(op, v, pending)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			v = next
		}
		if len(loop) < 3 {
			return fault(op, FaultShortLoop, NoEdge, loop[0], "section loop of %d vertices", len(loop))
		}
		loops = append(loops, loop)
	}

	for _, loop := range loops {
		for i, u := range loop {
			v := loop[(i+1)%len(loop)]
			if err := m.connect(op, u, v); err != nil {
				return err
			}
		}
	}
	return m.verify(op, true)
}

// nextOnPlane scans the faces around v for a pending on-plane vertex. Within
// a face the last one in loop order wins, and across faces the last face
// with a candidate wins.
func (m *Mesh) nextOnPlane(op string, v int, pending map[int]bool) (int, bool, error) {
	next, found := -1, false
	for _, e := range m.out[v] {
		l, err := m.loop(op, e)
		if err != nil {
			return -1, false, err
		}
		for _, x := range l {
			if s := m.edges[x].Start; pending[s] {
				next, found = s, true
			}
		}
	}
	return next, found, nil
}

// connect splits the face holding both u and v with the pair u->v / v->u.
func (m *Mesh) connect(op string, u, v int) error {
	var face []EdgeID
	for _, e := range m.out[u] {
		l, err := m.loop(op, e)
		if err != nil {
			return err
		}
		for _, x := range l {
			if m.edges[x].Start == v {
				face = l
				break
			}
		}
	}
	if face == nil {
		return fault(op, FaultMissingFace, NoEdge, u, "vertices %d and %d", u, v)
	}

	last := func(match func(HalfEdge) bool) EdgeID {
		found := NoEdge
		for _, x := range face {
			if match(m.edges[x]) {
				found = x
			}
		}
		return found
	}
	startIn := last(func(h HalfEdge) bool { return h.End == u })
	startOut := last(func(h HalfEdge) bool { return h.Start == u })
	endIn := last(func(h HalfEdge) bool { return h.End == v })
	endOut := last(func(h HalfEdge) bool { return h.Start == v })

	if _, ok := m.index[edgeKey{u, v}]; !ok {
		uv, err := m.addEdge(op, u, v)
		if err != nil {
			return err
		}
		if err := m.chain(op, startIn, uv, endOut); err != nil {
			return err
		}
	}
	if _, ok := m.index[edgeKey{v, u}]; !ok {
		vu, err := m.addEdge(op, v, u)
		if err != nil {
			return err
		}
		if err := m.chain(op, endIn, vu, startOut); err != nil {
			return err
		}
	}
	return nil
}

// cutLoops gives each directed cross-section loop its own copy of the loop
// vertices, moves the faces on that loop's side onto the copies and caps the
// hole with a new face.
func (m *Mesh) cutLoops(p geom.Plane) error {
	const op = "cut loops"
	var edges []EdgeID
	for i, he := range m.edges {
		if !he.dead && p.OnPlane(m.verts[he.Start]) && p.OnPlane(m.verts[he.End]) {
			edges = append(edges, EdgeID(i))
		}
	}
	if len(edges) < 3 {
		return nil
	}

	var chains [][]EdgeID
	for len(edges) > 0 {
		cur := edges[0]
		edges = edges[1:]
		chain := []EdgeID{cur}
		for {
			he := m.edges[cur]
			next := NoEdge
			for _, x := range edges {
				if hx := m.edges[x]; hx.Start == he.End && hx.End != he.Start {
					next = x
				}
			}
			if next == NoEdge {
				break
			}
			if len(chain) >= m.opts.limit {
				return fault(op, FaultTraversalExceeded, cur, -1, "section chain")
			}
			edges = removeEdge(edges, next)
			chain = append(chain, next)
			cur = next
		}
		if len(chain) < 3 {
			return fault(op, FaultShortLoop, chain[0], -1, "chain of %d edges", len(chain))
		}
		if m.edges[chain[len(chain)-1]].End != m.edges[chain[0]].Start {
			return fault(op, FaultOpenChain, chain[0], m.edges[chain[0]].Start, "chain of %d edges", len(chain))
		}
		chains = append(chains, chain)
	}

	copies := make([][]int, len(chains))
	for ci, chain := range chains {
		copies[ci] = make([]int, len(chain))
		for i, e := range chain {
			copies[ci][i] = m.appendVertex(m.verts[m.edges[e].Start])
		}
	}

	for ci, chain := range chains {
		if err := m.detachChain(op, chain, copies[ci]); err != nil {
			return err
		}
	}
	return m.verify(op, false)
}

// detachChain re-threads, for every vertex of chain, the fan of faces on the
// chain's side onto that vertex's copy, then adds the cap face.
func (m *Mesh) detachChain(op string, chain []EdgeID, copies []int) error {
	pos := make(map[EdgeID]int, len(chain))
	for i, e := range chain {
		pos[e] = i
	}
	replace := func(old, repl EdgeID) {
		if k, ok := pos[old]; ok {
			delete(pos, old)
			chain[k] = repl
			pos[repl] = k
		}
	}

	for i := range chain {
		e := chain[i]
		nv := copies[i]

		pairs := [][2]EdgeID{{m.edges[e].Prev, e}}
		for {
			in := pairs[len(pairs)-1][0]
			if _, ok := pos[in]; ok {
				break
			}
			out := m.edges[in].Twin
			if out == NoEdge {
				return fault(op, FaultInvariant, in, m.edges[in].End, "fan edge without twin")
			}
			if len(pairs) >= m.opts.limit {
				return fault(op, FaultTraversalExceeded, e, m.edges[e].Start, "vertex fan")
			}
			pairs = append(pairs, [2]EdgeID{m.edges[out].Prev, out})
		}

		for _, pr := range pairs {
			in, out := pr[0], pr[1]
			hin, hout := m.edges[in], m.edges[out]
			newIn, err := m.addEdge(op, hin.Start, nv)
			if err != nil {
				return err
			}
			newOut, err := m.addEdge(op, nv, hout.End)
			if err != nil {
				return err
			}
			if err := m.chain(op, hin.Prev, newIn, newOut, hout.Next); err != nil {
				return err
			}
			replace(out, newOut)
			replace(in, newIn)
			if err := m.deleteEdges(op, in, out); err != nil {
				return err
			}
		}
	}

	n := len(copies)
	ring := make([]EdgeID, 0, n+1)
	for i := n - 1; i >= 0; i-- {
		prev := copies[(i-1+n)%n]
		e, err := m.addEdge(op, copies[i], prev)
		if err != nil {
			return err
		}
		ring = append(ring, e)
	}
	ring = append(ring, ring[0])
	return m.chain(op, ring...)
}

func removeInt(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
