package dcel

// walk follows step from start until it returns to start. It fails when a
// step leads nowhere or the walk exceeds the traversal limit.
func (m *Mesh) walk(op string, start EdgeID, step func(EdgeID) EdgeID) ([]EdgeID, error) {
	if !m.live(start) {
		return nil, fault(op, FaultInvariant, start, -1, "walk from missing edge")
	}
	seq := []EdgeID{start}
	for e := step(start); e != start; e = step(e) {
		if e == NoEdge || !m.live(e) {
			return nil, fault(op, FaultInvariant, seq[len(seq)-1], -1, "walk hit a broken link")
		}
		if len(seq) >= m.opts.limit {
			return nil, fault(op, FaultTraversalExceeded, start, -1, "more than %d steps", m.opts.limit)
		}
		seq = append(seq, e)
	}
	return seq, nil
}

// Loop returns the face loop starting at e, following next pointers.
func (m *Mesh) Loop(e EdgeID) ([]EdgeID, error) {
	return m.loop("loop", e)
}

func (m *Mesh) loop(op string, e EdgeID) ([]EdgeID, error) {
	return m.walk(op, e, func(x EdgeID) EdgeID { return m.edges[x].Next })
}

// loops returns every face loop once, each starting at its lowest edge id.
func (m *Mesh) loops(op string) ([][]EdgeID, error) {
	seen := make([]bool, len(m.edges))
	var out [][]EdgeID
	for i := range m.edges {
		e := EdgeID(i)
		if seen[i] || m.edges[i].dead {
			continue
		}
		l, err := m.loop(op, e)
		if err != nil {
			return nil, err
		}
		for _, x := range l {
			seen[x] = true
		}
		out = append(out, l)
	}
	return out, nil
}
