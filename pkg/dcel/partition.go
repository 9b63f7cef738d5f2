package dcel

import v3 "github.com/deadsy/sdfx/vec/v3"

// EdgeClusters groups the live half-edges into connected components, where
// two edges are connected when one is the next or the twin of the other.
// Clusters are ordered by their lowest edge id.
func (m *Mesh) EdgeClusters() ([][]EdgeID, error) {
	return m.edgeClusters("edge clusters")
}

func (m *Mesh) edgeClusters(op string) ([][]EdgeID, error) {
	seen := make([]bool, len(m.edges))
	budget := len(m.index)
	var clusters [][]EdgeID
	for i := range m.edges {
		if seen[i] || m.edges[i].dead {
			continue
		}
		var cluster []EdgeID
		stack := []EdgeID{EdgeID(i)}
		seen[i] = true
		for len(stack) > 0 {
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cluster = append(cluster, e)
			budget--
			if budget < 0 {
				return nil, fault(op, FaultTraversalExceeded, e, -1, "flood fill visited more edges than exist")
			}
			he := m.edges[e]
			for _, n := range [...]EdgeID{he.Next, he.Twin} {
				if n == NoEdge || !m.live(n) {
					return nil, fault(op, FaultInvariant, e, -1, "flood fill hit a broken link")
				}
				if !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters, nil
}

// Break recovers the face lists of each disjoint piece, in world
// coordinates. When the mesh is still one piece split is false and pieces
// holds that single piece.
func (m *Mesh) Break() (pieces [][]Face, split bool, err error) {
	const op = "break"
	done, err := m.begin(op)
	if err != nil {
		return nil, false, err
	}
	defer done()

	clusters, err := m.edgeClusters(op)
	if err != nil {
		return nil, false, err
	}
	for _, cluster := range clusters {
		seen := make(map[EdgeID]bool, len(cluster))
		var loops [][]EdgeID
		for _, e := range cluster {
			if seen[e] {
				continue
			}
			l, err := m.loop(op, e)
			if err != nil {
				return nil, false, err
			}
			for _, x := range l {
				seen[x] = true
			}
			loops = append(loops, l)
		}
		pieces = append(pieces, m.facesOf(loops))
	}
	return pieces, len(clusters) > 1, nil
}

// Split breaks the mesh and rebuilds every piece as a new mesh with the same
// options. An unsplit mesh is returned as is.
func (m *Mesh) Split() ([]*Mesh, error) {
	pieces, split, err := m.Break()
	if err != nil {
		return nil, err
	}
	if !split {
		return []*Mesh{m}, nil
	}
	o := m.opts
	o.offset = v3.Vec{}
	out := make([]*Mesh, 0, len(pieces))
	for _, faces := range pieces {
		child, err := New(faces, func(c *options) { *c = o })
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}
