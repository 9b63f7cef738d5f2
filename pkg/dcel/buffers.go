package dcel

// Buffers is a compact indexed triangle list for rendering. Positions are
// local to the mesh offset, three floats per vertex; every three indices form
// one triangle.
type Buffers struct {
	Positions []float32
	Indices   []uint32
}

// Flatten fan-triangulates every face loop from its first vertex. Only
// referenced vertices are emitted. Faces are assumed convex.
func (m *Mesh) Flatten() (Buffers, error) {
	loops, err := m.loops("flatten")
	if err != nil {
		return Buffers{}, err
	}
	remap := make(map[int]uint32, len(m.verts))
	var b Buffers
	vertex := func(v int) uint32 {
		if i, ok := remap[v]; ok {
			return i
		}
		i := uint32(len(b.Positions) / 3)
		p := m.verts[v]
		b.Positions = append(b.Positions, float32(p.X), float32(p.Y), float32(p.Z))
		remap[v] = i
		return i
	}
	for _, l := range loops {
		first := vertex(m.edges[l[0]].Start)
		for i := 1; i+1 < len(l); i++ {
			b.Indices = append(b.Indices, first, vertex(m.edges[l[i]].Start), vertex(m.edges[l[i+1]].Start))
		}
	}
	return b, nil
}
