package dcel

import (
	"github.com/chazu/shatter/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MergeCoplanar removes every edge pair that separates two coplanar faces,
// fusing the faces into one. Pairs whose faces share more than that one edge
// are left alone, and so are pairs whose union would not be convex: Flatten
// and Cut both rely on convex faces. Running it twice is the same as running
// it once.
func (m *Mesh) MergeCoplanar() error {
	const op = "merge coplanar"
	done, err := m.begin(op)
	if err != nil {
		return err
	}
	defer done()
	for {
		merged, err := m.mergeOne(op)
		if err != nil || !merged {
			return err
		}
	}
}

func (m *Mesh) mergeOne(op string) (bool, error) {
	loops, err := m.loops(op)
	if err != nil {
		return false, err
	}
	faceOf := make([]int, len(m.edges))
	normals := make([]v3.Vec, len(loops))
	for fi, l := range loops {
		pts := make([]v3.Vec, len(l))
		for i, e := range l {
			faceOf[e] = fi
			pts[i] = m.verts[m.edges[e].Start]
		}
		normals[fi] = geom.Normal(pts)
	}

	for fi, l := range loops {
		for _, e := range l {
			he := m.edges[e]
			t := he.Twin
			if t == NoEdge || he.Start > he.End {
				continue
			}
			ft := faceOf[t]
			if ft == fi || normals[fi].Length() == 0 || normals[ft].Length() == 0 {
				continue
			}
			if normals[fi].Dot(normals[ft]) < 1-m.opts.eps {
				continue
			}
			if m.sharesOtherEdge(l, e, faceOf, ft) {
				continue
			}
			if !m.convexUnion(l, e, loops[ft], t, normals[fi]) {
				continue
			}
			th := m.edges[t]
			if err := m.link(op, he.Prev, th.Next); err != nil {
				return false, err
			}
			if err := m.link(op, th.Prev, he.Next); err != nil {
				return false, err
			}
			if err := m.deleteEdges(op, e, t); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (m *Mesh) sharesOtherEdge(loop []EdgeID, skip EdgeID, faceOf []int, face int) bool {
	for _, x := range loop {
		if x == skip {
			continue
		}
		if t := m.edges[x].Twin; t != NoEdge && faceOf[t] == face {
			return true
		}
	}
	return false
}

// convexUnion reports whether the face formed by joining loops a and b across
// the edge pair ea/eb is a simple convex polygon. Straight corners are allowed.
func (m *Mesh) convexUnion(a []EdgeID, ea EdgeID, b []EdgeID, eb EdgeID, n v3.Vec) bool {
	var pts []v3.Vec
	seen := make(map[int]bool, len(a)+len(b))
	for _, part := range [2]struct {
		loop []EdgeID
		skip EdgeID
	}{{a, ea}, {b, eb}} {
		k := 0
		for i, e := range part.loop {
			if e == part.skip {
				k = i
			}
		}
		for i := 1; i < len(part.loop); i++ {
			v := m.edges[part.loop[(k+i)%len(part.loop)]].Start
			if seen[v] {
				return false
			}
			seen[v] = true
			pts = append(pts, m.verts[v])
		}
	}
	for i, p := range pts {
		prev := pts[(i+len(pts)-1)%len(pts)]
		next := pts[(i+1)%len(pts)]
		in, out := p.Sub(prev), next.Sub(p)
		if in.Cross(out).Dot(n) < -m.opts.eps*in.Length()*out.Length() {
			return false
		}
	}
	return true
}

// RemoveColinear dissolves vertices of degree two that lie on the straight
// segment between their two neighbours, replacing the two edges on each side
// with a single one. Faces never drop below three edges.
func (m *Mesh) RemoveColinear() error {
	const op = "remove colinear"
	done, err := m.begin(op)
	if err != nil {
		return err
	}
	defer done()
	for {
		removed, err := m.removeColinearOne(op)
		if err != nil || !removed {
			return err
		}
	}
}

func (m *Mesh) removeColinearOne(op string) (bool, error) {
	for s := range m.verts {
		if len(m.out[s]) != 2 || len(m.in[s]) != 2 {
			continue
		}
		e1 := m.in[s][0]
		e2 := m.edges[e1].Next
		if e2 == NoEdge {
			continue
		}
		a, b := m.edges[e1].Start, m.edges[e2].End
		e3 := m.edges[e2].Twin
		if a == b || e3 == NoEdge {
			continue
		}
		e4 := m.edges[e3].Next
		if e4 == NoEdge || e4 != m.edges[e1].Twin {
			continue
		}
		if !geom.OnSegment(m.verts[s], m.verts[a], m.verts[b], m.opts.eps) {
			continue
		}
		if _, ok := m.index[edgeKey{a, b}]; ok {
			continue
		}
		if _, ok := m.index[edgeKey{b, a}]; ok {
			continue
		}
		l1, err := m.loop(op, e1)
		if err != nil {
			return false, err
		}
		l2, err := m.loop(op, e3)
		if err != nil {
			return false, err
		}
		if len(l1) < 4 || len(l2) < 4 || containsEdge(l1, e3) {
			continue
		}

		p1, n1 := m.edges[e1].Prev, m.edges[e2].Next
		p2, n2 := m.edges[e3].Prev, m.edges[e4].Next
		ab, err := m.addEdge(op, a, b)
		if err != nil {
			return false, err
		}
		ba, err := m.addEdge(op, b, a)
		if err != nil {
			return false, err
		}
		if err := m.chain(op, p1, ab, n1); err != nil {
			return false, err
		}
		if err := m.chain(op, p2, ba, n2); err != nil {
			return false, err
		}
		if err := m.deleteEdges(op, e1, e2, e3, e4); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
