// Package tessellate turns the fragments of a scene into flat-shaded
// triangle meshes for rendering. One mesh is produced per fragment.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/shatter/pkg/kernel"
	"github.com/chazu/shatter/pkg/scene"
)

// Tessellate produces one triangle mesh per live fragment, in scene order.
// The tessellator is read-only and never mutates the scene.
func Tessellate(s *scene.Scene) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for _, f := range s.Fragments() {
		m, err := Fragment(f)
		if err != nil {
			return nil, fmt.Errorf("tessellate: fragment %s: %w", f.Name, err)
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// Fragment flattens one fragment. Vertices are local to the fragment's
// offset and every triangle gets its own three vertices so that each face
// is shaded flat.
func Fragment(f *scene.Fragment) (*kernel.Mesh, error) {
	if f.Mesh == nil {
		return nil, fmt.Errorf("fragment has no mesh")
	}
	b, err := f.Mesh.Flatten()
	if err != nil {
		return nil, err
	}

	numVerts := len(b.Indices)
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	corner := func(i uint32) [3]float32 {
		return [3]float32{b.Positions[3*i], b.Positions[3*i+1], b.Positions[3*i+2]}
	}
	for t := 0; t+2 < len(b.Indices); t += 3 {
		tri := [3][3]float32{corner(b.Indices[t]), corner(b.Indices[t+1]), corner(b.Indices[t+2])}
		n := faceNormal(tri)
		for _, v := range tri {
			indices = append(indices, uint32(len(vertices)/3))
			vertices = append(vertices, v[0], v[1], v[2])
			normals = append(normals, n[0], n[1], n[2])
		}
	}

	off := f.Mesh.Offset()
	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		PartName: f.Name,
		Offset:   [3]float32{float32(off.X), float32(off.Y), float32(off.Z)},
		Volume:   f.Volume(),
	}, nil
}

// faceNormal returns the unit normal of a counter-clockwise triangle, or
// zero for a degenerate one.
func faceNormal(tri [3][3]float32) [3]float32 {
	var u, v [3]float64
	for i := range 3 {
		u[i] = float64(tri[1][i] - tri[0][i])
		v[i] = float64(tri[2][i] - tri[0][i])
	}
	n := [3]float64{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{float32(n[0] / l), float32(n[1] / l), float32(n[2] / l)}
}
