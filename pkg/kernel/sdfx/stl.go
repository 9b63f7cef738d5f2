package sdfx

import (
	"fmt"

	"github.com/chazu/shatter/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// WriteSTL writes the meshes, placed at their offsets, to a single binary
// STL file.
func WriteSTL(path string, meshes ...*kernel.Mesh) error {
	var tris []*sdf.Triangle3
	for _, m := range meshes {
		if m == nil {
			continue
		}
		at := func(i uint32) v3.Vec {
			return v3.Vec{
				X: float64(m.Vertices[3*i] + m.Offset[0]),
				Y: float64(m.Vertices[3*i+1] + m.Offset[1]),
				Z: float64(m.Vertices[3*i+2] + m.Offset[2]),
			}
		}
		for i := 0; i+2 < len(m.Indices); i += 3 {
			tris = append(tris, &sdf.Triangle3{at(m.Indices[i]), at(m.Indices[i+1]), at(m.Indices[i+2])})
		}
	}
	if len(tris) == 0 {
		return fmt.Errorf("sdfx: nothing to write")
	}
	return render.SaveSTL(path, tris)
}
