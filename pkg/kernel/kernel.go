// Package kernel defines the abstract geometry kernel interface.
// Implementations build closed polyhedral solids and place them in the
// world; the scene turns their faces into half-edge meshes. The kernel
// abstraction allows swapping backends without changing the rest of the
// system.
package kernel

import v3 "github.com/deadsy/sdfx/vec/v3"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// Faces returns the boundary polygons, wound counter-clockwise seen
	// from outside.
	Faces() [][]v3.Vec
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Hull(points []v3.Vec) (Solid, error)

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
