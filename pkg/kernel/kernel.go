// Package kernel defines the abstract geometry kernel interface used to
// turn part geometry into renderable meshes. The kernel abstraction allows
// swapping backends without changing the rest of the system.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
// Solids are centered on the origin, matching part-local coordinates.
type Kernel interface {
	// Primitives
	Box(width, height, depth float64) Solid
	Cylinder(radiusTop, radiusBottom, height float64, segments int) Solid // axis along Y

	// Transforms
	Translate(s Solid, x, y, z float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
