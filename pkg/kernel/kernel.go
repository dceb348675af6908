// Package kernel defines the abstract geometry kernel interface.
// Implementations (bsp, sdfx) provide solid modeling and boolean
// operations behind this interface. The kernel abstraction allows
// swapping backends without changing the rest of the system.
package kernel

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by kernels that cannot perform an operation,
// such as importing a triangle mesh into a distance-field kernel.
var ErrUnsupported = errors.New("operation not supported by kernel")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centered on the origin. Cylinders stand on the Z axis.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Sphere(radius float64, segments int) Solid

	// Import wraps an existing closed triangle mesh, such as a loaded
	// model, as a solid.
	Import(m *Mesh) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output. Evaluation may be expensive and honours ctx.
	ToMesh(ctx context.Context, s Solid) (*Mesh, error)
}
