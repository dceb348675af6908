package graph

import (
	"fmt"

	"github.com/chazu/carve/pkg/csg"
)

// Vec3 is a 3D vector in model units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes between primitive shapes.
type PrimitiveKind int

const (
	PrimBox      PrimitiveKind = iota // rectangular solid centered on the origin
	PrimCylinder                      // Z-axis cylinder centered on the origin
	PrimSphere                        // UV sphere centered on the origin
	PrimModel                         // externally loaded mesh
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimBox:
		return "box"
	case PrimCylinder:
		return "cylinder"
	case PrimSphere:
		return "sphere"
	case PrimModel:
		return "model"
	default:
		return "unknown"
	}
}

// BoxData is an axis-aligned box.
type BoxData struct {
	Size Vec3 `json:"size"`
}

func (BoxData) nodeData() {}

// CylinderData is the usual cutter. Segments 0 selects the graph default.
type CylinderData struct {
	Radius   float64 `json:"radius"`
	Height   float64 `json:"height"`
	Segments int     `json:"segments,omitempty"`
}

func (CylinderData) nodeData() {}

// SphereData is a UV sphere. Segments 0 selects the graph default.
type SphereData struct {
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"`
}

func (SphereData) nodeData() {}

// ModelData references a mesh supplied by the host, keyed by Ref.
type ModelData struct {
	Ref string `json:"ref"`
}

func (ModelData) nodeData() {}

// PrimitiveOf returns the primitive kind of a node payload.
func PrimitiveOf(d NodeData) (PrimitiveKind, bool) {
	switch d.(type) {
	case BoxData:
		return PrimBox, true
	case CylinderData:
		return PrimCylinder, true
	case SphereData:
		return PrimSphere, true
	case ModelData:
		return PrimModel, true
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData represents a spatial transformation applied to a child node.
// Rotation is applied before translation. Created by the (place ...) form.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanData folds the node's children left to right with Op: the first
// child is the accumulator, every later child is combined into it.
type BooleanData struct {
	Op csg.Op `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

// OutputData names a result. Its single child is tessellated into one mesh.
type OutputData struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"` // hex colour hint for the renderer
}

func (OutputData) nodeData() {}
