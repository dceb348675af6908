package kernel

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMesh reports a mesh whose flat arrays disagree with each other.
var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh is a triangle mesh suitable for rendering and for boolean input.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, uvs has 2 floats per vertex and may be
// empty, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`      // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`       // [nx0,ny0,nz0, ...]
	UVs      []float32 `json:"uvs,omitempty"` // [u0,v0, u1,v1, ...]
	Indices  []uint32  `json:"indices"`       // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"`      // which recipe output this came from

	// Warnings carries non-fatal findings from the kernel that produced
	// the mesh, such as non-manifold boolean input.
	Warnings []string `json:"warnings,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Indices) == 0
}

// HasUVs reports whether every vertex carries texture coordinates.
func (m *Mesh) HasUVs() bool {
	return len(m.UVs) > 0 && len(m.UVs) == 2*m.VertexCount()
}

// Validate checks array lengths and index ranges.
func (m *Mesh) Validate() error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("%w: %d position floats is not a multiple of 3", ErrInvalidMesh, len(m.Vertices))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidMesh, len(m.Indices))
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("%w: %d normal floats for %d vertices", ErrInvalidMesh, len(m.Normals), m.VertexCount())
	}
	if len(m.UVs) != 0 && len(m.UVs) != 2*m.VertexCount() {
		return fmt.Errorf("%w: %d uv floats for %d vertices", ErrInvalidMesh, len(m.UVs), m.VertexCount())
	}
	n := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d at position %d out of range (%d vertices)", ErrInvalidMesh, idx, i, n)
		}
	}
	for i, f := range m.Vertices {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return fmt.Errorf("%w: non-finite coordinate at position %d", ErrInvalidMesh, i)
		}
	}
	return nil
}

// Position returns vertex i as float64 coordinates.
func (m *Mesh) Position(i uint32) [3]float64 {
	return [3]float64{
		float64(m.Vertices[3*i]),
		float64(m.Vertices[3*i+1]),
		float64(m.Vertices[3*i+2]),
	}
}

// BoundingBox returns the axis-aligned bounds of the referenced vertices.
// ok is false for an empty mesh.
func (m *Mesh) BoundingBox() (min, max [3]float64, ok bool) {
	if m.IsEmpty() {
		return min, max, false
	}
	for k := 0; k < 3; k++ {
		min[k] = math.Inf(1)
		max[k] = math.Inf(-1)
	}
	for _, idx := range m.Indices {
		p := m.Position(idx)
		for k := 0; k < 3; k++ {
			min[k] = math.Min(min[k], p[k])
			max[k] = math.Max(max[k], p[k])
		}
	}
	return min, max, true
}

// Volume returns the signed enclosed volume (divergence theorem). It is
// positive for a closed mesh with outward, counter-clockwise winding.
func (m *Mesh) Volume() float64 {
	var v float64
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a := m.Position(m.Indices[t])
		b := m.Position(m.Indices[t+1])
		c := m.Position(m.Indices[t+2])
		v += a[0]*(b[1]*c[2]-b[2]*c[1]) -
			a[1]*(b[0]*c[2]-b[2]*c[0]) +
			a[2]*(b[0]*c[1]-b[1]*c[0])
	}
	return v / 6
}

// SurfaceArea returns the total triangle area.
func (m *Mesh) SurfaceArea() float64 {
	var area float64
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a := m.Position(m.Indices[t])
		b := m.Position(m.Indices[t+1])
		c := m.Position(m.Indices[t+2])
		u := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		w := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		x := u[1]*w[2] - u[2]*w[1]
		y := u[2]*w[0] - u[0]*w[2]
		z := u[0]*w[1] - u[1]*w[0]
		area += math.Sqrt(x*x+y*y+z*z) / 2
	}
	return area
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	if m == nil {
		return nil
	}
	return &Mesh{
		Vertices: append([]float32(nil), m.Vertices...),
		Normals:  append([]float32(nil), m.Normals...),
		UVs:      append([]float32(nil), m.UVs...),
		Indices:  append([]uint32(nil), m.Indices...),
		PartName: m.PartName,
		Warnings: append([]string(nil), m.Warnings...),
	}
}

// Append returns a new mesh holding the triangles of m followed by those of
// o. UVs are kept only when both meshes have them.
func (m *Mesh) Append(o *Mesh) *Mesh {
	out := m.Clone()
	if out == nil {
		return o.Clone()
	}
	if o.IsEmpty() {
		return out
	}
	keepUV := (m.HasUVs() || m.VertexCount() == 0) && o.HasUVs()
	base := uint32(m.VertexCount())
	out.Vertices = append(out.Vertices, o.Vertices...)
	if len(m.Normals) == len(m.Vertices) && len(o.Normals) == len(o.Vertices) {
		out.Normals = append(out.Normals, o.Normals...)
	} else {
		out.Normals = nil
	}
	if keepUV {
		out.UVs = append(out.UVs, o.UVs...)
	} else {
		out.UVs = nil
	}
	for _, idx := range o.Indices {
		out.Indices = append(out.Indices, idx+base)
	}
	out.Warnings = append(out.Warnings, o.Warnings...)
	return out
}
