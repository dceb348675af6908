// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. It tessellates with
// marching cubes and serves as an approximate reference for the exact
// bsp kernel: crop results from both should enclose about the same volume.
package sdfx

import (
	"context"
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/shape"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution along
// the longest bounding-box axis.
const DefaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s   sdf.SDF3
	err error
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	if s.err != nil {
		return min, max
	}
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a kernel tessellating with the given marching cubes
// resolution. Non-positive cells selects DefaultMeshCells.
func New(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// unwrap extracts the underlying solid from a kernel.Solid.
func unwrap(s kernel.Solid) *sdfxSolid {
	if w, ok := s.(*sdfxSolid); ok && w != nil {
		return w
	}
	return &sdfxSolid{err: fmt.Errorf("sdfx: foreign solid %T", s)}
}

// wrap creates a kernel.Solid from an sdf.SDF3 constructor result.
func wrap(s sdf.SDF3, err error) kernel.Solid {
	return &sdfxSolid{s: s, err: err}
}

// combine builds a binary node, propagating the first construction error.
func combine(a, b kernel.Solid, fn func(a, b sdf.SDF3) sdf.SDF3) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	if sa.err != nil {
		return sa
	}
	if sb.err != nil {
		return sb
	}
	return wrap(fn(sa.s, sb.s), nil)
}

// Box creates a box with the given dimensions centered on the origin.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	return wrap(sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0))
}

// Cylinder creates a cylinder with the given height and radius.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, _ int) kernel.Solid {
	return wrap(sdf.Cylinder3D(height, radius, 0))
}

// Sphere creates a sphere. The segments parameter is ignored.
func (k *SdfxKernel) Sphere(radius float64, _ int) kernel.Solid {
	return wrap(sdf.Sphere3D(radius))
}

// Import is unsupported: a triangle soup has no distance field.
func (k *SdfxKernel) Import(_ *kernel.Mesh) (kernel.Solid, error) {
	return nil, fmt.Errorf("sdfx: import: %w", kernel.ErrUnsupported)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return combine(a, b, func(a, b sdf.SDF3) sdf.SDF3 { return sdf.Union3D(a, b) })
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return combine(a, b, sdf.Difference3D)
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return combine(a, b, sdf.Intersect3D)
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	w := unwrap(s)
	if w.err != nil {
		return w
	}
	return wrap(sdf.Transform3D(w.s, shape.Translation(x, y, z)), nil)
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	w := unwrap(s)
	if w.err != nil {
		return w
	}
	return wrap(sdf.Transform3D(w.s, shape.Rotation(x, y, z)), nil)
}

// ToMesh converts a solid to a triangle mesh using marching cubes. The
// renderer cannot be interrupted, so ctx is checked before and after.
func (k *SdfxKernel) ToMesh(ctx context.Context, s kernel.Solid) (*kernel.Mesh, error) {
	w := unwrap(s)
	if w.err != nil {
		return nil, w.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(w.s, renderer)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
