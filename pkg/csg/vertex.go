// Package csg implements constructive solid geometry on closed triangle
// meshes using Binary Space Partitioning trees. Union, intersection and
// subtraction are computed exactly (up to the configured epsilon) by
// splitting polygons against the partition planes of the other operand.
//
// The package is pure: every operation takes immutable inputs and returns
// fresh results. Nothing is cached between calls and nothing is logged.
package csg

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is a polygon corner carrying the attributes interpolated across
// cuts. UV is meaningful only when HasUV is set.
type Vertex struct {
	Pos    r3.Vec
	Normal r3.Vec
	UV     [2]float64
	HasUV  bool
}

// Flip returns the vertex with its normal reversed.
func (v Vertex) Flip() Vertex {
	v.Normal = r3.Scale(-1, v.Normal)
	return v
}

// Interpolate returns the vertex at parameter t along the segment v→o.
// Normals are renormalized; UVs are interpolated only when both ends have one.
func (v Vertex) Interpolate(o Vertex, t float64) Vertex {
	out := Vertex{
		Pos:    lerp(v.Pos, o.Pos, t),
		Normal: lerp(v.Normal, o.Normal, t),
	}
	if n := r3.Norm(out.Normal); n > 0 {
		out.Normal = r3.Scale(1/n, out.Normal)
	}
	if v.HasUV && o.HasUV {
		out.UV = [2]float64{
			v.UV[0] + (o.UV[0]-v.UV[0])*t,
			v.UV[1] + (o.UV[1]-v.UV[1])*t,
		}
		out.HasUV = true
	}
	return out
}

// Equal reports whether every component of v and o differs by less than eps.
func (v Vertex) Equal(o Vertex, eps float64) bool {
	if !vecNear(v.Pos, o.Pos, eps) || !vecNear(v.Normal, o.Normal, eps) {
		return false
	}
	if v.HasUV != o.HasUV {
		return false
	}
	if v.HasUV {
		return math.Abs(v.UV[0]-o.UV[0]) < eps && math.Abs(v.UV[1]-o.UV[1]) < eps
	}
	return true
}

func lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

func vecNear(a, b r3.Vec, eps float64) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}
