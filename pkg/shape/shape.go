// Package shape generates closed triangle meshes for the primitives used as
// crop volumes and test solids. Every mesh is centered on the origin, wound
// counter-clockwise seen from outside, and carries per-vertex normals and
// UVs.
package shape

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/carve/pkg/kernel"
)

// ErrInvalidShape reports non-positive dimensions or too few segments.
var ErrInvalidShape = errors.New("invalid shape parameters")

const (
	// MinSegments is the smallest segment count that encloses volume.
	MinSegments = 3
	// MinRings is the smallest latitude count for a sphere.
	MinRings = 2
)

// builder accumulates flat mesh arrays.
type builder struct {
	m kernel.Mesh
}

func (b *builder) vertex(p, n [3]float64, u, v float64) uint32 {
	idx := uint32(len(b.m.Vertices) / 3)
	b.m.Vertices = append(b.m.Vertices, float32(p[0]), float32(p[1]), float32(p[2]))
	b.m.Normals = append(b.m.Normals, float32(n[0]), float32(n[1]), float32(n[2]))
	b.m.UVs = append(b.m.UVs, float32(u), float32(v))
	return idx
}

func (b *builder) tri(i, j, k uint32) {
	b.m.Indices = append(b.m.Indices, i, j, k)
}

func (b *builder) mesh() *kernel.Mesh {
	m := b.m
	return &m
}

// boxFace describes one side: outward normal n and in-plane axes u, v with
// u × v = n.
type boxFace struct {
	n, u, v [3]float64
}

var boxFaces = [6]boxFace{
	{n: [3]float64{1, 0, 0}, u: [3]float64{0, 1, 0}, v: [3]float64{0, 0, 1}},
	{n: [3]float64{-1, 0, 0}, u: [3]float64{0, 0, 1}, v: [3]float64{0, 1, 0}},
	{n: [3]float64{0, 1, 0}, u: [3]float64{0, 0, 1}, v: [3]float64{1, 0, 0}},
	{n: [3]float64{0, -1, 0}, u: [3]float64{1, 0, 0}, v: [3]float64{0, 0, 1}},
	{n: [3]float64{0, 0, 1}, u: [3]float64{1, 0, 0}, v: [3]float64{0, 1, 0}},
	{n: [3]float64{0, 0, -1}, u: [3]float64{0, 1, 0}, v: [3]float64{1, 0, 0}},
}

// Box returns an axis-aligned box of size x × y × z centered on the origin:
// 24 vertices (four per face so normals stay flat) and 12 triangles.
func Box(x, y, z float64) (*kernel.Mesh, error) {
	if !(x > 0 && y > 0 && z > 0) {
		return nil, fmt.Errorf("%w: box %gx%gx%g", ErrInvalidShape, x, y, z)
	}
	half := [3]float64{x / 2, y / 2, z / 2}
	corners := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	var b builder
	for _, f := range boxFaces {
		var idx [4]uint32
		for c, s := range corners {
			var p [3]float64
			for k := 0; k < 3; k++ {
				p[k] = (f.n[k] + s[0]*f.u[k] + s[1]*f.v[k]) * half[k]
			}
			idx[c] = b.vertex(p, f.n, (s[0]+1)/2, (s[1]+1)/2)
		}
		b.tri(idx[0], idx[1], idx[2])
		b.tri(idx[0], idx[2], idx[3])
	}
	return b.mesh(), nil
}

// Cylinder returns a closed prism approximating a cylinder of the given
// radius and height, centered on the origin with its axis along +Z. The
// side seam is duplicated so UVs wrap cleanly.
func Cylinder(radius, height float64, segments int) (*kernel.Mesh, error) {
	if !(radius > 0 && height > 0) || segments < MinSegments {
		return nil, fmt.Errorf("%w: cylinder r=%g h=%g segments=%d", ErrInvalidShape, radius, height, segments)
	}
	hz := height / 2
	ring := func(i int) (c, s float64) {
		a := 2 * math.Pi * float64(i%segments) / float64(segments)
		return math.Cos(a), math.Sin(a)
	}

	var b builder

	// Side.
	bottom := make([]uint32, segments+1)
	top := make([]uint32, segments+1)
	for i := 0; i <= segments; i++ {
		c, s := ring(i)
		n := [3]float64{c, s, 0}
		u := float64(i) / float64(segments)
		bottom[i] = b.vertex([3]float64{radius * c, radius * s, -hz}, n, u, 0)
		top[i] = b.vertex([3]float64{radius * c, radius * s, hz}, n, u, 1)
	}
	for i := 0; i < segments; i++ {
		b.tri(bottom[i], bottom[i+1], top[i+1])
		b.tri(bottom[i], top[i+1], top[i])
	}

	// Caps.
	for _, lid := range []struct {
		z  float64
		nz float64
	}{{hz, 1}, {-hz, -1}} {
		n := [3]float64{0, 0, lid.nz}
		center := b.vertex([3]float64{0, 0, lid.z}, n, 0.5, 0.5)
		rim := make([]uint32, segments)
		for i := 0; i < segments; i++ {
			c, s := ring(i)
			rim[i] = b.vertex([3]float64{radius * c, radius * s, lid.z}, n, 0.5+c/2, 0.5+s/2)
		}
		for i := 0; i < segments; i++ {
			j := (i + 1) % segments
			if lid.nz > 0 {
				b.tri(center, rim[i], rim[j])
			} else {
				b.tri(center, rim[j], rim[i])
			}
		}
	}
	return b.mesh(), nil
}

// Sphere returns a UV sphere centered on the origin with the poles on the
// Z axis. segments divides longitude and rings divides latitude.
func Sphere(radius float64, segments, rings int) (*kernel.Mesh, error) {
	if !(radius > 0) || segments < MinSegments || rings < MinRings {
		return nil, fmt.Errorf("%w: sphere r=%g segments=%d rings=%d", ErrInvalidShape, radius, segments, rings)
	}

	var b builder
	grid := make([][]uint32, rings+1)
	for j := 0; j <= rings; j++ {
		grid[j] = make([]uint32, segments+1)
		phi := math.Pi * float64(j) / float64(rings)
		sp, cp := math.Sin(phi), math.Cos(phi)
		switch j {
		case 0:
			sp, cp = 0, 1
		case rings:
			sp, cp = 0, -1
		}
		for i := 0; i <= segments; i++ {
			theta := 2 * math.Pi * float64(i%segments) / float64(segments)
			n := [3]float64{sp * math.Cos(theta), sp * math.Sin(theta), cp}
			p := [3]float64{radius * n[0], radius * n[1], radius * n[2]}
			grid[j][i] = b.vertex(p, n, float64(i)/float64(segments), 1-float64(j)/float64(rings))
		}
	}
	for j := 0; j < rings; j++ {
		for i := 0; i < segments; i++ {
			a, bl, c, d := grid[j][i], grid[j+1][i], grid[j+1][i+1], grid[j][i+1]
			if j != 0 {
				b.tri(a, c, d)
			}
			if j != rings-1 {
				b.tri(a, bl, c)
			}
		}
	}
	return b.mesh(), nil
}
