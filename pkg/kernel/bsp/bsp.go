// Package bsp implements the kernel.Kernel interface on exact polygon
// booleans from package csg. Solids are lazy expression trees; nothing is
// computed until ToMesh, where every boolean node is evaluated by
// csg.Combine from freshly built BSP trees.
package bsp

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.uber.org/zap"

	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/shape"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// DefaultSegments is used when a primitive is asked for fewer than
// shape.MinSegments segments.
const DefaultSegments = 48

type nodeKind int

const (
	leafNode nodeKind = iota
	transformNode
	booleanNode
)

// solid is one node of a lazy expression tree. Nodes are immutable once
// built and may be shared between expressions.
type solid struct {
	kind nodeKind
	mesh *kernel.Mesh // leafNode
	xf   sdf.M44      // transformNode
	op   csg.Op       // booleanNode
	a, b *solid
	err  error // construction error surfaced by ToMesh
	min  [3]float64
	max  [3]float64
}

// BoundingBox returns the axis-aligned bounding box.
func (s *solid) BoundingBox() (min, max [3]float64) {
	return s.min, s.max
}

// Kernel evaluates solids with BSP booleans.
type Kernel struct {
	opts csg.Options
	log  *zap.Logger
}

// New returns a kernel using opts for every boolean. A nil logger
// disables logging.
func New(opts csg.Options, log *zap.Logger) *Kernel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Kernel{opts: opts, log: log}
}

// unwrap extracts the expression node from a kernel.Solid.
func unwrap(s kernel.Solid) *solid {
	if n, ok := s.(*solid); ok && n != nil {
		return n
	}
	return &solid{err: fmt.Errorf("bsp: foreign solid %T", s)}
}

func leaf(m *kernel.Mesh, err error) *solid {
	if err != nil {
		return &solid{err: err}
	}
	min, max, _ := m.BoundingBox()
	return &solid{kind: leafNode, mesh: m, min: min, max: max}
}

func segmentsOrDefault(n int) int {
	if n < shape.MinSegments {
		return DefaultSegments
	}
	return n
}

// Box creates a box with the given dimensions centered on the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	return leaf(shape.Box(x, y, z))
}

// Cylinder creates a cylinder of the given height and radius standing on
// the Z axis, centered on the origin.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	return leaf(shape.Cylinder(radius, height, segmentsOrDefault(segments)))
}

// Sphere creates a UV sphere with segments around the equator.
func (k *Kernel) Sphere(radius float64, segments int) kernel.Solid {
	segments = segmentsOrDefault(segments)
	rings := segments / 2
	if rings < shape.MinRings {
		rings = shape.MinRings
	}
	return leaf(shape.Sphere(radius, segments, rings))
}

// Import wraps a copy of m. The mesh is validated now; its topology is
// checked when a boolean consumes it.
func (k *Kernel) Import(m *kernel.Mesh) (kernel.Solid, error) {
	if m == nil {
		return nil, fmt.Errorf("bsp: import: %w: nil mesh", kernel.ErrInvalidMesh)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("bsp: import: %w", err)
	}
	return leaf(m.Clone(), nil), nil
}

func (k *Kernel) boolean(op csg.Op, a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	n := &solid{kind: booleanNode, op: op, a: sa, b: sb}
	switch op {
	case csg.OpUnion:
		for i := 0; i < 3; i++ {
			n.min[i] = math.Min(sa.min[i], sb.min[i])
			n.max[i] = math.Max(sa.max[i], sb.max[i])
		}
	case csg.OpIntersect:
		for i := 0; i < 3; i++ {
			n.min[i] = math.Max(sa.min[i], sb.min[i])
			n.max[i] = math.Min(sa.max[i], sb.max[i])
		}
	case csg.OpSubtract:
		n.min, n.max = sa.min, sa.max
	}
	return n
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return k.boolean(csg.OpUnion, a, b)
}

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return k.boolean(csg.OpSubtract, a, b)
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return k.boolean(csg.OpIntersect, a, b)
}

func (k *Kernel) transform(s kernel.Solid, m sdf.M44) kernel.Solid {
	child := unwrap(s)
	n := &solid{kind: transformNode, xf: m, a: child}
	for i := 0; i < 3; i++ {
		n.min[i] = math.Inf(1)
		n.max[i] = math.Inf(-1)
	}
	for c := 0; c < 8; c++ {
		p := v3.Vec{X: child.min[0], Y: child.min[1], Z: child.min[2]}
		if c&1 != 0 {
			p.X = child.max[0]
		}
		if c&2 != 0 {
			p.Y = child.max[1]
		}
		if c&4 != 0 {
			p.Z = child.max[2]
		}
		q := m.MulPosition(p)
		for i, v := range [3]float64{q.X, q.Y, q.Z} {
			n.min[i] = math.Min(n.min[i], v)
			n.max[i] = math.Max(n.max[i], v)
		}
	}
	return n
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return k.transform(s, shape.Translation(x, y, z))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return k.transform(s, shape.Rotation(x, y, z))
}

// ToMesh evaluates the expression. Warnings from every boolean along the
// way are logged and attached to the returned mesh.
func (k *Kernel) ToMesh(ctx context.Context, s kernel.Solid) (*kernel.Mesh, error) {
	return k.eval(ctx, unwrap(s))
}

func (k *Kernel) eval(ctx context.Context, n *solid) (*kernel.Mesh, error) {
	if n.err != nil {
		return nil, n.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch n.kind {
	case leafNode:
		return n.mesh.Clone(), nil

	case transformNode:
		m, err := k.eval(ctx, n.a)
		if err != nil {
			return nil, err
		}
		return shape.Transform(m, n.xf), nil

	case booleanNode:
		a, err := k.eval(ctx, n.a)
		if err != nil {
			return nil, err
		}
		b, err := k.eval(ctx, n.b)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		res, err := csg.Combine(ctx, a, b, n.op, k.opts)
		if err != nil {
			k.log.Debug("boolean failed", zap.Stringer("op", n.op), zap.Error(err))
			return nil, err
		}
		k.log.Debug("boolean",
			zap.Stringer("op", n.op),
			zap.Int("trianglesA", a.TriangleCount()),
			zap.Int("trianglesB", b.TriangleCount()),
			zap.Int("triangles", res.Mesh.TriangleCount()),
			zap.Int("polygons", res.Polygons),
			zap.Bool("disjoint", res.Disjoint),
			zap.Float64("epsilon", res.Epsilon),
			zap.Duration("elapsed", time.Since(start)))

		out := res.Mesh
		out.Warnings = append(out.Warnings[:0:0], a.Warnings...)
		out.Warnings = append(out.Warnings, b.Warnings...)
		for _, w := range res.Warnings {
			k.log.Warn("boolean input", zap.Stringer("op", n.op), zap.Stringer("code", w.Code),
				zap.String("operand", w.Operand), zap.Int("count", w.Count))
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %s", n.op, w))
		}
		return out, nil
	}
	return nil, fmt.Errorf("bsp: unknown node kind %d", n.kind)
}
