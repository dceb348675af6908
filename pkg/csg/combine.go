package csg

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/carve/pkg/kernel"
)

// Op selects a boolean operation.
type Op int

const (
	OpUnion Op = iota
	OpIntersect
	OpSubtract
)

func (o Op) String() string {
	switch o {
	case OpUnion:
		return "union"
	case OpIntersect:
		return "intersect"
	case OpSubtract:
		return "subtract"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// ParseOp accepts "union", "intersect" or "subtract" in any case.
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "union":
		return OpUnion, nil
	case "intersect", "intersection":
		return OpIntersect, nil
	case "subtract", "difference":
		return OpSubtract, nil
	}
	return 0, fmt.Errorf("csg: unknown operation %q", s)
}

// Result is the output of Combine.
type Result struct {
	Mesh     *kernel.Mesh
	Warnings []Warning
	Epsilon  float64 // absolute tolerance actually used
	Polygons int     // polygons created, split fragments included
	Disjoint bool    // operands did not overlap and no tree was built
}

// Combine computes op(a, b) and returns a new mesh. Neither input is
// modified. Nil meshes are treated as empty.
//
// Operands whose bounding boxes are separated by more than the tolerance
// skip the tree algorithm: intersect yields an empty mesh, union the two
// meshes side by side, subtract a copy of a.
func Combine(ctx context.Context, a, b *kernel.Mesh, op Op, opts Options) (*Result, error) {
	if op < OpUnion || op > OpSubtract {
		return nil, fmt.Errorf("csg: unknown operation %d", int(op))
	}
	for _, m := range []*kernel.Mesh{a, b} {
		if m.IsEmpty() {
			continue
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("csg: %s: %w", op, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("csg: %s: %w", op, err)
	}

	aMin, aMax, aOK := a.BoundingBox()
	bMin, bMax, bOK := b.BoundingBox()
	eps := opts.Resolve(combinedDiagonal(aMin, aMax, aOK, bMin, bMax, bOK))
	res := &Result{Epsilon: eps}

	if short := shortCircuit(a, b, op, aOK, bOK); short != nil {
		res.Mesh = short
		return res, nil
	}
	if separated(aMin, aMax, bMin, bMax, eps) {
		res.Disjoint = true
		switch op {
		case OpIntersect:
			res.Mesh = &kernel.Mesh{}
		case OpUnion:
			res.Mesh = a.Append(b)
		case OpSubtract:
			res.Mesh = a.Clone()
		}
		return res, nil
	}

	pa, wa, err := ToPolygons(a, eps)
	if err != nil {
		return nil, fmt.Errorf("csg: %s: operand a: %w", op, err)
	}
	pb, wb, err := ToPolygons(b, eps)
	if err != nil {
		return nil, fmt.Errorf("csg: %s: operand b: %w", op, err)
	}
	for _, w := range wa {
		w.Operand = "a"
		res.Warnings = append(res.Warnings, w)
	}
	for _, w := range wb {
		w.Operand = "b"
		res.Warnings = append(res.Warnings, w)
	}

	s := NewSession(ctx, eps, opts)
	if err := s.charge(len(pa) + len(pb)); err != nil {
		return nil, fmt.Errorf("csg: %s: %w", op, err)
	}

	var out []*Polygon
	switch op {
	case OpUnion:
		out, err = Union(s, pa, pb)
	case OpIntersect:
		out, err = Intersect(s, pa, pb)
	case OpSubtract:
		out, err = Subtract(s, pa, pb)
	}
	if err != nil {
		return nil, fmt.Errorf("csg: %s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("csg: %s: %w", op, err)
	}

	res.Mesh = ToMesh(out, eps)
	res.Polygons = s.Polygons()
	return res, nil
}

// shortCircuit handles empty operands at the mesh level so that the
// surviving operand is returned unchanged.
func shortCircuit(a, b *kernel.Mesh, op Op, aOK, bOK bool) *kernel.Mesh {
	switch {
	case !aOK && !bOK:
		return &kernel.Mesh{}
	case !aOK:
		if op == OpUnion {
			return b.Clone()
		}
		return &kernel.Mesh{}
	case !bOK:
		if op == OpIntersect {
			return &kernel.Mesh{}
		}
		return a.Clone()
	}
	return nil
}

func combinedDiagonal(aMin, aMax [3]float64, aOK bool, bMin, bMax [3]float64, bOK bool) float64 {
	var lo, hi [3]float64
	switch {
	case aOK && bOK:
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(aMin[k], bMin[k])
			hi[k] = math.Max(aMax[k], bMax[k])
		}
	case aOK:
		lo, hi = aMin, aMax
	case bOK:
		lo, hi = bMin, bMax
	default:
		return 0
	}
	dx, dy, dz := hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// separated reports whether two boxes are apart by more than eps on some
// axis.
func separated(aMin, aMax, bMin, bMax [3]float64, eps float64) bool {
	for k := 0; k < 3; k++ {
		if aMin[k] > bMax[k]+eps || bMin[k] > aMax[k]+eps {
			return true
		}
	}
	return false
}
