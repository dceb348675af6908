// Package tessellate walks a recipe graph and produces triangle meshes
// using a geometry kernel. One mesh is produced per output.
package tessellate

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/graph"
	"github.com/chazu/carve/pkg/kernel"
)

// ErrMissingModel is returned when a model node references a mesh the
// caller did not supply.
var ErrMissingModel = errors.New("model not loaded")

// walker builds one kernel solid per graph node. Shared subgraphs are
// built once and reused by every consumer.
type walker struct {
	g        *graph.Graph
	k        kernel.Kernel
	models   map[string]*kernel.Mesh
	solids   map[graph.NodeID]kernel.Solid
	visiting map[graph.NodeID]bool
}

// Tessellate walks the recipe graph and produces one triangle mesh per
// output, in declaration order, using the provided geometry kernel. Model
// nodes are resolved through models. The tessellator is read-only and
// never mutates the graph or the model meshes.
func Tessellate(ctx context.Context, g *graph.Graph, k kernel.Kernel, models map[string]*kernel.Mesh) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	w := &walker{
		g:        g,
		k:        k,
		models:   models,
		solids:   make(map[graph.NodeID]kernel.Solid),
		visiting: make(map[graph.NodeID]bool),
	}

	var meshes []*kernel.Mesh
	for _, out := range g.Outputs() {
		od, ok := out.Data.(graph.OutputData)
		if !ok {
			return nil, fmt.Errorf("tessellate: output node %s carries %T", out.ID.Short(), out.Data)
		}
		if len(out.Children) != 1 {
			return nil, fmt.Errorf("tessellate: output %q has %d children", od.Name, len(out.Children))
		}
		solid, err := w.solid(out.Children[0])
		if err != nil {
			return nil, fmt.Errorf("tessellate: output %q: %w", od.Name, err)
		}
		mesh, err := k.ToMesh(ctx, solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for output %q: %w", od.Name, err)
		}
		mesh.PartName = od.Name
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// solid returns the memoized solid for id, building it on first use.
func (w *walker) solid(id graph.NodeID) (kernel.Solid, error) {
	if s, ok := w.solids[id]; ok {
		return s, nil
	}
	if w.visiting[id] {
		return nil, fmt.Errorf("cycle through node %s", id.Short())
	}
	n := w.g.Get(id)
	if n == nil {
		return nil, fmt.Errorf("node %s does not exist", id.Short())
	}

	w.visiting[id] = true
	s, err := w.walkNode(n)
	delete(w.visiting, id)
	if err != nil {
		return nil, err
	}
	w.solids[id] = s
	return s, nil
}

func (w *walker) walkNode(n *graph.Node) (kernel.Solid, error) {
	switch n.Kind {
	case graph.NodePrimitive:
		return w.handlePrimitive(n)
	case graph.NodeTransform:
		return w.handleTransform(n)
	case graph.NodeBoolean:
		return w.handleBoolean(n)
	case graph.NodeOutput:
		return nil, fmt.Errorf("output node %s used as an operand", n.ID.Short())
	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// handlePrimitive creates geometry for a primitive node.
func (w *walker) handlePrimitive(n *graph.Node) (kernel.Solid, error) {
	switch data := n.Data.(type) {
	case graph.BoxData:
		return w.k.Box(data.Size.X, data.Size.Y, data.Size.Z), nil
	case graph.CylinderData:
		return w.k.Cylinder(data.Height, data.Radius, w.g.SegmentsFor(data.Segments)), nil
	case graph.SphereData:
		return w.k.Sphere(data.Radius, w.g.SegmentsFor(data.Segments)), nil
	case graph.ModelData:
		m, ok := w.models[data.Ref]
		if !ok || m == nil {
			return nil, fmt.Errorf("model %q: %w", data.Ref, ErrMissingModel)
		}
		s, err := w.k.Import(m)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", data.Ref, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
}

// handleTransform applies rotation first, then translation, to the child.
func (w *walker) handleTransform(n *graph.Node) (kernel.Solid, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	if len(n.Children) != 1 {
		return nil, fmt.Errorf("transform node %s has %d children", n.ID.Short(), len(n.Children))
	}
	s, err := w.solid(n.Children[0])
	if err != nil {
		return nil, err
	}
	if r := td.Rotation; r != nil && *r != (graph.Vec3{}) {
		s = w.k.Rotate(s, r.X, r.Y, r.Z)
	}
	if t := td.Translation; t != nil && *t != (graph.Vec3{}) {
		s = w.k.Translate(s, t.X, t.Y, t.Z)
	}
	return s, nil
}

// handleBoolean folds the children left to right.
func (w *walker) handleBoolean(n *graph.Node) (kernel.Solid, error) {
	bd, ok := n.Data.(graph.BooleanData)
	if !ok {
		return nil, fmt.Errorf("boolean node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	if len(n.Children) < 2 {
		return nil, fmt.Errorf("%s node %s has %d operands", bd.Op, n.ID.Short(), len(n.Children))
	}

	acc, err := w.solid(n.Children[0])
	if err != nil {
		return nil, err
	}
	for _, cid := range n.Children[1:] {
		next, err := w.solid(cid)
		if err != nil {
			return nil, err
		}
		switch bd.Op {
		case csg.OpUnion:
			acc = w.k.Union(acc, next)
		case csg.OpIntersect:
			acc = w.k.Intersection(acc, next)
		case csg.OpSubtract:
			acc = w.k.Difference(acc, next)
		default:
			return nil, fmt.Errorf("boolean node %s: unknown operation %s", n.ID.Short(), bd.Op)
		}
	}
	return acc, nil
}
