package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/graph"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	kind string // builtin that produced the node, for error messages
	name string
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(%s %q)", n.kind, n.name)
	}
	return fmt.Sprintf("(%s %s)", n.kind, n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a graph.Vec3.
type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// only rejects keywords outside allowed, catching typos like :raduis.
func (a kwArgs) only(fn string, allowed ...string) error {
	for k := range a.kw {
		found := false
		for _, name := range allowed {
			if k == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: unknown keyword :%s", fn, k)
		}
	}
	return nil
}

// float reads a required numeric keyword.
func (a kwArgs) float(fn, key string) (float64, error) {
	v, ok := a.kw[key]
	if !ok {
		return 0, fmt.Errorf("%s: missing :%s", fn, key)
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return f, nil
}

// integer reads an optional integer keyword, returning 0 when absent.
func (a kwArgs) integer(fn, key string) (int, error) {
	v, ok := a.kw[key]
	if !ok {
		return 0, nil
	}
	i, ok := v.(*zygo.SexpInt)
	if !ok {
		return 0, fmt.Errorf("%s: %s: expected integer, got %s", fn, key, v.SexpString(nil))
	}
	return int(i.Val), nil
}

// str reads an optional string keyword, returning "" when absent.
func (a kwArgs) str(fn, key string) (string, error) {
	v, ok := a.kw[key]
	if !ok {
		return "", nil
	}
	s, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return s, nil
}

// vec reads an optional vec3 keyword, returning nil when absent.
func (a kwArgs) vec(fn, key string) (*graph.Vec3, error) {
	v, ok := a.kw[key]
	if !ok {
		return nil, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return &vec, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok && !strings.HasPrefix(str.S, kwPrefix) {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (graph.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return graph.ZeroID, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Graph builder
// ---------------------------------------------------------------------------

// builder accumulates the graph for one evaluation. Anonymous nodes are
// numbered per builtin in call order, so the same source always yields the
// same node IDs.
type builder struct {
	g       *graph.Graph
	counter map[string]int
}

func newBuilder(g *graph.Graph) *builder {
	return &builder{g: g, counter: make(map[string]int)}
}

// add registers a node produced by builtin fn. Named nodes are keyed by
// name; a name may be bound only once per recipe.
func (b *builder) add(fn, name string, kind graph.NodeKind, data graph.NodeData, children ...graph.NodeID) (zygo.Sexp, error) {
	var path string
	if name != "" {
		if b.g.Lookup(name) != nil {
			return zygo.SexpNull, fmt.Errorf("%s: name %q already defined", fn, name)
		}
		path = "named/" + name
	} else {
		b.counter[fn]++
		path = fmt.Sprintf("%s/%d", fn, b.counter[fn])
	}
	id := graph.NewNodeID(path)
	b.g.AddNode(&graph.Node{
		ID:       id,
		Kind:     kind,
		Name:     name,
		Children: children,
		Data:     data,
	})
	return &sexpNodeRef{id: id, kind: fn, name: name}, nil
}

type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the recipe builtins into a zygomys environment.
// The builtins populate g during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, g *graph.Graph) {
	b := newBuilder(g)

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: graph.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// (box 10 20 30 :name "block") or (box :size (vec3 10 20 30))
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("box", "size", "name"); err != nil {
			return zygo.SexpNull, err
		}
		var size graph.Vec3
		switch {
		case len(pa.positional) == 3:
			var xyz [3]float64
			for i, arg := range pa.positional {
				f, err := toFloat64(arg)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("box: dimension %d: %w", i+1, err)
				}
				xyz[i] = f
			}
			size = graph.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		case len(pa.positional) == 0:
			v, err := pa.vec("box", "size")
			if err != nil {
				return zygo.SexpNull, err
			}
			if v == nil {
				return zygo.SexpNull, fmt.Errorf("box requires three dimensions or :size")
			}
			size = *v
		default:
			return zygo.SexpNull, fmt.Errorf("box requires three dimensions, got %d", len(pa.positional))
		}
		nodeName, err := pa.str("box", "name")
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.add("box", nodeName, graph.NodePrimitive, graph.BoxData{Size: size})
	})

	// (cylinder :radius 5 :height 40 :segments 64 :name "cutter")
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("cylinder", "radius", "height", "segments", "name"); err != nil {
			return zygo.SexpNull, err
		}
		radius, err := pa.float("cylinder", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		height, err := pa.float("cylinder", "height")
		if err != nil {
			return zygo.SexpNull, err
		}
		segments, err := pa.integer("cylinder", "segments")
		if err != nil {
			return zygo.SexpNull, err
		}
		nodeName, err := pa.str("cylinder", "name")
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.add("cylinder", nodeName, graph.NodePrimitive,
			graph.CylinderData{Radius: radius, Height: height, Segments: segments})
	})

	// (sphere :radius 10 :segments 32)
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("sphere", "radius", "segments", "name"); err != nil {
			return zygo.SexpNull, err
		}
		radius, err := pa.float("sphere", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		segments, err := pa.integer("sphere", "segments")
		if err != nil {
			return zygo.SexpNull, err
		}
		nodeName, err := pa.str("sphere", "name")
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.add("sphere", nodeName, graph.NodePrimitive,
			graph.SphereData{Radius: radius, Segments: segments})
	})

	// (model "scan.stl" :name "scan")
	env.AddFunction("model", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("model", "name"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("model requires a reference argument")
		}
		ref, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("model: ref: %w", err)
		}
		nodeName, err := pa.str("model", "name")
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.add("model", nodeName, graph.NodePrimitive, graph.ModelData{Ref: ref})
	})

	// (shape "scan") looks up a named node.
	env.AddFunction("shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("shape requires a name argument")
		}
		shapeName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: name: %w", err)
		}
		n := g.Lookup(shapeName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("shape: no shape named %q", shapeName)
		}
		return &sexpNodeRef{id: n.ID, kind: "shape", name: shapeName}, nil
	})

	// (place (shape "cutter") :at (vec3 0 0 19) :rotate (vec3 90 0 0))
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("place", "at", "rotate", "name"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a shape as first argument")
		}
		childID, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		var td graph.TransformData
		if td.Translation, err = pa.vec("place", "at"); err != nil {
			return zygo.SexpNull, err
		}
		if td.Rotation, err = pa.vec("place", "rotate"); err != nil {
			return zygo.SexpNull, err
		}
		nodeName, err := pa.str("place", "name")
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.add("place", nodeName, graph.NodeTransform, td, childID)
	})

	// (union a b ...), (intersect a b ...), (subtract a b ...)
	for _, op := range []csg.Op{csg.OpUnion, csg.OpIntersect, csg.OpSubtract} {
		env.AddFunction(op.String(), booleanBuiltin(b, op))
	}

	// (output "crop" shape :color "#c08040")
	env.AddFunction("output", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("output", "color"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("output requires a name and a shape")
		}
		outName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("output: name: %w", err)
		}
		childID, err := toNodeRef(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("output: %w", err)
		}
		color, err := pa.str("output", "color")
		if err != nil {
			return zygo.SexpNull, err
		}
		for _, o := range g.Outputs() {
			if o.Data.(graph.OutputData).Name == outName {
				return zygo.SexpNull, fmt.Errorf("output: %q already declared", outName)
			}
		}
		// Outputs live in their own namespace: "crop" may name both a
		// shape and an output.
		id := graph.NewNodeID("output/" + outName)
		g.AddNode(&graph.Node{
			ID:       id,
			Kind:     graph.NodeOutput,
			Children: []graph.NodeID{childID},
			Data:     graph.OutputData{Name: outName, Color: color},
		})
		g.AddRoot(id)
		return &sexpNodeRef{id: id, kind: "output", name: outName}, nil
	})

	// (tolerance 1e-5) sets the relative boolean tolerance.
	env.AddFunction("tolerance", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("tolerance requires exactly 1 argument, got %d", len(args))
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tolerance: %w", err)
		}
		g.Settings.Tolerance = f
		return args[0], nil
	})

	// (segments 96) sets the default segments for round primitives.
	env.AddFunction("segments", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("segments requires exactly 1 argument, got %d", len(args))
		}
		n, ok := args[0].(*zygo.SexpInt)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("segments: expected integer, got %s", args[0].SexpString(nil))
		}
		g.Settings.Segments = int(n.Val)
		return args[0], nil
	})
}

// booleanBuiltin returns the builtin folding its shape arguments with op.
func booleanBuiltin(b *builder, op csg.Op) builtinFunc {
	fn := op.String()
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only(fn, "name"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires at least 2 shapes, got %d", fn, len(pa.positional))
		}
		children := make([]graph.NodeID, 0, len(pa.positional))
		for i, arg := range pa.positional {
			id, err := toNodeRef(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", fn, i+1, err)
			}
			children = append(children, id)
		}
		nodeName, err := pa.str(fn, "name")
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.add(fn, nodeName, graph.NodeBoolean, graph.BooleanData{Op: op}, children...)
	}
}
