package graph

import (
	"fmt"

	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/shape"
)

// ValidationSeverity indicates whether a validation finding blocks
// tessellation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks tessellation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult separates blocking errors from advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether the result carries no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs every structural and geometric check on the graph and
// returns the findings. An empty slice means the graph is valid. The graph
// is never mutated.
func Validate(g *Graph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateArity(g)...)
	errs = append(errs, validatePrimitives(g)...)
	errs = append(errs, validateSettings(g)...)
	return errs
}

// ValidateAll runs Validate and splits the findings by severity.
func ValidateAll(g *Graph) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(g) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				NodeID:  e.NodeID,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
func validateDAG(g *Graph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		node, ok := g.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}
		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for id := range g.Nodes {
		if color[id] == white {
			if visit(id) {
				break
			}
		}
	}
	return errs
}

// validateReferences checks that every child reference points to a node
// in g.Nodes.
func validateReferences(g *Graph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateNames checks that every NameIndex entry points to an existing
// node and that no two nodes share a name.
func validateNames(g *Graph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateRoots checks that every root is an existing output node and warns
// about nodes no output depends on.
func validateRoots(g *Graph) []ValidationError {
	var errs []ValidationError

	for _, rid := range g.Roots {
		n, ok := g.Nodes[rid]
		if !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
			continue
		}
		if n.Kind != NodeOutput {
			errs = append(errs, ValidationError{
				NodeID:   rid,
				Message:  fmt.Sprintf("root is a %s node, not an output", n.Kind),
				Severity: SeverityError,
			})
		}
	}

	if len(g.Nodes) == 0 {
		return errs
	}
	if len(g.Roots) == 0 {
		errs = append(errs, ValidationError{
			Message:  "recipe declares no outputs",
			Severity: SeverityWarning,
		})
	}

	// BFS from all roots through Children edges.
	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		node := g.Nodes[current]
		if node == nil {
			continue
		}
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	for id, node := range g.Nodes {
		if !reachable[id] {
			name := node.Name
			if name == "" {
				name = id.Short()
			}
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node %q is not used by any output (orphan)", name),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateArity checks child counts and payload types per node kind.
func validateArity(g *Graph) []ValidationError {
	var errs []ValidationError
	bad := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for _, n := range g.Nodes {
		switch n.Kind {
		case NodePrimitive:
			if _, ok := PrimitiveOf(n.Data); !ok {
				bad(n, "primitive node carries %T", n.Data)
			}
			if len(n.Children) != 0 {
				bad(n, "primitive has %d children, want 0", len(n.Children))
			}
		case NodeTransform:
			if _, ok := n.Data.(TransformData); !ok {
				bad(n, "transform node carries %T", n.Data)
			}
			if len(n.Children) != 1 {
				bad(n, "transform has %d children, want 1", len(n.Children))
			}
		case NodeBoolean:
			bd, ok := n.Data.(BooleanData)
			if !ok {
				bad(n, "boolean node carries %T", n.Data)
				continue
			}
			if bd.Op < csg.OpUnion || bd.Op > csg.OpSubtract {
				bad(n, "unknown boolean operation %s", bd.Op)
			}
			if len(n.Children) < 2 {
				bad(n, "%s has %d operands, want at least 2", bd.Op, len(n.Children))
			}
		case NodeOutput:
			od, ok := n.Data.(OutputData)
			if !ok {
				bad(n, "output node carries %T", n.Data)
				continue
			}
			if od.Name == "" {
				bad(n, "output has no name")
			}
			if len(n.Children) != 1 {
				bad(n, "output %q has %d children, want 1", od.Name, len(n.Children))
			}
		default:
			bad(n, "unknown node kind %d", int(n.Kind))
		}
	}

	// Outputs are sinks: nothing may consume them.
	for _, n := range g.Nodes {
		for _, cid := range n.Children {
			if c := g.Nodes[cid]; c != nil && c.Kind == NodeOutput {
				bad(n, "output %q used as an operand", c.Name)
			}
		}
	}
	return errs
}

// validatePrimitives checks that dimensions are positive and that round
// primitives have enough segments.
func validatePrimitives(g *Graph) []ValidationError {
	var errs []ValidationError
	bad := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for _, n := range g.Nodes {
		switch d := n.Data.(type) {
		case BoxData:
			if d.Size.X <= 0 || d.Size.Y <= 0 || d.Size.Z <= 0 {
				bad(n, "box size %s must be positive", d.Size)
			}
		case CylinderData:
			if d.Radius <= 0 || d.Height <= 0 {
				bad(n, "cylinder radius %g and height %g must be positive", d.Radius, d.Height)
			}
			if s := g.SegmentsFor(d.Segments); s < shape.MinSegments {
				bad(n, "cylinder has %d segments, want at least %d", s, shape.MinSegments)
			}
		case SphereData:
			if d.Radius <= 0 {
				bad(n, "sphere radius %g must be positive", d.Radius)
			}
			if s := g.SegmentsFor(d.Segments); s < shape.MinSegments {
				bad(n, "sphere has %d segments, want at least %d", s, shape.MinSegments)
			}
		case ModelData:
			if d.Ref == "" {
				bad(n, "model has an empty reference")
			}
		}
	}
	return errs
}

func validateSettings(g *Graph) []ValidationError {
	var errs []ValidationError
	if g.Settings.Tolerance < 0 {
		errs = append(errs, ValidationError{
			Message:  fmt.Sprintf("tolerance %g must not be negative", g.Settings.Tolerance),
			Severity: SeverityError,
		})
	} else if g.Settings.Tolerance > 1e-2 {
		errs = append(errs, ValidationError{
			Message:  fmt.Sprintf("tolerance %g is coarse and will merge distinct features", g.Settings.Tolerance),
			Severity: SeverityWarning,
		})
	}
	return errs
}
