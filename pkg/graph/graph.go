package graph

import (
	"slices"

	"github.com/samber/lo"
)

// DefaultSegments is the cylinder and sphere tessellation used when a
// primitive does not set its own.
const DefaultSegments = 48

// Settings contains graph-wide settings set by the recipe.
type Settings struct {
	Tolerance float64 `json:"tolerance"` // relative boolean tolerance, 0 = engine default
	Segments  int     `json:"segments"`  // default segments for round primitives
}

// Graph is the top-level immutable data structure produced by recipe
// evaluation. It is never mutated in place; each evaluation produces a new
// graph. Roots lists the output nodes in declaration order.
type Graph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Settings  Settings          `json:"settings"`
	Version   uint64            `json:"version"`
}

// New creates an empty Graph with default settings.
func New() *Graph {
	return &Graph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Settings:  Settings{Segments: DefaultSegments},
	}
}

// AddNode adds a node to the graph. It does not check for duplicates.
func (g *Graph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the graph.
func (g *Graph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *Graph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// Get returns the node with the given ID, or nil.
func (g *Graph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Outputs returns the output nodes in declaration order.
func (g *Graph) Outputs() []*Node {
	var outs []*Node
	for _, id := range g.Roots {
		if n := g.Nodes[id]; n != nil && n.Kind == NodeOutput {
			outs = append(outs, n)
		}
	}
	return outs
}

// ModelRefs returns the distinct model references in the graph, sorted.
func (g *Graph) ModelRefs() []string {
	var refs []string
	for _, n := range g.Nodes {
		if md, ok := n.Data.(ModelData); ok {
			refs = append(refs, md.Ref)
		}
	}
	refs = lo.Uniq(refs)
	slices.Sort(refs)
	return refs
}

// Children returns the child nodes of the given node.
func (g *Graph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// SegmentsFor returns n, or the graph default when n is 0.
func (g *Graph) SegmentsFor(n int) int {
	if n != 0 {
		return n
	}
	if g.Settings.Segments != 0 {
		return g.Settings.Segments
	}
	return DefaultSegments
}
