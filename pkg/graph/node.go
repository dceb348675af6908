package graph

// NodeKind enumerates the types of nodes in the recipe graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // box, cylinder, sphere or imported model
	NodeTransform                 // spatial transformation (place)
	NodeBoolean                   // union, intersect or subtract
	NodeOutput                    // named result handed to the tessellator
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeTransform:
		return "transform"
	case NodeBoolean:
		return "boolean"
	case NodeOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the recipe graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
