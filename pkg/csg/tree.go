package csg

// node is one BSP cell. A nil child is an empty subtree. Children are
// owned exclusively by their parent.
type node struct {
	plane    Plane
	polygons []*Polygon
	front    *node
	back     *node
}

// Tree is a BSP tree over a solid's boundary polygons. A tree with no root
// describes empty space. All traversals use explicit stacks, so trees of
// any depth up to the session limit are safe.
type Tree struct {
	root *node
	s    *Session
}

// NewTree returns an empty tree bound to s.
func NewTree(s *Session) *Tree {
	return &Tree{s: s}
}

// Build returns a tree over polygons. The partition plane of each node is
// the plane of the first polygon that reaches it.
func Build(s *Session, polygons []*Polygon) (*Tree, error) {
	t := NewTree(s)
	if err := t.Build(polygons); err != nil {
		return nil, err
	}
	return t, nil
}

// IsEmpty reports whether the tree holds no polygons.
func (t *Tree) IsEmpty() bool {
	return t.root == nil
}

// Build inserts polygons into the tree, extending existing nodes.
func (t *Tree) Build(polygons []*Polygon) error {
	if len(polygons) == 0 {
		return nil
	}
	if t.root == nil {
		t.root = &node{plane: polygons[0].Plane}
	}

	type item struct {
		n     *node
		polys []*Polygon
		depth int
	}
	eps := t.s.eps
	var sp splitter
	stack := []item{{t.root, polygons, 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := t.s.checkDepth(it.depth); err != nil {
			return err
		}

		n := it.n
		before := len(n.polygons)
		var front, back []*Polygon
		for _, p := range it.polys {
			if err := t.s.step(); err != nil {
				return err
			}
			sp.split(p, n.plane, eps, &front, &back, &n.polygons, &n.polygons)
		}
		if err := t.s.charge(len(front) + len(back) + len(n.polygons) - before - len(it.polys)); err != nil {
			return err
		}

		if len(back) > 0 {
			if n.back == nil {
				n.back = &node{plane: back[0].Plane}
			}
			stack = append(stack, item{n.back, back, it.depth + 1})
		}
		if len(front) > 0 {
			if n.front == nil {
				n.front = &node{plane: front[0].Plane}
			}
			stack = append(stack, item{n.front, front, it.depth + 1})
		}
	}
	return nil
}

// AllPolygons returns every polygon in the tree, in order: front subtree,
// node, back subtree.
func (t *Tree) AllPolygons() []*Polygon {
	if t.root == nil {
		return nil
	}
	type item struct {
		n    *node
		emit bool
	}
	var out []*Polygon
	stack := []item{{n: t.root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.emit {
			out = append(out, it.n.polygons...)
			continue
		}
		if it.n.back != nil {
			stack = append(stack, item{n: it.n.back})
		}
		stack = append(stack, item{n: it.n, emit: true})
		if it.n.front != nil {
			stack = append(stack, item{n: it.n.front})
		}
	}
	return out
}

// Clone returns a structural copy. Polygons are immutable and shared.
func (t *Tree) Clone() *Tree {
	out := &Tree{s: t.s}
	if t.root == nil {
		return out
	}
	type pair struct{ src, dst *node }
	out.root = &node{}
	stack := []pair{{t.root, out.root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p.dst.plane = p.src.plane
		p.dst.polygons = append([]*Polygon(nil), p.src.polygons...)
		if p.src.front != nil {
			p.dst.front = &node{}
			stack = append(stack, pair{p.src.front, p.dst.front})
		}
		if p.src.back != nil {
			p.dst.back = &node{}
			stack = append(stack, pair{p.src.back, p.dst.back})
		}
	}
	return out
}

// Invert returns the complement: every plane and polygon flipped and the
// front and back children swapped.
func (t *Tree) Invert() *Tree {
	out := t.Clone()
	out.invert()
	return out
}

func (t *Tree) invert() {
	if t.root == nil {
		return
	}
	stack := []*node{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i, p := range n.polygons {
			n.polygons[i] = p.Flip()
		}
		n.plane = n.plane.Flip()
		n.front, n.back = n.back, n.front
		if n.front != nil {
			stack = append(stack, n.front)
		}
		if n.back != nil {
			stack = append(stack, n.back)
		}
	}
}

// ClipPolygons removes the parts of polygons that lie inside the solid the
// tree describes. Polygons coplanar with a node follow their orientation.
// An empty tree keeps everything.
func (t *Tree) ClipPolygons(polygons []*Polygon) ([]*Polygon, error) {
	if t.root == nil {
		return append([]*Polygon(nil), polygons...), nil
	}

	type item struct {
		n     *node
		polys []*Polygon
	}
	eps := t.s.eps
	var sp splitter
	var out []*Polygon
	stack := []item{{t.root, polygons}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var front, back []*Polygon
		for _, p := range it.polys {
			if err := t.s.step(); err != nil {
				return nil, err
			}
			sp.split(p, it.n.plane, eps, &front, &back, &front, &back)
		}
		if err := t.s.charge(len(front) + len(back) - len(it.polys)); err != nil {
			return nil, err
		}

		// Back fragments without a back child are inside and dropped.
		if it.n.back != nil && len(back) > 0 {
			stack = append(stack, item{it.n.back, back})
		}
		if it.n.front == nil {
			out = append(out, front...)
		} else if len(front) > 0 {
			stack = append(stack, item{it.n.front, front})
		}
	}
	return out, nil
}

// ClipTo returns a tree with t's structure whose polygons have the parts
// inside other removed.
func (t *Tree) ClipTo(other *Tree) (*Tree, error) {
	out := t.Clone()
	if err := out.clipTo(other); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tree) clipTo(other *Tree) error {
	if t.root == nil {
		return nil
	}
	stack := []*node{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		clipped, err := other.ClipPolygons(n.polygons)
		if err != nil {
			return err
		}
		n.polygons = clipped
		if n.back != nil {
			stack = append(stack, n.back)
		}
		if n.front != nil {
			stack = append(stack, n.front)
		}
	}
	return nil
}
