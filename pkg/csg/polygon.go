package csg

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Polygon is a convex, planar loop of at least three vertices. Polygons are
// immutable: splitting and flipping produce new values.
type Polygon struct {
	Vertices []Vertex
	Plane    Plane
}

// NewPolygon builds a polygon and derives its plane from the first three
// non-collinear vertices. It fails with ErrDegeneratePolygon when fewer
// than three vertices are given or the area is not above eps².
func NewPolygon(vertices []Vertex, eps float64) (*Polygon, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("%w: %d vertices", ErrDegeneratePolygon, len(vertices))
	}
	plane, ok := firstPlane(vertices, eps)
	if !ok {
		return nil, fmt.Errorf("%w: collinear vertices", ErrDegeneratePolygon)
	}
	p := &Polygon{Vertices: vertices, Plane: plane}
	if p.Area() <= eps*eps {
		return nil, fmt.Errorf("%w: area %g", ErrDegeneratePolygon, p.Area())
	}
	return p, nil
}

// withPlane builds a polygon that shares an already known plane. Split
// fragments use it so they stay exactly on their parent's plane.
func withPlane(vertices []Vertex, plane Plane) *Polygon {
	return &Polygon{Vertices: vertices, Plane: plane}
}

func firstPlane(vs []Vertex, eps float64) (Plane, bool) {
	a := vs[0].Pos
	for j := 1; j < len(vs)-1; j++ {
		for k := j + 1; k < len(vs); k++ {
			if pl, ok := PlaneFromPoints(a, vs[j].Pos, vs[k].Pos, eps); ok {
				return pl, true
			}
		}
	}
	return Plane{}, false
}

// Flip returns the polygon with reversed winding, normals and plane.
func (p *Polygon) Flip() *Polygon {
	n := len(p.Vertices)
	vs := make([]Vertex, n)
	for i, v := range p.Vertices {
		vs[n-1-i] = v.Flip()
	}
	return &Polygon{Vertices: vs, Plane: p.Plane.Flip()}
}

// Area returns the polygon area measured with Newell's method.
func (p *Polygon) Area() float64 {
	var sum r3.Vec
	for i, v := range p.Vertices {
		next := p.Vertices[(i+1)%len(p.Vertices)]
		sum = r3.Add(sum, r3.Cross(v.Pos, next.Pos))
	}
	return r3.Norm(sum) / 2
}

// bounds returns the axis-aligned box of the polygon's positions.
func (p *Polygon) bounds() (min, max r3.Vec) {
	min, max = p.Vertices[0].Pos, p.Vertices[0].Pos
	for _, v := range p.Vertices[1:] {
		min = vecMin(min, v.Pos)
		max = vecMax(max, v.Pos)
	}
	return min, max
}
