package csg

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Side is the classification of a point or polygon against a plane.
// It is a bit set: a polygon with vertices on both strict sides is
// Front|Back, which is Spanning.
type Side int

const (
	Coplanar Side = 0
	Front    Side = 1
	Back     Side = 2
	Spanning Side = Front | Back
)

func (s Side) String() string {
	switch s {
	case Coplanar:
		return "coplanar"
	case Front:
		return "front"
	case Back:
		return "back"
	case Spanning:
		return "spanning"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Plane is the set of points p with Normal·p == W. Normal is unit length.
type Plane struct {
	Normal r3.Vec
	W      float64
}

// PlaneFromPoints returns the plane through a, b, c with the normal given by
// the right-hand rule. ok is false when the points are collinear within
// eps, that is when the triangle abc has area not above eps².
func PlaneFromPoints(a, b, c r3.Vec, eps float64) (Plane, bool) {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(n)
	if l/2 <= eps*eps {
		return Plane{}, false
	}
	n = r3.Scale(1/l, n)
	return Plane{Normal: n, W: r3.Dot(n, a)}, true
}

// Flip returns the plane facing the opposite direction.
func (p Plane) Flip() Plane {
	return Plane{Normal: r3.Scale(-1, p.Normal), W: -p.W}
}

// Distance returns the signed distance from the plane to pt.
func (p Plane) Distance(pt r3.Vec) float64 {
	return r3.Dot(p.Normal, pt) - p.W
}

// ClassifyPoint compares the signed distance of pt to ±eps. A distance of
// exactly ±eps is Coplanar, never Front or Back.
func ClassifyPoint(p Plane, pt r3.Vec, eps float64) Side {
	d := p.Distance(pt)
	switch {
	case d > eps:
		return Front
	case d < -eps:
		return Back
	default:
		return Coplanar
	}
}

// ClassifyPolygon returns Coplanar when every vertex is coplanar, Front or
// Back when every vertex is on that side or coplanar, and Spanning when
// vertices lie on both strict sides.
func ClassifyPolygon(p Plane, poly *Polygon, eps float64) Side {
	side := Coplanar
	for _, v := range poly.Vertices {
		side |= ClassifyPoint(p, v.Pos, eps)
	}
	return side
}
