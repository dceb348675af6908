package csg

import "gonum.org/v1/gonum/spatial/r3"

// Split partitions poly by plane. Coplanar polygons land in coplanarFront
// when their normal agrees with the plane and in coplanarBack otherwise.
// Spanning polygons are cut along the plane; the new vertices appear in
// both halves. Fragments keep poly's plane, and fragments with fewer than
// three vertices are discarded.
func Split(poly *Polygon, plane Plane, eps float64) (front, back, coplanarFront, coplanarBack []*Polygon) {
	var s splitter
	s.split(poly, plane, eps, &front, &back, &coplanarFront, &coplanarBack)
	return front, back, coplanarFront, coplanarBack
}

// splitter reuses its scratch slice across calls.
type splitter struct {
	sides []Side
}

func (s *splitter) split(poly *Polygon, plane Plane, eps float64, front, back, coplanarFront, coplanarBack *[]*Polygon) {
	n := len(poly.Vertices)
	if cap(s.sides) < n {
		s.sides = make([]Side, n)
	}
	sides := s.sides[:n]

	kind := Coplanar
	for i, v := range poly.Vertices {
		sides[i] = ClassifyPoint(plane, v.Pos, eps)
		kind |= sides[i]
	}

	switch kind {
	case Coplanar:
		if r3.Dot(plane.Normal, poly.Plane.Normal) > 0 {
			*coplanarFront = append(*coplanarFront, poly)
		} else {
			*coplanarBack = append(*coplanarBack, poly)
		}
	case Front:
		*front = append(*front, poly)
	case Back:
		*back = append(*back, poly)
	case Spanning:
		f := make([]Vertex, 0, n+1)
		b := make([]Vertex, 0, n+1)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			si, sj := sides[i], sides[j]
			vi, vj := poly.Vertices[i], poly.Vertices[j]
			if si != Back {
				f = append(f, vi)
			}
			if si != Front {
				b = append(b, vi)
			}
			if si|sj == Spanning {
				denom := r3.Dot(plane.Normal, r3.Sub(vj.Pos, vi.Pos))
				t := (plane.W - r3.Dot(plane.Normal, vi.Pos)) / denom
				v := vi.Interpolate(vj, t)
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*front = append(*front, withPlane(f, poly.Plane))
		}
		if len(b) >= 3 {
			*back = append(*back, withPlane(b, poly.Plane))
		}
	}
}
