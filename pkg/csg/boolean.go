package csg

// Union returns the boundary of the space inside a or b. Where faces of a
// and b coincide, the face of a is kept.
func Union(s *Session, a, b []*Polygon) ([]*Polygon, error) {
	switch {
	case len(a) == 0:
		return clonePolygons(b), nil
	case len(b) == 0:
		return clonePolygons(a), nil
	}
	ta, tb, err := buildPair(s, a, b)
	if err != nil {
		return nil, err
	}
	if err := ta.clipTo(tb); err != nil {
		return nil, err
	}
	if err := tb.clipTo(ta); err != nil {
		return nil, err
	}
	tb.invert()
	if err := tb.clipTo(ta); err != nil {
		return nil, err
	}
	tb.invert()
	if err := ta.Build(tb.AllPolygons()); err != nil {
		return nil, err
	}
	return ta.AllPolygons(), nil
}

// Intersect returns the boundary of the space inside both a and b.
func Intersect(s *Session, a, b []*Polygon) ([]*Polygon, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, nil
	}
	ta, tb, err := buildPair(s, a, b)
	if err != nil {
		return nil, err
	}
	ta.invert()
	if err := tb.clipTo(ta); err != nil {
		return nil, err
	}
	tb.invert()
	if err := ta.clipTo(tb); err != nil {
		return nil, err
	}
	if err := tb.clipTo(ta); err != nil {
		return nil, err
	}
	if err := ta.Build(tb.AllPolygons()); err != nil {
		return nil, err
	}
	ta.invert()
	return ta.AllPolygons(), nil
}

// Subtract returns the boundary of the space inside a and outside b.
func Subtract(s *Session, a, b []*Polygon) ([]*Polygon, error) {
	switch {
	case len(a) == 0:
		return nil, nil
	case len(b) == 0:
		return clonePolygons(a), nil
	}
	ta, tb, err := buildPair(s, a, b)
	if err != nil {
		return nil, err
	}
	ta.invert()
	if err := ta.clipTo(tb); err != nil {
		return nil, err
	}
	if err := tb.clipTo(ta); err != nil {
		return nil, err
	}
	tb.invert()
	if err := tb.clipTo(ta); err != nil {
		return nil, err
	}
	tb.invert()
	if err := ta.Build(tb.AllPolygons()); err != nil {
		return nil, err
	}
	ta.invert()
	return ta.AllPolygons(), nil
}

func buildPair(s *Session, a, b []*Polygon) (*Tree, *Tree, error) {
	ta, err := Build(s, a)
	if err != nil {
		return nil, nil, err
	}
	tb, err := Build(s, b)
	if err != nil {
		return nil, nil, err
	}
	return ta, tb, nil
}

func clonePolygons(ps []*Polygon) []*Polygon {
	return append([]*Polygon(nil), ps...)
}
