package csg

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type cellKey [3]int64

// welder merges vertices that agree within eps. Candidates are found in a
// uniform hash grid with cell size eps, so a lookup visits the 27 cells
// around the query point.
type welder struct {
	eps   float64
	attrs bool // compare normal and uv as well as position
	grid  map[cellKey][]uint32
	verts []Vertex
}

func newWelder(eps float64, attrs bool, sizeHint int) *welder {
	if eps <= 0 {
		eps = math.SmallestNonzeroFloat64
	}
	return &welder{
		eps:   eps,
		attrs: attrs,
		grid:  make(map[cellKey][]uint32, sizeHint),
		verts: make([]Vertex, 0, sizeHint),
	}
}

func (w *welder) key(p r3.Vec) cellKey {
	return cellKey{
		int64(math.Floor(p.X / w.eps)),
		int64(math.Floor(p.Y / w.eps)),
		int64(math.Floor(p.Z / w.eps)),
	}
}

func (w *welder) match(a, b Vertex) bool {
	if w.attrs {
		return a.Equal(b, w.eps)
	}
	return vecNear(a.Pos, b.Pos, w.eps)
}

// insert returns the index of a stored vertex matching v, adding v when
// none matches. The first vertex inserted into a cluster wins.
func (w *welder) insert(v Vertex) uint32 {
	k := w.key(v.Pos)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, idx := range w.grid[cellKey{k[0] + dx, k[1] + dy, k[2] + dz}] {
					if w.match(w.verts[idx], v) {
						return idx
					}
				}
			}
		}
	}
	idx := uint32(len(w.verts))
	w.verts = append(w.verts, v)
	w.grid[k] = append(w.grid[k], idx)
	return idx
}
