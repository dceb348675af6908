package csg

import (
	"fmt"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/carve/pkg/kernel"
)

// ToPolygons converts a triangle mesh to one polygon per triangle. Vertex
// positions are welded within eps first so that shared edges line up.
// Triangles that collapse or have area not above eps² are skipped. A
// vertex without a usable normal takes the face normal.
//
// Edges not shared by exactly two kept triangles are reported as a
// WarnNonManifoldInput warning; the polygons are returned regardless.
func ToPolygons(m *kernel.Mesh, eps float64) ([]*Polygon, []Warning, error) {
	if m == nil || m.IsEmpty() {
		return nil, nil, nil
	}
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}

	hasNormals := len(m.Normals) == len(m.Vertices)
	hasUVs := m.HasUVs()

	n := m.VertexCount()
	w := newWelder(eps, false, n)
	ids := make([]uint32, n)
	verts := make([]Vertex, n)
	for i := 0; i < n; i++ {
		v := Vertex{Pos: r3.Vec{
			X: float64(m.Vertices[3*i]),
			Y: float64(m.Vertices[3*i+1]),
			Z: float64(m.Vertices[3*i+2]),
		}}
		if hasNormals {
			v.Normal = r3.Vec{
				X: float64(m.Normals[3*i]),
				Y: float64(m.Normals[3*i+1]),
				Z: float64(m.Normals[3*i+2]),
			}
		}
		if hasUVs {
			v.UV = [2]float64{float64(m.UVs[2*i]), float64(m.UVs[2*i+1])}
			v.HasUV = true
		}
		ids[i] = w.insert(v)
		v.Pos = w.verts[ids[i]].Pos
		verts[i] = v
	}

	polys := make([]*Polygon, 0, m.TriangleCount())
	edges := make(map[[2]uint32]int, m.TriangleCount()*3/2)
	degenerate := 0
	for t := 0; t+2 < len(m.Indices); t += 3 {
		tri := [3]uint32{m.Indices[t], m.Indices[t+1], m.Indices[t+2]}
		a, b, c := ids[tri[0]], ids[tri[1]], ids[tri[2]]
		if a == b || b == c || a == c {
			degenerate++
			continue
		}
		vs := []Vertex{verts[tri[0]], verts[tri[1]], verts[tri[2]]}
		poly, err := NewPolygon(vs, eps)
		if err != nil {
			degenerate++
			continue
		}
		for i := range poly.Vertices {
			if r3.Norm(poly.Vertices[i].Normal) < 0.5 {
				poly.Vertices[i].Normal = poly.Plane.Normal
			} else {
				poly.Vertices[i].Normal = r3.Unit(poly.Vertices[i].Normal)
			}
		}
		polys = append(polys, poly)
		for _, e := range [][2]uint32{{a, b}, {b, c}, {c, a}} {
			if e[0] > e[1] {
				e[0], e[1] = e[1], e[0]
			}
			edges[e]++
		}
	}

	var warnings []Warning
	if degenerate > 0 {
		warnings = append(warnings, Warning{
			Code:    WarnDegenerateInput,
			Count:   degenerate,
			Message: fmt.Sprintf("skipped %d degenerate triangles", degenerate),
		})
	}
	open := 0
	for _, uses := range edges {
		if uses != 2 {
			open++
		}
	}
	if open > 0 {
		warnings = append(warnings, Warning{
			Code:    WarnNonManifoldInput,
			Count:   open,
			Message: fmt.Sprintf("%d edges are not shared by exactly two triangles", open),
		})
	}
	return polys, warnings, nil
}

// ToMesh fan-triangulates polygons into an indexed mesh. Triangles with
// area below eps² are dropped. Vertices are shared when position, normal
// and uv all agree within eps. UVs are emitted only when every vertex
// carries one.
func ToMesh(polygons []*Polygon, eps float64) *kernel.Mesh {
	withUV := len(polygons) > 0 && lo.EveryBy(polygons, func(p *Polygon) bool {
		return lo.EveryBy(p.Vertices, func(v Vertex) bool { return v.HasUV })
	})

	w := newWelder(eps, true, len(polygons)*3)
	var indices []uint32
	minArea := eps * eps
	for _, p := range polygons {
		vs := p.Vertices
		for i := 1; i+1 < len(vs); i++ {
			a, b, c := vs[0], vs[i], vs[i+1]
			area := r3.Norm(r3.Cross(r3.Sub(b.Pos, a.Pos), r3.Sub(c.Pos, a.Pos))) / 2
			if area < minArea {
				continue
			}
			for _, v := range [3]Vertex{a, b, c} {
				if !withUV {
					v.UV, v.HasUV = [2]float64{}, false
				}
				indices = append(indices, w.insert(v))
			}
		}
	}

	m := &kernel.Mesh{
		Vertices: make([]float32, 0, 3*len(w.verts)),
		Normals:  make([]float32, 0, 3*len(w.verts)),
		Indices:  indices,
	}
	if withUV {
		m.UVs = make([]float32, 0, 2*len(w.verts))
	}
	for _, v := range w.verts {
		m.Vertices = append(m.Vertices, float32(v.Pos.X), float32(v.Pos.Y), float32(v.Pos.Z))
		m.Normals = append(m.Normals, float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z))
		if withUV {
			m.UVs = append(m.UVs, float32(v.UV[0]), float32(v.UV[1]))
		}
	}
	return m
}
