// Package stl reads ASCII and binary STL files into kernel meshes and
// writes meshes back out.
package stl

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/carve/pkg/kernel"
)

// Parse reads an ASCII or binary STL file and returns its mesh. Reading
// is done by sdfx, which tells the two formats apart by file size. The
// part name is the file name without its extension.
func Parse(filename string) (m *kernel.Mesh, err error) {
	// sdfx indexes past the end of an ASCII file whose vertex count is not
	// a multiple of three.
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("error reading STL %s: truncated facet", filename)
		}
	}()

	tris, err := render.LoadSTL(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading STL %s: %w", filename, err)
	}
	if len(tris) == 0 {
		return nil, fmt.Errorf("error reading STL %s: no facets", filename)
	}
	m = FromTriangles(tris)
	m.PartName = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return m, nil
}

// FromTriangles builds a flat-shaded mesh from sdfx triangles: three
// vertices per triangle, each carrying the face normal.
func FromTriangles(tris []*sdf.Triangle3) *kernel.Mesh {
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, 9*len(tris)),
		Normals:  make([]float32, 0, 9*len(tris)),
		Indices:  make([]uint32, 0, 3*len(tris)),
	}
	for _, tri := range tris {
		n := tri.Normal()
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
			n = v3.Vec{}
		}
		base := uint32(len(m.Vertices) / 3)
		for _, p := range tri {
			m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
		m.Indices = append(m.Indices, base, base+1, base+2)
	}
	return m
}

// Triangles converts a mesh to sdfx triangles.
func Triangles(m *kernel.Mesh) []*sdf.Triangle3 {
	tris := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for t := 0; t+2 < len(m.Indices); t += 3 {
		var tri sdf.Triangle3
		for j := 0; j < 3; j++ {
			p := m.Position(m.Indices[t+j])
			tri[j] = v3.Vec{X: p[0], Y: p[1], Z: p[2]}
		}
		tris = append(tris, &tri)
	}
	return tris
}

// Save writes m as a binary STL file.
func Save(path string, m *kernel.Mesh) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := render.SaveSTL(path, Triangles(m)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WriteASCII writes m as an ASCII STL solid called name.
func WriteASCII(w io.Writer, name string, m *kernel.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for _, tri := range Triangles(m) {
		n := tri.Normal()
		fmt.Fprintf(bw, "  facet normal %g %g %g\n    outer loop\n", n.X, n.Y, n.Z)
		for _, v := range tri {
			fmt.Fprintf(bw, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintf(bw, "    endloop\n  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}
