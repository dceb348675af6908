package shape

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/carve/pkg/kernel"
)

// Placement positions a mesh: rotation by Euler angles in degrees, applied
// X then Y then Z, followed by a translation.
type Placement struct {
	Rotate    [3]float64 `yaml:"rotate" json:"rotate"`
	Translate [3]float64 `yaml:"translate" json:"translate"`
}

// Matrix returns the placement as an sdfx transform.
func (p Placement) Matrix() sdf.M44 {
	rx := p.Rotate[0] * math.Pi / 180.0
	ry := p.Rotate[1] * math.Pi / 180.0
	rz := p.Rotate[2] * math.Pi / 180.0
	rot := sdf.RotateZ(rz).Mul(sdf.RotateY(ry)).Mul(sdf.RotateX(rx))
	return sdf.Translate3d(v3.Vec{X: p.Translate[0], Y: p.Translate[1], Z: p.Translate[2]}).Mul(rot)
}

// IsIdentity reports whether the placement leaves meshes unchanged.
func (p Placement) IsIdentity() bool {
	return p.Rotate == [3]float64{} && p.Translate == [3]float64{}
}

// Translation returns a matrix moving by (x, y, z).
func Translation(x, y, z float64) sdf.M44 {
	return sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
}

// Rotation returns a matrix rotating by Euler angles in degrees.
func Rotation(x, y, z float64) sdf.M44 {
	return Placement{Rotate: [3]float64{x, y, z}}.Matrix()
}

// Transform returns a copy of m with positions mapped by t. Normals are
// mapped by t's linear part and renormalized, which is exact for the rigid
// transforms placements produce.
func Transform(m *kernel.Mesh, t sdf.M44) *kernel.Mesh {
	out := m.Clone()
	if out == nil {
		return nil
	}
	origin := t.MulPosition(v3.Vec{})
	for i := 0; i+2 < len(out.Vertices); i += 3 {
		p := t.MulPosition(v3.Vec{
			X: float64(out.Vertices[i]),
			Y: float64(out.Vertices[i+1]),
			Z: float64(out.Vertices[i+2]),
		})
		out.Vertices[i], out.Vertices[i+1], out.Vertices[i+2] = float32(p.X), float32(p.Y), float32(p.Z)
	}
	for i := 0; i+2 < len(out.Normals); i += 3 {
		q := t.MulPosition(v3.Vec{
			X: float64(out.Normals[i]),
			Y: float64(out.Normals[i+1]),
			Z: float64(out.Normals[i+2]),
		})
		n := v3.Vec{X: q.X - origin.X, Y: q.Y - origin.Y, Z: q.Z - origin.Z}
		l := math.Sqrt(n.X*n.X + n.Y*n.Y + n.Z*n.Z)
		if l > 0 {
			n = v3.Vec{X: n.X / l, Y: n.Y / l, Z: n.Z / l}
		}
		out.Normals[i], out.Normals[i+1], out.Normals[i+2] = float32(n.X), float32(n.Y), float32(n.Z)
	}
	return out
}

// Place applies a placement to m.
func Place(m *kernel.Mesh, p Placement) *kernel.Mesh {
	if p.IsIdentity() {
		return m.Clone()
	}
	return Transform(m, p.Matrix())
}
