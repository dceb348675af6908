package shape

import (
	"errors"
	"math"
	"testing"
)

func TestBox(t *testing.T) {
	m, err := Box(2, 4, 6)
	if err != nil {
		t.Fatalf("Box failed: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if m.VertexCount() != 24 {
		t.Errorf("VertexCount() = %d, want 24", m.VertexCount())
	}
	if m.TriangleCount() != 12 {
		t.Errorf("TriangleCount() = %d, want 12", m.TriangleCount())
	}
	if !m.HasUVs() {
		t.Error("HasUVs() = false, want true")
	}
	if v := m.Volume(); math.Abs(v-48) > 1e-4 {
		t.Errorf("Volume() = %f, want 48", v)
	}
	if a := m.SurfaceArea(); math.Abs(a-88) > 1e-4 {
		t.Errorf("SurfaceArea() = %f, want 88", a)
	}
	min, max, ok := m.BoundingBox()
	if !ok {
		t.Fatal("BoundingBox not ok")
	}
	want := [3]float64{1, 2, 3}
	for k := 0; k < 3; k++ {
		if min[k] != -want[k] || max[k] != want[k] {
			t.Errorf("axis %d bounds = [%f, %f], want [%f, %f]", k, min[k], max[k], -want[k], want[k])
		}
	}
}

func TestCylinder(t *testing.T) {
	const segments = 64
	m, err := Cylinder(0.5, 2, segments)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// Side: 2 per segment; caps: 1 per segment each.
	if got, want := m.TriangleCount(), 4*segments; got != want {
		t.Errorf("TriangleCount() = %d, want %d", got, want)
	}
	// Inscribed polygon area: n/2 r² sin(2π/n).
	want := segments / 2.0 * 0.25 * math.Sin(2*math.Pi/segments) * 2
	if v := m.Volume(); math.Abs(v-want) > 1e-4 {
		t.Errorf("Volume() = %f, want %f", v, want)
	}
}

func TestSphere(t *testing.T) {
	m, err := Sphere(1, 32, 16)
	if err != nil {
		t.Fatalf("Sphere failed: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// Two triangles per quad except one at each pole row.
	if got, want := m.TriangleCount(), 32*(2*16-2); got != want {
		t.Errorf("TriangleCount() = %d, want %d", got, want)
	}
	v := m.Volume()
	sphere := 4.0 / 3.0 * math.Pi
	if v <= 0 || v > sphere {
		t.Errorf("Volume() = %f, want in (0, %f]", v, sphere)
	}
	if v < 0.95*sphere {
		t.Errorf("Volume() = %f, too far below %f", v, sphere)
	}
}

func TestInvalidShapes(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"box zero width", func() error { _, err := Box(0, 1, 1); return err }},
		{"box negative depth", func() error { _, err := Box(1, 1, -1); return err }},
		{"box NaN", func() error { _, err := Box(math.NaN(), 1, 1); return err }},
		{"cylinder two segments", func() error { _, err := Cylinder(1, 1, 2); return err }},
		{"cylinder zero radius", func() error { _, err := Cylinder(0, 1, 16); return err }},
		{"sphere one ring", func() error { _, err := Sphere(1, 8, 1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrInvalidShape) {
				t.Errorf("error = %v, want ErrInvalidShape", err)
			}
		})
	}
}

func TestPlace(t *testing.T) {
	m, err := Box(2, 2, 2)
	if err != nil {
		t.Fatalf("Box failed: %v", err)
	}
	before := m.Clone()
	p := Placement{Rotate: [3]float64{0, 0, 90}, Translate: [3]float64{10, 0, 0}}
	placed := Place(m, p)

	min, max, _ := placed.BoundingBox()
	if math.Abs(min[0]-9) > 1e-5 || math.Abs(max[0]-11) > 1e-5 {
		t.Errorf("x bounds = [%f, %f], want [9, 11]", min[0], max[0])
	}
	if math.Abs(placed.Volume()-m.Volume()) > 1e-4 {
		t.Errorf("volume changed: %f -> %f", m.Volume(), placed.Volume())
	}
	for i := range m.Vertices {
		if m.Vertices[i] != before.Vertices[i] {
			t.Fatalf("input mesh mutated at float %d", i)
		}
	}
	for i := 0; i+2 < len(placed.Normals); i += 3 {
		n := placed.Normals[i : i+3]
		l := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
		if math.Abs(l-1) > 1e-5 {
			t.Fatalf("normal %d has length %f", i/3, l)
		}
	}
}

func TestPlaceIdentity(t *testing.T) {
	m, err := Cylinder(1, 1, 8)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	out := Place(m, Placement{})
	if &out.Vertices[0] == &m.Vertices[0] {
		t.Error("Place returned shared storage")
	}
	for i := range m.Vertices {
		if out.Vertices[i] != m.Vertices[i] {
			t.Fatalf("vertex float %d changed", i)
		}
	}
}
