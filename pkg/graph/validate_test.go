package graph

import (
	"strings"
	"testing"

	"github.com/chazu/carve/pkg/csg"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildCrop creates a valid crop recipe: a model intersected with a placed
// cylinder, declared as the output "crop".
func buildCrop() *Graph {
	g := New()

	scanID := NewNodeID("model/scan")
	cylID := NewNodeID("cylinder/1")
	placeID := NewNodeID("place/1")
	cropID := NewNodeID("intersect/1")
	outID := NewNodeID("output/crop")

	g.AddNode(&Node{
		ID: scanID, Kind: NodePrimitive, Name: "scan",
		Data: ModelData{Ref: "scan.stl"},
	})
	g.AddNode(&Node{
		ID: cylID, Kind: NodePrimitive,
		Data: CylinderData{Radius: 5, Height: 40, Segments: 64},
	})
	g.AddNode(&Node{
		ID: placeID, Kind: NodeTransform,
		Children: []NodeID{cylID},
		Data:     TransformData{Translation: &Vec3{1, 0, 0}},
	})
	g.AddNode(&Node{
		ID: cropID, Kind: NodeBoolean,
		Children: []NodeID{scanID, placeID},
		Data:     BooleanData{Op: csg.OpIntersect},
	})
	g.AddNode(&Node{
		ID: outID, Kind: NodeOutput, Name: "crop",
		Children: []NodeID{cropID},
		Data:     OutputData{Name: "crop"},
	})
	g.AddRoot(outID)
	return g
}

// hasError returns true if errs contains at least one error-severity finding
// whose message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// hasWarning returns true if errs contains at least one warning-severity
// finding whose message contains substr.
func hasWarning(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityWarning && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestValidCropGraph(t *testing.T) {
	g := buildCrop()
	if errs := Validate(g); len(errs) != 0 {
		for _, e := range errs {
			t.Errorf("unexpected finding: %v", e)
		}
	}
	if r := ValidateAll(g); !r.OK() {
		t.Errorf("ValidateAll() errors = %v", r.Errors)
	}
}

func TestValidateEmptyGraph(t *testing.T) {
	if errs := Validate(New()); len(errs) != 0 {
		t.Errorf("empty graph findings = %v", errs)
	}
}

func TestValidateCycle(t *testing.T) {
	g := buildCrop()
	// Make the cylinder's placement depend on the intersection that uses it.
	place := g.Get(NewNodeID("place/1"))
	place.Children = []NodeID{NewNodeID("intersect/1")}

	if !hasError(Validate(g), "cycle detected") {
		t.Error("expected a cycle error")
	}
}

func TestValidateDanglingReference(t *testing.T) {
	g := buildCrop()
	g.Get(NewNodeID("place/1")).Children = []NodeID{NewNodeID("cylinder/missing")}
	if !hasError(Validate(g), "does not exist") {
		t.Error("expected a dangling reference error")
	}
}

func TestValidateDuplicateName(t *testing.T) {
	g := buildCrop()
	other := NewNodeID("model/other")
	g.AddNode(&Node{ID: other, Kind: NodePrimitive, Name: "scan", Data: ModelData{Ref: "other.stl"}})
	if !hasError(Validate(g), `duplicate name "scan"`) {
		t.Error("expected a duplicate name error")
	}
}

func TestValidateOrphan(t *testing.T) {
	g := buildCrop()
	g.AddNode(&Node{
		ID: NewNodeID("sphere/1"), Kind: NodePrimitive, Name: "ball",
		Data: SphereData{Radius: 1},
	})
	errs := Validate(g)
	if !hasWarning(errs, `"ball" is not used by any output`) {
		t.Errorf("expected an orphan warning, got %v", errs)
	}
	r := ValidateAll(g)
	if !r.OK() {
		t.Errorf("orphans should not block: %v", r.Errors)
	}
	if len(r.Warnings) != 1 {
		t.Errorf("warnings = %d, want 1", len(r.Warnings))
	}
}

func TestValidateNoOutputs(t *testing.T) {
	g := New()
	g.AddNode(&Node{ID: NewNodeID("box/1"), Kind: NodePrimitive, Data: BoxData{Size: Vec3{1, 1, 1}}})
	if !hasWarning(Validate(g), "no outputs") {
		t.Error("expected a no-outputs warning")
	}
}

func TestValidateRootNotOutput(t *testing.T) {
	g := buildCrop()
	g.AddRoot(NewNodeID("model/scan"))
	if !hasError(Validate(g), "not an output") {
		t.Error("expected a root kind error")
	}
}

func TestValidateArity(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *Graph)
		want   string
	}{
		{
			name: "boolean with one operand",
			mutate: func(g *Graph) {
				g.Get(NewNodeID("intersect/1")).Children = []NodeID{NewNodeID("model/scan")}
			},
			want: "want at least 2",
		},
		{
			name: "transform with two children",
			mutate: func(g *Graph) {
				g.Get(NewNodeID("place/1")).Children = []NodeID{NewNodeID("cylinder/1"), NewNodeID("model/scan")}
			},
			want: "transform has 2 children",
		},
		{
			name: "primitive with children",
			mutate: func(g *Graph) {
				g.Get(NewNodeID("cylinder/1")).Children = []NodeID{NewNodeID("model/scan")}
			},
			want: "primitive has 1 children",
		},
		{
			name: "output used as operand",
			mutate: func(g *Graph) {
				n := g.Get(NewNodeID("intersect/1"))
				n.Children = append(n.Children, NewNodeID("output/crop"))
			},
			want: "used as an operand",
		},
		{
			name: "unknown boolean op",
			mutate: func(g *Graph) {
				g.Get(NewNodeID("intersect/1")).Data = BooleanData{Op: csg.Op(9)}
			},
			want: "unknown boolean operation",
		},
		{
			name: "mismatched payload",
			mutate: func(g *Graph) {
				g.Get(NewNodeID("place/1")).Data = BoxData{Size: Vec3{1, 1, 1}}
			},
			want: "transform node carries",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildCrop()
			tt.mutate(g)
			errs := Validate(g)
			if !hasError(errs, tt.want) {
				t.Errorf("findings %v do not contain %q", errs, tt.want)
			}
		})
	}
}

func TestValidatePrimitives(t *testing.T) {
	tests := []struct {
		name string
		data NodeData
		want string
	}{
		{"flat box", BoxData{Size: Vec3{1, 0, 1}}, "must be positive"},
		{"negative radius", CylinderData{Radius: -1, Height: 2}, "must be positive"},
		{"two segments", CylinderData{Radius: 1, Height: 2, Segments: 2}, "at least 3"},
		{"negative segments", SphereData{Radius: 1, Segments: -4}, "at least 3"},
		{"zero sphere", SphereData{Radius: 0}, "must be positive"},
		{"empty model", ModelData{}, "empty reference"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildCrop()
			g.Get(NewNodeID("cylinder/1")).Data = tt.data
			if errs := Validate(g); !hasError(errs, tt.want) {
				t.Errorf("findings %v do not contain %q", errs, tt.want)
			}
		})
	}
}

func TestValidateTolerance(t *testing.T) {
	g := buildCrop()
	g.Settings.Tolerance = -1
	if !hasError(Validate(g), "must not be negative") {
		t.Error("expected a tolerance error")
	}
	g.Settings.Tolerance = 0.5
	if !hasWarning(Validate(g), "coarse") {
		t.Error("expected a coarse tolerance warning")
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Message: "boom", Severity: SeverityError}
	if e.Error() != "[error] boom" {
		t.Errorf("Error() = %q", e.Error())
	}
	id := NewNodeID("box/1")
	e = ValidationError{NodeID: id, Message: "flat", Severity: SeverityWarning}
	if want := "[warning] node " + id.Short() + ": flat"; e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}
