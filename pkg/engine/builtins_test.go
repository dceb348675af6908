package engine

import (
	"strings"
	"testing"

	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/graph"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(sphere :radius 4)`,
			expect: `(sphere "__kw_radius" 4)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :radius 5 :height 40)`,
			expect: `(cylinder "__kw_radius" 5 "__kw_height" 40)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"say \":x\"" :y`,
			expect: `"say \":x\"" "__kw_y"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`raw :kw; text`",
			expect: "`raw :kw; text`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def cutter-radius 5)`,
			expect: `(def cutter_radius 5)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  "; simple comment\n(box 1 1 1)",
			expect: "// simple comment\n(box 1 1 1)",
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:head-dia`,
			expect: `"__kw_head-dia"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// mustEvaluate evaluates source and fails the test on any error.
func mustEvaluate(t *testing.T, source string) *EvalResult {
	t.Helper()
	res, err := NewEngine().EvaluateResult(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("eval errors: %v", res.Errors)
	}
	if res.Graph == nil {
		t.Fatal("expected non-nil graph")
	}
	return res
}

// evalErrors evaluates source and returns its non-fatal errors.
func evalErrors(t *testing.T, source string) []EvalError {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Error("expected nil graph on eval error")
	}
	return evalErrs
}

func containsMessage(errs []EvalError, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Builtin tests
// ---------------------------------------------------------------------------

func TestCylinderCrop(t *testing.T) {
	source := `
; crop a scanned part with a placed cylinder
(model "scan.stl" :name "scan")
(def cutter (cylinder :radius 5 :height 40 :segments 64))
(output "crop"
  (intersect (shape "scan")
             (place cutter :at (vec3 1 2 0) :rotate (vec3 0 90 0)))
  :color "#c08040")
`
	g := mustEvaluate(t, source).Graph

	// model + cylinder + place + intersect + output
	if g.NodeCount() != 5 {
		t.Fatalf("expected 5 nodes, got %d", g.NodeCount())
	}

	scan := g.Lookup("scan")
	if scan == nil {
		t.Fatal("expected node named 'scan'")
	}
	if md, ok := scan.Data.(graph.ModelData); !ok || md.Ref != "scan.stl" {
		t.Errorf("scan data = %#v", scan.Data)
	}

	outs := g.Outputs()
	if len(outs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(outs))
	}
	od := outs[0].Data.(graph.OutputData)
	if od.Name != "crop" || od.Color != "#c08040" {
		t.Errorf("output data = %#v", od)
	}

	crop := g.Get(outs[0].Children[0])
	bd, ok := crop.Data.(graph.BooleanData)
	if !ok || bd.Op != csg.OpIntersect {
		t.Fatalf("output child data = %#v, want intersect", crop.Data)
	}
	if crop.Children[0] != scan.ID {
		t.Error("first operand should be the model")
	}

	place := g.Get(crop.Children[1])
	td, ok := place.Data.(graph.TransformData)
	if !ok {
		t.Fatalf("expected TransformData, got %T", place.Data)
	}
	if td.Translation == nil || *td.Translation != (graph.Vec3{X: 1, Y: 2, Z: 0}) {
		t.Errorf("translation = %v", td.Translation)
	}
	if td.Rotation == nil || td.Rotation.Y != 90 {
		t.Errorf("rotation = %v", td.Rotation)
	}

	cyl := g.Get(place.Children[0])
	cd, ok := cyl.Data.(graph.CylinderData)
	if !ok {
		t.Fatalf("expected CylinderData, got %T", cyl.Data)
	}
	if cd.Radius != 5 || cd.Height != 40 || cd.Segments != 64 {
		t.Errorf("cylinder = %+v", cd)
	}
}

func TestBoxForms(t *testing.T) {
	source := `
(def a (box 10 20 30))
(def b (box :size (vec3 1 2 3) :name "small"))
(output "both" (union a b))
`
	g := mustEvaluate(t, source).Graph
	small := g.Lookup("small")
	if small == nil {
		t.Fatal("expected node named 'small'")
	}
	if bd := small.Data.(graph.BoxData); bd.Size != (graph.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("small size = %v", bd.Size)
	}

	union := g.Get(g.Outputs()[0].Children[0])
	first := g.Get(union.Children[0])
	if bd := first.Data.(graph.BoxData); bd.Size != (graph.Vec3{X: 10, Y: 20, Z: 30}) {
		t.Errorf("first box size = %v", bd.Size)
	}
}

func TestVariableReference(t *testing.T) {
	source := `
(def r 7)
(output "ball" (sphere :radius r))
`
	g := mustEvaluate(t, source).Graph
	ball := g.Get(g.Outputs()[0].Children[0])
	sd, ok := ball.Data.(graph.SphereData)
	if !ok {
		t.Fatalf("expected SphereData, got %T", ball.Data)
	}
	if sd.Radius != 7 {
		t.Errorf("expected radius=7 (from variable), got %f", sd.Radius)
	}
}

func TestBooleanFold(t *testing.T) {
	source := `
(output "hollow"
  (subtract (box 10 10 10) (sphere :radius 4) (cylinder :radius 1 :height 20)))
`
	g := mustEvaluate(t, source).Graph
	sub := g.Get(g.Outputs()[0].Children[0])
	if len(sub.Children) != 3 {
		t.Errorf("subtract operands = %d, want 3", len(sub.Children))
	}
	if sub.Data.(graph.BooleanData).Op != csg.OpSubtract {
		t.Errorf("op = %s, want subtract", sub.Data.(graph.BooleanData).Op)
	}
}

func TestSettings(t *testing.T) {
	source := `
(tolerance 0.0001)
(segments 96)
(output "c" (cylinder :radius 1 :height 1))
`
	g := mustEvaluate(t, source).Graph
	if g.Settings.Tolerance != 0.0001 {
		t.Errorf("tolerance = %g, want 0.0001", g.Settings.Tolerance)
	}
	if g.Settings.Segments != 96 {
		t.Errorf("segments = %d, want 96", g.Settings.Segments)
	}
}

func TestDeterministicIDs(t *testing.T) {
	source := `(output "x" (union (box 1 1 1) (place (box 1 1 1) :at (vec3 2 0 0))))`
	a := mustEvaluate(t, source).Graph
	b := mustEvaluate(t, source).Graph
	if a.NodeCount() != b.NodeCount() {
		t.Fatalf("node counts differ: %d vs %d", a.NodeCount(), b.NodeCount())
	}
	for id := range a.Nodes {
		if b.Get(id) == nil {
			t.Errorf("node %s missing from second evaluation", id.Short())
		}
	}
}

func TestOrphanWarning(t *testing.T) {
	source := `
(box 1 1 1 :name "unused")
(output "ball" (sphere :radius 1))
`
	res := mustEvaluate(t, source)
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0].Message, "unused") {
		t.Errorf("warning = %q", res.Warnings[0].Message)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"missing shape", `(shape "nonexistent")`, "no shape named"},
		{"missing radius", `(cylinder :height 4)`, "missing :radius"},
		{"unknown keyword", `(sphere :raduis 4)`, "unknown keyword :raduis"},
		{"single operand", `(union (box 1 1 1))`, "at least 2 shapes"},
		{"non-shape operand", `(intersect (box 1 1 1) 5)`, "expected shape"},
		{"duplicate name", `(box 1 1 1 :name "a") (box 2 2 2 :name "a")`, "already defined"},
		{"duplicate output", `(def b (box 1 1 1)) (output "o" b) (output "o" b)`, "already declared"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3 arguments"},
		{"float segments", `(cylinder :radius 1 :height 1 :segments 2.5)`, "expected integer"},
		{"place without shape", `(place :at (vec3 1 1 1))`, "requires a shape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := evalErrors(t, tt.source)
			if len(errs) == 0 {
				t.Fatal("expected at least one eval error")
			}
			if !containsMessage(errs, tt.want) {
				t.Errorf("errors %v do not mention %q", errs, tt.want)
			}
		})
	}
}

func TestValidationErrorsBlockGraph(t *testing.T) {
	errs := evalErrors(t, `(output "flat" (box 1 0 1))`)
	if !containsMessage(errs, "must be positive") {
		t.Errorf("errors = %v, want a positive-size error", errs)
	}

	errs = evalErrors(t, `(output "c" (cylinder :radius 1 :height 1 :segments 2))`)
	if !containsMessage(errs, "at least 3") {
		t.Errorf("errors = %v, want a segments error", errs)
	}
}

func TestEmptySourceStillWorks(t *testing.T) {
	g := mustEvaluate(t, "").Graph
	if g.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
}

func TestArithmeticInArguments(t *testing.T) {
	g := mustEvaluate(t, `(output "b" (box (* 2 5) (+ 1 1) 3))`).Graph
	b := g.Get(g.Outputs()[0].Children[0])
	if bd := b.Data.(graph.BoxData); bd.Size != (graph.Vec3{X: 10, Y: 2, Z: 3}) {
		t.Errorf("size = %v", bd.Size)
	}
}
