package graph

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/chazu/carve/pkg/csg"
)

func TestNewGraph(t *testing.T) {
	g := New()
	if g.Nodes == nil {
		t.Fatal("Nodes map should be initialized")
	}
	if g.NameIndex == nil {
		t.Fatal("NameIndex map should be initialized")
	}
	if g.Settings.Segments != DefaultSegments {
		t.Errorf("default segments = %d, want %d", g.Settings.Segments, DefaultSegments)
	}
	if g.NodeCount() != 0 {
		t.Errorf("empty graph should have 0 nodes, got %d", g.NodeCount())
	}
}

func TestAddNodeAndLookup(t *testing.T) {
	g := New()

	id := NewNodeID("model/scan")
	g.AddNode(&Node{
		ID:   id,
		Kind: NodePrimitive,
		Name: "scan",
		Data: ModelData{Ref: "scan.stl"},
	})

	if g.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", g.NodeCount())
	}
	found := g.Lookup("scan")
	if found == nil {
		t.Fatal("Lookup('scan') returned nil")
	}
	if found.ID != id {
		t.Errorf("lookup returned wrong node")
	}
	if g.Lookup("nonexistent") != nil {
		t.Error("Lookup should return nil for missing name")
	}
	if got := g.Get(id); got == nil || got.Name != "scan" {
		t.Errorf("Get by ID failed")
	}
}

func TestOutputsInDeclarationOrder(t *testing.T) {
	g := buildCrop()
	second := NewNodeID("output/preview")
	g.AddNode(&Node{
		ID: second, Kind: NodeOutput,
		Children: []NodeID{NewNodeID("model/scan")},
		Data:     OutputData{Name: "preview"},
	})
	g.AddRoot(second)

	outs := g.Outputs()
	if len(outs) != 2 {
		t.Fatalf("Outputs() count = %d, want 2", len(outs))
	}
	if outs[0].Data.(OutputData).Name != "crop" || outs[1].Data.(OutputData).Name != "preview" {
		t.Errorf("Outputs() order = %q, %q", outs[0].Data.(OutputData).Name, outs[1].Data.(OutputData).Name)
	}
}

func TestModelRefs(t *testing.T) {
	g := New()
	for i, ref := range []string{"b.stl", "a.stl", "b.stl"} {
		g.AddNode(&Node{
			ID:   NewNodeID("model/" + string(rune('0'+i))),
			Kind: NodePrimitive,
			Data: ModelData{Ref: ref},
		})
	}
	refs := g.ModelRefs()
	if len(refs) != 2 || refs[0] != "a.stl" || refs[1] != "b.stl" {
		t.Errorf("ModelRefs() = %v, want [a.stl b.stl]", refs)
	}
}

func TestChildren(t *testing.T) {
	g := buildCrop()
	crop := g.Get(NewNodeID("intersect/1"))
	children := g.Children(crop)
	if len(children) != 2 {
		t.Fatalf("Children count = %d, want 2", len(children))
	}
	if children[0].Name != "scan" {
		t.Errorf("first child = %q, want scan", children[0].Name)
	}
}

func TestSegmentsFor(t *testing.T) {
	g := New()
	if got := g.SegmentsFor(0); got != DefaultSegments {
		t.Errorf("SegmentsFor(0) = %d, want %d", got, DefaultSegments)
	}
	if got := g.SegmentsFor(12); got != 12 {
		t.Errorf("SegmentsFor(12) = %d, want 12", got)
	}
	g.Settings.Segments = 96
	if got := g.SegmentsFor(0); got != 96 {
		t.Errorf("SegmentsFor(0) = %d, want 96", got)
	}
}

func TestNodeIDDeterministic(t *testing.T) {
	a := NewNodeID("box/1")
	b := NewNodeID("box/1")
	if a != b {
		t.Error("same path should produce same NodeID")
	}
	if a == NewNodeID("box/2") {
		t.Error("different paths should produce different NodeIDs")
	}
}

func TestNodeIDZero(t *testing.T) {
	var id NodeID
	if !id.IsZero() {
		t.Error("zero-value NodeID should be zero")
	}
	if NewNodeID("something").IsZero() {
		t.Error("non-zero NodeID should not be zero")
	}
}

func TestNodeIDJSON(t *testing.T) {
	id := NewNodeID("output/crop")
	data, err := json.Marshal(map[NodeID]int{id: 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), id.String()) {
		t.Errorf("JSON %s does not contain the hex id", data)
	}
}

func TestVec3(t *testing.T) {
	a := Vec3{1, 2, 3}
	if sum := a.Add(Vec3{4, 5, 6}); sum != (Vec3{5, 7, 9}) {
		t.Errorf("Add = %v, want (5, 7, 9)", sum)
	}
	if scaled := a.Scale(2); scaled != (Vec3{2, 4, 6}) {
		t.Errorf("Scale = %v, want (2, 4, 6)", scaled)
	}
}

func TestNodeDataInterface(t *testing.T) {
	var _ NodeData = BoxData{}
	var _ NodeData = CylinderData{}
	var _ NodeData = SphereData{}
	var _ NodeData = ModelData{}
	var _ NodeData = TransformData{}
	var _ NodeData = BooleanData{}
	var _ NodeData = OutputData{}
}

func TestPrimitiveOf(t *testing.T) {
	tests := []struct {
		data NodeData
		want PrimitiveKind
		ok   bool
	}{
		{BoxData{}, PrimBox, true},
		{CylinderData{}, PrimCylinder, true},
		{SphereData{}, PrimSphere, true},
		{ModelData{}, PrimModel, true},
		{BooleanData{Op: csg.OpUnion}, 0, false},
	}
	for _, tt := range tests {
		got, ok := PrimitiveOf(tt.data)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("PrimitiveOf(%T) = %s, %v", tt.data, got, ok)
		}
	}
}

func TestStringers(t *testing.T) {
	if NodeBoolean.String() != "boolean" {
		t.Errorf("NodeBoolean.String() = %q", NodeBoolean.String())
	}
	if PrimCylinder.String() != "cylinder" {
		t.Errorf("PrimCylinder.String() = %q", PrimCylinder.String())
	}
	id := NewNodeID("test")
	if len(id.Short()) != 12 { // 6 bytes = 12 hex chars
		t.Errorf("Short() len = %d, want 12", len(id.Short()))
	}
	v := Vec3{1.5, 2.5, 3.5}
	if v.String() != "(1.5, 2.5, 3.5)" {
		t.Errorf("Vec3.String() = %q", v.String())
	}
}
