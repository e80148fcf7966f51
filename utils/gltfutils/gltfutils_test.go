package gltfutils

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/mdl_tools/geometry"
	"github.com/mogaika/mdl_tools/utils"
)

func testMesh() *geometry.EditableMesh {
	up := mgl32.Vec3{0, 0, 1}
	return &geometry.EditableMesh{
		ID:           geometry.Identifier{Label: "body", Mesh: 2, Submesh: 1},
		MaterialName: "/mt_c0101e0001_top_a.mtrl",
		Vertices:     []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		Normals:      []mgl32.Vec3{up, up, up},
		UVs:          []geometry.UVLayer{{Name: "uv0", UVs: []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}}}},
		Colors: []geometry.ColorLayer{{Name: "color0", Colors: []utils.ColorFloat{
			{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1},
		}}},
		Indices: []uint32{0, 1, 2},
		WeightTable: &geometry.WeightTable{
			Groups: []string{"j_kosi", "j_sebo_a"},
			Weights: [][]geometry.Influence{
				{{Group: 0, Weight: 1}},
				{{Group: 0, Weight: 0.5}, {Group: 1, Weight: 0.5}},
				{{Group: 1, Weight: 1}},
			},
		},
		Shapes:         []geometry.ShapeKey{{Name: "shp_a", Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 1}, {1, 1, 0}}}},
		AttributeNames: []string{"atr_top"},
	}
}

func checkMesh(t *testing.T, got *geometry.EditableMesh, want *geometry.EditableMesh) {
	t.Helper()
	if got.Name() != want.Name() || got.MaterialName != want.MaterialName {
		t.Errorf("name %q material %q", got.Name(), got.MaterialName)
	}
	if len(got.Vertices) != len(want.Vertices) || len(got.Indices) != len(want.Indices) {
		t.Fatalf("%d vertices %d indices", len(got.Vertices), len(got.Indices))
	}
	for i := range want.Vertices {
		if !got.Vertices[i].ApproxEqual(want.Vertices[i]) {
			t.Errorf("vertex %d: %v", i, got.Vertices[i])
		}
	}
	if len(got.Shapes) != 1 || got.Shapes[0].Name != "shp_a" {
		t.Fatalf("shapes %+v", got.Shapes)
	}
	for i, p := range want.Shapes[0].Positions {
		if !got.Shapes[0].Positions[i].ApproxEqual(p) {
			t.Errorf("shape vertex %d: %v, want %v", i, got.Shapes[0].Positions[i], p)
		}
	}
	if got.WeightTable == nil || len(got.WeightTable.Groups) != 2 {
		t.Fatalf("weights %+v", got.WeightTable)
	}
	if n := len(got.WeightTable.Weights[1]); n != 2 {
		t.Errorf("vertex 1 has %d influences", n)
	}
	if len(got.Colors) != 1 || got.Colors[0].Colors[2].Bytes() != [4]uint8{0, 0, 255, 255} {
		t.Errorf("colors %+v", got.Colors)
	}
	if len(got.AttributeNames) != 1 || got.AttributeNames[0] != "atr_top" {
		t.Errorf("attributes %v", got.AttributeNames)
	}
}

func TestWriterReader(t *testing.T) {
	w := NewWriter()
	if err := w.AddMesh(1, testMesh()); err != nil {
		t.Fatalf("AddMesh: %v", err)
	}
	lods, err := NewReader(w.Doc).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(lods) != 2 || len(lods[0]) != 0 || len(lods[1]) != 1 {
		t.Fatalf("lods %v", lods)
	}
	checkMesh(t, lods[1][0].(*geometry.EditableMesh), testMesh())
}

func TestBinaryRoundTrip(t *testing.T) {
	w := NewWriter()
	if err := w.AddMesh(0, testMesh()); err != nil {
		t.Fatalf("AddMesh: %v", err)
	}
	var buf bytes.Buffer
	if err := ExportBinary(&buf, w.Doc); err != nil {
		t.Fatalf("ExportBinary: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
		t.Fatalf("not a glb file")
	}
	doc, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	lods, err := NewReader(doc).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(lods) != 1 || len(lods[0]) != 1 {
		t.Fatalf("lods %v", lods)
	}
	checkMesh(t, lods[0][0].(*geometry.EditableMesh), testMesh())
}

func TestReaderUnnamedTargets(t *testing.T) {
	w := NewWriter()
	if err := w.AddMesh(0, testMesh()); err != nil {
		t.Fatalf("AddMesh: %v", err)
	}
	w.Doc.Meshes[0].Extras = nil
	lods, err := NewReader(w.Doc).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	em := lods[0][0].(*geometry.EditableMesh)
	if len(em.Shapes) != 1 || em.Shapes[0].Name == "" {
		t.Errorf("target was not named: %+v", em.Shapes)
	}
}

func TestReaderBadName(t *testing.T) {
	w := NewWriter()
	if err := w.AddMesh(0, testMesh()); err != nil {
		t.Fatalf("AddMesh: %v", err)
	}
	for _, n := range w.Doc.Nodes {
		if n.Mesh != nil {
			n.Name = "body"
		}
	}
	if _, err := NewReader(w.Doc).Read(); err == nil {
		t.Errorf("expected identifier error")
	}
}
