package fbxbuilder

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/mdl_tools/geometry"
	"github.com/mogaika/mdl_tools/utils"
)

func triangle(mesh, submesh int, material string) *geometry.EditableMesh {
	up := mgl32.Vec3{0, 0, 1}
	return &geometry.EditableMesh{
		ID:           geometry.Identifier{Label: "body", Mesh: mesh, Submesh: submesh},
		MaterialName: material,
		Vertices:     []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		Normals:      []mgl32.Vec3{up, up, up},
		UVs:          []geometry.UVLayer{{Name: "uv0", UVs: []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}}}},
		Colors: []geometry.ColorLayer{{Name: "color0", Colors: []utils.ColorFloat{
			{1, 1, 1, 1}, {1, 1, 1, 1}, {1, 1, 1, 1},
		}}},
		Indices: []uint32{0, 1, 2},
	}
}

func countObjects(f *FBXBuilder) map[string]int {
	counts := make(map[string]int)
	for _, n := range f.objects.Nodes {
		counts[n.Name]++
	}
	return counts
}

func TestMeshWriter(t *testing.T) {
	f := NewFBXBuilder("body.fbx", nil)
	mw := NewMeshWriter(f)
	for _, em := range []*geometry.EditableMesh{
		triangle(0, 0, "/mt_a.mtrl"),
		triangle(0, 1, "/mt_a.mtrl"),
		triangle(1, 0, "/mt_b.mtrl"),
	} {
		if err := mw.AddMesh(0, em); err != nil {
			t.Fatalf("AddMesh %s: %v", em.Name(), err)
		}
	}

	counts := countObjects(f)
	if counts["Geometry"] != 3 || counts["Model"] != 3 || counts["Material"] != 2 {
		t.Errorf("objects %v", counts)
	}
	// geometry->model, model->root and material->model per mesh
	if n := len(f.connections.Nodes); n != 9 {
		t.Errorf("%d connections", n)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("Kaydara FBX Binary")) {
		t.Errorf("not a binary fbx")
	}

	defined := make(map[string]interface{})
	for _, ot := range f.definitions.Nodes {
		if ot.Name == "ObjectType" {
			defined[ot.Properties[0].(string)] = ot.Nodes[0].Properties[0]
		}
	}
	want := map[string]interface{}{
		"GlobalSettings": int32(1), "Geometry": int32(3), "Model": int32(3), "Material": int32(2),
	}
	if len(defined) != len(want) {
		t.Errorf("definitions %v", defined)
	}
	for name, count := range want {
		if defined[name] != count {
			t.Errorf("definition %s: %v, want %v", name, defined[name], count)
		}
	}
}

func TestMeshWriterInvalid(t *testing.T) {
	em := triangle(0, 0, "/mt_a.mtrl")
	em.Indices = []uint32{0, 1, 5}
	if err := NewMeshWriter(NewFBXBuilder("bad.fbx", nil)).AddMesh(0, em); err == nil {
		t.Errorf("expected validation error")
	}
}
