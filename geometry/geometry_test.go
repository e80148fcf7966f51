package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/mdl"
	"github.com/mogaika/mdl_tools/utils"
)

func TestParseIdentifier(t *testing.T) {
	var good = []struct {
		name string
		id   Identifier
	}{
		{"body 0.0", Identifier{"body", 0, 0}},
		{"my top part 3.12", Identifier{"my top part", 3, 12}},
	}
	for _, test := range good {
		id, err := ParseIdentifier(test.name)
		if err != nil {
			t.Errorf("ParseIdentifier(%q): %v", test.name, err)
			continue
		}
		if id != test.id || id.String() != test.name {
			t.Errorf("ParseIdentifier(%q) = %+v", test.name, id)
		}
	}

	for _, name := range []string{"body", "body 1", " 1.2", "body a.1", "body 1.b", "body -1.0", "body 70000.0"} {
		_, err := ParseIdentifier(name)
		var ie *mdl.MeshIdentifierError
		if !errors.As(err, &ie) || ie.Name != name {
			t.Errorf("ParseIdentifier(%q) error %v, want MeshIdentifierError", name, err)
		}
	}
}

func TestBoneSources(t *testing.T) {
	armature := BoneFromArmature([]ArmatureBone{
		{Name: "n_root"},
		{Name: "j_kosi", Parent: "n_root"},
		{Name: "j_sebo_a", Parent: "j_kosi"},
	})
	mapper := BoneFromMapper(MapperRecord{
		// child listed before parent
		Names:   []string{"j_te_r", "j_kosi", "j_ude_r"},
		Parents: []int{2, -1, 1},
	})

	nodes, err := armature.Nodes()
	if err != nil {
		t.Fatal(err)
	}
	if nodes[2] != (BoneNode{"j_sebo_a", 1}) || nodes[0].Parent != -1 {
		t.Errorf("armature nodes %+v", nodes)
	}

	s, err := NewSkeleton([]BoneSource{armature, mapper})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Nodes) != 5 {
		t.Fatalf("skeleton %+v", s.Nodes)
	}
	te, _ := s.Index("j_te_r")
	ude, _ := s.Index("j_ude_r")
	kosi, _ := s.Index("j_kosi")
	if s.Nodes[te].Parent != ude || s.Nodes[ude].Parent != kosi || kosi != 1 {
		t.Errorf("merged parents wrong: %+v", s.Nodes)
	}

	for _, bad := range []BoneSource{
		BoneFromArmature([]ArmatureBone{{Name: "a", Parent: "missing"}}),
		BoneFromArmature([]ArmatureBone{{Name: "a"}, {Name: "a"}}),
		BoneFromMapper(MapperRecord{Names: []string{"a"}, Parents: []int{}}),
		BoneFromMapper(MapperRecord{Names: []string{"a", "b"}, Parents: []int{1, 0}}),
		{Kind: BoneSourceKind(7)},
	} {
		if _, err := bad.Nodes(); err == nil {
			t.Errorf("bone source %+v accepted", bad)
		}
	}
}

func TestEditableMeshAsSource(t *testing.T) {
	em := &EditableMesh{
		ID:           Identifier{"body", 0, 1},
		MaterialName: "/mt_body.mtrl",
		Vertices:     []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:      []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, -1}},
		UVs:          []UVLayer{{Name: "uv0", UVs: []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}}}},
		Colors:       []ColorLayer{{Name: "col", Colors: []utils.ColorFloat{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}}}},
		Indices:      []uint32{2, 1, 0},
	}
	if err := em.Validate(); err != nil {
		t.Fatal(err)
	}
	var src MeshSource = em
	if src.Name() != "body 0.1" || src.Material() != "/mt_body.mtrl" {
		t.Errorf("name %q material %q", src.Name(), src.Material())
	}
	loops := src.LoopVertices()
	if len(loops) != 3 || loops[0] != 2 {
		t.Errorf("loops %v", loops)
	}
	if src.LoopNormals()[0] != (mgl32.Vec3{0, 0, -1}) {
		t.Errorf("loop normals are not gathered: %v", src.LoopNormals())
	}
	if src.UVLayers()[0].UVs[0] != (mgl32.Vec2{0, 1}) || src.ColorLayers()[0].Colors[0][2] != 1 {
		t.Errorf("layers are not gathered")
	}

	em.Indices = append(em.Indices, 0, 1, 5)
	if err := em.Validate(); err == nil {
		t.Errorf("out of range index accepted")
	}
}

func TestWeightTable(t *testing.T) {
	wt := &WeightTable{}
	a := wt.GroupIndex("j_kosi")
	b := wt.GroupIndex("j_sebo_a")
	if wt.GroupIndex("j_kosi") != a || a == b || len(wt.Groups) != 2 {
		t.Errorf("groups %v", wt.Groups)
	}
	wt.Weights = [][]Influence{{{Group: b, Weight: 1}}, {{Group: a, Weight: 0}}}
	used := wt.UsedGroups()
	if used[a] || !used[b] {
		t.Errorf("used %v", used)
	}

	c := &Collector{}
	c.AddMesh(1, &EditableMesh{})
	if len(c.Lods) != 2 || len(c.Sources(1)) != 1 || c.Sources(2) != nil {
		t.Errorf("collector %+v", c.Lods)
	}
}
