package exporter

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/config"
	"github.com/mogaika/mdl_tools/geometry"
	"github.com/mogaika/mdl_tools/mdl"
	"github.com/mogaika/mdl_tools/mdl/vertex"
)

func quad(label string, mesh, submesh int) *geometry.EditableMesh {
	up := mgl32.Vec3{0, 0, 1}
	return &geometry.EditableMesh{
		ID:           geometry.Identifier{Label: label, Mesh: mesh, Submesh: submesh},
		MaterialName: "/mt_c0101e0001_top_a.mtrl",
		Vertices:     []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Normals:      []mgl32.Vec3{up, up, up, up},
		UVs: []geometry.UVLayer{{Name: "uv0", UVs: []mgl32.Vec2{
			{0, 0}, {1, 0}, {1, 1}, {0, 1},
		}}},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

func skin(em *geometry.EditableMesh, groups ...string) *geometry.EditableMesh {
	wt := &geometry.WeightTable{Groups: groups, Weights: make([][]geometry.Influence, len(em.Vertices))}
	for v := range wt.Weights {
		for g := range groups {
			wt.Weights[v] = append(wt.Weights[v], geometry.Influence{Group: g, Weight: 1 / float32(len(groups))})
		}
	}
	em.WeightTable = wt
	return em
}

func export(t *testing.T, profile *config.Profile, lods ...[]geometry.MeshSource) *Result {
	t.Helper()
	r, err := Export(&Input{Lods: lods, Profile: profile}, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if _, err := mdl.Parse(r.Data); err != nil {
		t.Fatalf("Parse of exported data: %v", err)
	}
	return r
}

func TestExportQuad(t *testing.T) {
	r := export(t, nil, []geometry.MeshSource{quad("body", 0, 0)})
	m := r.Model
	if len(m.Meshes) != 1 || len(m.Submeshes) != 1 {
		t.Fatalf("got %d meshes %d submeshes", len(m.Meshes), len(m.Submeshes))
	}
	mesh := m.Meshes[0]
	if mesh.VertexCount != 4 {
		t.Errorf("vertex count %d", mesh.VertexCount)
	}
	if mesh.IndexCount != 8 || m.Submeshes[0].IndexCount != 6 {
		t.Errorf("mesh index count %d, submesh index count %d", mesh.IndexCount, m.Submeshes[0].IndexCount)
	}
	if mesh.Skinned() {
		t.Errorf("mesh without weights has bone table %d", mesh.BoneTableIndex)
	}
	l := m.Lods[0]
	if l.PolygonCount != 2 {
		t.Errorf("polygon count %d", l.PolygonCount)
	}
	for _, idx := range []uint16{l.WaterMeshIndex, l.ShadowMeshIndex, l.TerrainShadowMeshIndex, l.VerticalFogMeshIndex} {
		if idx != 1 {
			t.Errorf("auxiliary mesh index %d, want 1", idx)
		}
	}
	if want := (mgl32.Vec3{1, 1, 0}).Len(); m.MeshHeader.Radius != want {
		t.Errorf("radius %v", m.MeshHeader.Radius)
	}
	if !r.Report.Empty() {
		t.Errorf("unexpected warnings %v", r.Report.Warnings())
	}
}

func TestExportGrouping(t *testing.T) {
	r := export(t, nil, []geometry.MeshSource{
		quad("body", 7, 0),
		quad("body", 3, 1),
		quad("body", 3, 0),
	})
	m := r.Model
	if len(m.Meshes) != 2 {
		t.Fatalf("got %d meshes", len(m.Meshes))
	}
	if m.Meshes[0].SubmeshCount != 2 || m.Meshes[1].SubmeshCount != 1 {
		t.Errorf("submesh counts %d %d", m.Meshes[0].SubmeshCount, m.Meshes[1].SubmeshCount)
	}
	if m.Submeshes[1].IndexOffset != 8 {
		t.Errorf("second submesh index offset %d, want 8", m.Submeshes[1].IndexOffset)
	}
	if m.Meshes[1].StartIndex != 16 {
		t.Errorf("second mesh start index %d, want 16", m.Meshes[1].StartIndex)
	}
	if m.Meshes[1].VertexBufferOffset[0] == 0 {
		t.Errorf("second mesh shares vertex offset with first")
	}
	if len(m.Materials) != 1 {
		t.Errorf("materials %v", m.Materials)
	}
}

func TestExportErrors(t *testing.T) {
	noMaterial := quad("body", 0, 0)
	noMaterial.MaterialName = ""
	badName := &namedSource{quad("body", 0, 0), "body"}

	for _, c := range []struct {
		name    string
		sources []geometry.MeshSource
		target  interface{}
	}{
		{"missing material", []geometry.MeshSource{noMaterial}, new(*mdl.MissingMaterialError)},
		{"bad identifier", []geometry.MeshSource{badName}, new(*mdl.MeshIdentifierError)},
		{"duplicate identifier", []geometry.MeshSource{quad("body", 0, 0), quad("other", 0, 0)}, new(*mdl.MeshIdentifierError)},
	} {
		r, err := Export(&Input{Lods: [][]geometry.MeshSource{c.sources}}, nil)
		if err == nil {
			t.Errorf("%s: no error", c.name)
			continue
		}
		if r != nil {
			t.Errorf("%s: result returned with error", c.name)
		}
		if !errors.As(err, c.target) {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
	}
}

type namedSource struct {
	*geometry.EditableMesh
	name string
}

func (ns *namedSource) Name() string { return ns.name }

func TestExportLodLimit(t *testing.T) {
	lod := []geometry.MeshSource{quad("body", 0, 0)}
	_, err := Export(&Input{Lods: [][]geometry.MeshSource{lod, lod, lod, lod}}, nil)
	var limit *mdl.LodLimitError
	if !errors.As(err, &limit) || limit.Count != 4 {
		t.Fatalf("expected lod limit error, got %v", err)
	}
}

// repeatQuad repeats quad triangles up to corners loops
func repeatQuad(label string, mesh, submesh, corners int) *geometry.EditableMesh {
	em := quad(label, mesh, submesh)
	base := em.Indices
	em.Indices = make([]uint32, corners)
	for i := range em.Indices {
		em.Indices[i] = base[i%len(base)]
	}
	return em
}

// strip references count distinct vertices with corners loops
func strip(count, corners int) *geometry.EditableMesh {
	em := &geometry.EditableMesh{
		ID:           geometry.Identifier{Label: "big", Mesh: 0, Submesh: 0},
		MaterialName: "/mt_big.mtrl",
		Vertices:     make([]mgl32.Vec3, count),
		Normals:      make([]mgl32.Vec3, count),
		Indices:      make([]uint32, corners),
	}
	for i := range em.Vertices {
		em.Vertices[i] = mgl32.Vec3{float32(i), float32(i % 3), 0}
		em.Normals[i] = mgl32.Vec3{0, 0, 1}
	}
	for i := range em.Indices {
		em.Indices[i] = uint32(i % count)
	}
	return em
}

func lifted(em *geometry.EditableMesh) *geometry.EditableMesh {
	moved := make([]mgl32.Vec3, len(em.Vertices))
	for i, v := range em.Vertices {
		moved[i] = v.Add(mgl32.Vec3{0, 0, 1})
	}
	em.Shapes = []geometry.ShapeKey{{Name: "shp_lift", Positions: moved}}
	return em
}

func TestExportCapacity(t *testing.T) {
	for _, c := range []struct {
		name    string
		sources []geometry.MeshSource
		check   func(err error) bool
	}{
		{"vertices over limit", []geometry.MeshSource{strip(mdl.VERTEX_LIMIT+1, mdl.VERTEX_LIMIT+3)}, func(err error) bool {
			var limit *mdl.MeshVertexLimitError
			return errors.As(err, &limit) && limit.Count == mdl.VERTEX_LIMIT+1 && limit.Limit == mdl.VERTEX_LIMIT
		}},
		// all vertices fit, padding the single index run to 8 does not
		{"vertices at limit", []geometry.MeshSource{strip(mdl.VERTEX_LIMIT, mdl.VERTEX_LIMIT)}, func(err error) bool {
			var vl *mdl.MeshVertexLimitError
			var il *mdl.MeshIndexLimitError
			return !errors.As(err, &vl) && errors.As(err, &il) && il.Submesh == -1 && il.Count == mdl.VERTEX_LIMIT+1
		}},
		{"submesh indices", []geometry.MeshSource{repeatQuad("body", 0, 0, 65538)}, func(err error) bool {
			var limit *mdl.MeshIndexLimitError
			return errors.As(err, &limit) && limit.Submesh == 0 && limit.Count == 65538
		}},
		{"padded mesh indices", []geometry.MeshSource{
			repeatQuad("body", 0, 0, 32766),
			repeatQuad("body", 0, 1, 32766),
		}, func(err error) bool {
			var limit *mdl.MeshIndexLimitError
			return errors.As(err, &limit) && limit.Submesh == -1 && limit.Count == 65536
		}},
		{"shape values", []geometry.MeshSource{
			lifted(repeatQuad("body", 0, 0, 30000)),
			lifted(repeatQuad("body", 1, 0, 30000)),
			lifted(repeatQuad("body", 2, 0, 30000)),
		}, func(err error) bool {
			var limit *mdl.ShapeValueLimitError
			return errors.As(err, &limit) && limit.Mesh == 2 && limit.Count == 90000 && limit.Limit == mdl.SHAPE_VALUE_LIMIT
		}},
	} {
		r, err := Export(&Input{Lods: [][]geometry.MeshSource{c.sources}}, nil)
		if r != nil {
			t.Errorf("%s: partial result returned", c.name)
		}
		if !c.check(err) {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
	}
}

func TestExportIndicesNearLimit(t *testing.T) {
	// 65,520 indices already sit on an 8 index boundary
	r := export(t, nil, []geometry.MeshSource{repeatQuad("body", 0, 0, 65520)})
	if n := r.Model.Meshes[0].IndexCount; n != 65520 {
		t.Errorf("index count %d", n)
	}
}

func TestExportBlendWidth(t *testing.T) {
	wide := config.DefaultProfile()
	wide.BoneLimit = config.BoneLimit8
	narrow := config.DefaultProfile()
	narrow.BoneLimit = config.BoneLimit4

	five := []string{"j_0", "j_1", "j_2", "j_3", "j_4"}
	for _, c := range []struct {
		name     string
		profile  *config.Profile
		groups   []string
		width    int
		overflow bool
	}{
		{"auto two bones", nil, []string{"j_kosi", "j_sebo_a"}, vertex.BLEND_NARROW, false},
		{"auto five bones", nil, five, vertex.BLEND_WIDE, false},
		{"forced wide", wide, []string{"j_kosi"}, vertex.BLEND_WIDE, false},
		{"forced narrow", narrow, five, vertex.BLEND_NARROW, true},
	} {
		r := export(t, c.profile, []geometry.MeshSource{skin(quad("body", 0, 0), c.groups...)})
		m := r.Model
		if got := vertex.BlendWidth(m.Declarations[0]); got != c.width {
			t.Errorf("%s: blend width %d, want %d", c.name, got, c.width)
		}
		if !m.Meshes[0].Skinned() {
			t.Errorf("%s: mesh is not skinned", c.name)
		}
		if len(m.BoneTables[0].BoneIndex) != len(c.groups) || len(m.Bones) != len(c.groups) {
			t.Errorf("%s: bone table %v bones %v", c.name, m.BoneTables[0].BoneIndex, m.Bones)
		}
		if got := r.Report.Total.Overflow != 0; got != c.overflow {
			t.Errorf("%s: overflow reported %v", c.name, got)
		}
		for i, bb := range m.BoneBoundingBoxes {
			if c.overflow {
				break
			}
			if bb.Max[0] != 1 || bb.Min[0] != 0 {
				t.Errorf("%s: bone %d box %v", c.name, i, bb)
			}
		}
	}
}

func TestExportUnknownGroups(t *testing.T) {
	skel := []geometry.BoneSource{geometry.BoneFromArmature([]geometry.ArmatureBone{
		{Name: "n_root", Parent: ""},
		{Name: "j_kosi", Parent: "n_root"},
	})}
	r, err := Export(&Input{
		Lods:     [][]geometry.MeshSource{{skin(quad("body", 0, 0), "j_kosi", "helper")}},
		Skeleton: skel,
	}, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(r.Model.Bones) != 1 || r.Model.Bones[0] != "j_kosi" {
		t.Errorf("bones %v", r.Model.Bones)
	}
	o := r.Report.object("body 0.0")
	if len(o.UnknownGroups) != 1 || o.UnknownGroups[0] != "helper" {
		t.Errorf("unknown groups %v", o.UnknownGroups)
	}
}

func TestExportShapes(t *testing.T) {
	em := quad("body", 0, 0)
	moved := append([]mgl32.Vec3(nil), em.Vertices...)
	moved[0] = mgl32.Vec3{-1, -1, 0}
	em.Shapes = []geometry.ShapeKey{
		{Name: "shp_still", Positions: append([]mgl32.Vec3(nil), em.Vertices...)},
		{Name: "shp_corner", Positions: moved},
	}
	r := export(t, nil, []geometry.MeshSource{em})
	m := r.Model
	if len(m.Shapes) != 1 || m.Shapes[0].Name != "shp_corner" {
		t.Fatalf("shapes %+v", m.Shapes)
	}
	if m.Meshes[0].VertexCount != 5 {
		t.Errorf("vertex count %d, want base 4 plus 1 shape vertex", m.Meshes[0].VertexCount)
	}
	if len(m.ShapeMeshes) != 1 || m.ShapeMeshes[0].MeshIndexOffset != m.Meshes[0].StartIndex {
		t.Fatalf("shape meshes %+v", m.ShapeMeshes)
	}
	want := []mdl.ShapeValue{{BaseIndicesIndex: 0, ReplacingVertexIndex: 4}, {BaseIndicesIndex: 3, ReplacingVertexIndex: 4}}
	if len(m.ShapeValues) != len(want) {
		t.Fatalf("shape values %+v", m.ShapeValues)
	}
	for i := range want {
		if m.ShapeValues[i] != want[i] {
			t.Errorf("shape value %d: %+v, want %+v", i, m.ShapeValues[i], want[i])
		}
	}
}

func TestExportLods(t *testing.T) {
	profile := config.DefaultProfile()
	profile.LodRanges = []config.LodRange{{Model: 0, Texture: 0}, {Model: 20, Texture: 15}}
	r := export(t, profile,
		[]geometry.MeshSource{quad("body", 0, 0), quad("body", 1, 0)},
		[]geometry.MeshSource{quad("body", 0, 0)},
	)
	m := r.Model
	if m.LodCount() != 2 || len(m.BoneTables) != 2 {
		t.Fatalf("lods %d bone tables %d", m.LodCount(), len(m.BoneTables))
	}
	if m.Lods[1].MeshIndex != 2 || m.Lods[1].MeshCount != 1 {
		t.Errorf("lod 1 mesh range %d+%d", m.Lods[1].MeshIndex, m.Lods[1].MeshCount)
	}
	if m.Lods[1].ModelLodRange != 20 || m.Lods[1].TextureLodRange != 15 {
		t.Errorf("lod 1 ranges %v %v", m.Lods[1].ModelLodRange, m.Lods[1].TextureLodRange)
	}
	if m.Meshes[2].StartIndex != 0 || m.Meshes[2].VertexBufferOffset[0] != 0 {
		t.Errorf("lod 1 mesh does not start its own buffers: %+v", m.Meshes[2])
	}
}
