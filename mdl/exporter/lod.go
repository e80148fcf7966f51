package exporter

import (
	"bytes"
	"sort"

	"github.com/mogaika/mdl_tools/geometry"
	"github.com/mogaika/mdl_tools/mdl"
)

type identified struct {
	src geometry.MeshSource
	id  geometry.Identifier
}

type lodBuilder struct {
	mb  *modelBuilder
	lod int

	// global bone indices, slot is position in table
	boneTable []uint16
	slots     map[string]int

	vertexData  bytes.Buffer
	indexData   bytes.Buffer
	indexCursor uint32
	polygons    int
}

// groupSources splits objects into meshes by identifier. Mesh numbers
// are sorted and renumbered without gaps, submeshes keep their order.
func groupSources(sources []geometry.MeshSource) ([][]identified, error) {
	all := make([]identified, 0, len(sources))
	for _, src := range sources {
		id, err := geometry.ParseIdentifier(src.Name())
		if err != nil {
			return nil, err
		}
		all = append(all, identified{src: src, id: id})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].id.Mesh != all[j].id.Mesh {
			return all[i].id.Mesh < all[j].id.Mesh
		}
		return all[i].id.Submesh < all[j].id.Submesh
	})

	var groups [][]identified
	for i, s := range all {
		if i > 0 {
			prev := all[i-1].id
			if prev.Mesh == s.id.Mesh && prev.Submesh == s.id.Submesh {
				return nil, &mdl.MeshIdentifierError{Name: s.src.Name(), Reason: "duplicate mesh and submesh number"}
			}
			if prev.Mesh == s.id.Mesh {
				groups[len(groups)-1] = append(groups[len(groups)-1], s)
				continue
			}
		}
		groups = append(groups, []identified{s})
	}
	return groups, nil
}

// buildBoneTable collects every used vertex group of lod in order of first use
func (lb *lodBuilder) buildBoneTable(groups [][]identified) error {
	mb := lb.mb
	for _, g := range groups {
		for _, s := range g {
			wt := s.src.Weights()
			if wt == nil {
				continue
			}
			for gi, used := range wt.UsedGroups() {
				if !used {
					continue
				}
				name := wt.Groups[gi]
				if _, ok := lb.slots[name]; ok {
					continue
				}
				if mb.skeleton != nil {
					if _, ok := mb.skeleton.Index(name); !ok {
						mb.report.addUnknownGroup(s.src.Name(), name)
						continue
					}
				}
				lb.slots[name] = len(lb.boneTable)
				lb.boneTable = append(lb.boneTable, uint16(mb.addBone(name)))
			}
		}
	}
	if len(lb.boneTable) > mdl.BONE_TABLE_MAX {
		return &mdl.BoneTableLimitError{Lod: lb.lod, Count: len(lb.boneTable), Limit: mdl.BONE_TABLE_MAX}
	}
	return nil
}

func (mb *modelBuilder) buildLod(lod int, sources []geometry.MeshSource) error {
	groups, err := groupSources(sources)
	if err != nil {
		return err
	}
	lb := &lodBuilder{mb: mb, lod: lod, slots: make(map[string]int)}
	if err := lb.buildBoneTable(groups); err != nil {
		return err
	}
	mb.exlog.Printf("Lod %d: %d meshes from %d objects, %d bones", lod, len(groups), len(sources), len(lb.boneTable))

	m := mb.model
	l := &m.Lods[lod]
	l.MeshIndex = uint16(len(m.Meshes))
	for local, g := range groups {
		meb := &meshBuilder{lb: lb, local: local, sources: g}
		if err := meb.run(); err != nil {
			return err
		}
	}
	l.MeshCount = uint16(len(m.Meshes)) - l.MeshIndex

	aux := l.MeshIndex + l.MeshCount
	l.WaterMeshIndex, l.WaterMeshCount = aux, 0
	l.ShadowMeshIndex, l.ShadowMeshCount = aux, 0
	l.TerrainShadowMeshIndex, l.TerrainShadowMeshCount = aux, 0
	l.VerticalFogMeshIndex, l.VerticalFogMeshCount = aux, 0
	l.PolygonCount = uint32(lb.polygons)

	r := mb.profile.LodRange(lod)
	l.ModelLodRange = r.Model
	l.TextureLodRange = r.Texture

	m.BoneTables = append(m.BoneTables, mdl.BoneTable{BoneIndex: lb.boneTable})
	m.VertexData[lod] = lb.vertexData.Bytes()
	m.IndexData[lod] = lb.indexData.Bytes()
	return nil
}
