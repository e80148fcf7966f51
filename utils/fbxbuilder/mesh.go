package fbxbuilder

import (
	"fmt"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/mdl_tools/geometry"
	"github.com/mogaika/mdl_tools/utils"
)

// MeshWriter is MeshSink producing one fbx model per submesh.
// Only geometry, uv, color and material binding are written.
type MeshWriter struct {
	f *FBXBuilder
}

func NewMeshWriter(f *FBXBuilder) *MeshWriter {
	return &MeshWriter{f: f}
}

func (mw *MeshWriter) material(name string) int64 {
	key := "material:" + name
	if id, ok := mw.f.GetCached(key).(int64); ok {
		return id
	}
	id := mw.f.GenerateId()
	mw.f.AddObjects(bfbx73.Material(id, name+"\x00\x01Material", "").AddNodes(
		bfbx73.Version(102),
		bfbx73.ShadingModel("lambert"),
		bfbx73.MultiLayer(0),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("Opacity", "double", "Number", "", float64(1)),
		),
	))
	mw.f.AddCache(key, id)
	return id
}

func (mw *MeshWriter) AddMesh(lod int, em *geometry.EditableMesh) error {
	if err := em.Validate(); err != nil {
		return err
	}
	f := mw.f

	indexes := make([]int32, len(em.Indices))
	for i, idx := range em.Indices {
		indexes[i] = int32(idx)
		if i%3 == 2 {
			// last corner of polygon is stored as bitwise not
			indexes[i] = -int32(idx) - 1
		}
	}

	geometryId := f.GenerateId()
	layer := bfbx73.Layer(0).AddNodes(bfbx73.Version(100))
	geom := bfbx73.Geometry(geometryId, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(utils.FlattenVec3(em.Vertices)),
		bfbx73.PolygonVertexIndex(indexes),
		layer,
	)
	addLayer := func(node *fbx.Node, kind string) {
		geom.AddNode(node)
		layer.AddNode(bfbx73.LayerElement().AddNodes(
			bfbx73.Type(kind),
			bfbx73.TypedIndex(0),
		))
	}

	if len(em.Normals) != 0 {
		addLayer(bfbx73.LayerElementNormal(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByVertice"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Normals(utils.FlattenVec3(em.Normals)),
		), "LayerElementNormal")
	}
	if len(em.Colors) != 0 {
		rgba := make([]float64, 0, len(em.Colors[0].Colors)*4)
		for _, c := range em.Colors[0].Colors {
			rgba = append(rgba, utils.FloatArray32to64(c[:])...)
		}
		addLayer(bfbx73.LayerElementColor(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(em.Colors[0].Name),
			bfbx73.MappingInformationType("ByVertice"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Colors(rgba),
		), "LayerElementColor")
	}
	if len(em.UVs) != 0 {
		uvIndexes := make([]int32, len(em.Indices))
		for i, idx := range em.Indices {
			uvIndexes[i] = int32(idx)
		}
		uv := make([]float64, 0, len(em.UVs[0].UVs)*2)
		for _, v := range em.UVs[0].UVs {
			uv = append(uv, float64(v[0]), float64(1-v[1]))
		}
		addLayer(bfbx73.LayerElementUV(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(em.UVs[0].Name),
			bfbx73.MappingInformationType("ByPolygonVertex"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.UV(uv),
			bfbx73.UVIndex(uvIndexes),
		), "LayerElementUV")
	}
	addLayer(bfbx73.LayerElementMaterial(0).AddNodes(
		bfbx73.Version(101),
		bfbx73.Name(""),
		bfbx73.MappingInformationType("AllSame"),
		bfbx73.ReferenceInformationType("IndexToDirect"),
		bfbx73.Materials([]int32{0}),
	), "LayerElementMaterial")

	name := em.Name()
	if lod != 0 {
		name = fmt.Sprintf("%s_lod%d", name, lod)
	}
	modelId := f.GenerateId()
	model := bfbx73.Model(modelId, name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	f.AddObjects(model, geom)
	f.AddConnections(
		bfbx73.C("OO", geometryId, modelId),
		bfbx73.C("OO", modelId, int64(0)),
	)
	if em.MaterialName != "" {
		f.AddConnections(bfbx73.C("OO", mw.material(em.MaterialName), modelId))
	}
	f.exlog.Printf("Fbx model %q: %d vertices", name, len(em.Vertices))
	return nil
}
