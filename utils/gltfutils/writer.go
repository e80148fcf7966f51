package gltfutils

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/mdl_tools/geometry"
)

// Writer is MeshSink that builds gltf document, one node per submesh.
// Bones become joint nodes of single skin, shapes become morph targets.
type Writer struct {
	Doc *gltf.Document

	materials map[string]uint32
	joints    map[string]int
	skin      *uint32
}

func NewWriter() *Writer {
	return &Writer{
		Doc:       NewDocument(),
		materials: make(map[string]uint32),
		joints:    make(map[string]int),
	}
}

func (w *Writer) material(name string) uint32 {
	if i, ok := w.materials[name]; ok {
		return i
	}
	i := uint32(len(w.Doc.Materials))
	w.Doc.Materials = append(w.Doc.Materials, &gltf.Material{Name: name, DoubleSided: true})
	w.materials[name] = i
	return i
}

func (w *Writer) joint(bone string) int {
	if i, ok := w.joints[bone]; ok {
		return i
	}
	if w.skin == nil {
		w.skin = gltf.Index(uint32(len(w.Doc.Skins)))
		w.Doc.Skins = append(w.Doc.Skins, &gltf.Skin{Name: "skeleton"})
	}
	skin := w.Doc.Skins[*w.skin]
	node := uint32(len(w.Doc.Nodes))
	w.Doc.Nodes = append(w.Doc.Nodes, &gltf.Node{Name: bone})
	skin.Joints = append(skin.Joints, node)
	w.joints[bone] = len(skin.Joints) - 1
	return w.joints[bone]
}

// writeWeights stores up to 8 strongest influences in two joint sets
func (w *Writer) writeWeights(attributes gltf.Attribute, wt *geometry.WeightTable) error {
	count := len(wt.Weights)
	var joints [2][][4]uint16
	var weights [2][][4]float32
	for set := range joints {
		joints[set] = make([][4]uint16, count)
		weights[set] = make([][4]float32, count)
	}
	used := 1
	for v, row := range wt.Weights {
		row = append([]geometry.Influence(nil), row...)
		sort.SliceStable(row, func(i, j int) bool { return row[i].Weight > row[j].Weight })
		if len(row) > 8 {
			row = row[:8]
		}
		for i, in := range row {
			if in.Group < 0 || in.Group >= len(wt.Groups) {
				return errors.Errorf("Vertex %d references group %d of %d", v, in.Group, len(wt.Groups))
			}
			joints[i/4][v][i%4] = uint16(w.joint(wt.Groups[in.Group]))
			weights[i/4][v][i%4] = in.Weight
			if i >= 4 {
				used = 2
			}
		}
	}
	attributes["JOINTS_0"] = modeler.WriteJoints(w.Doc, joints[0])
	attributes["WEIGHTS_0"] = modeler.WriteWeights(w.Doc, weights[0])
	if used == 2 {
		attributes["JOINTS_1"] = modeler.WriteJoints(w.Doc, joints[1])
		attributes["WEIGHTS_1"] = modeler.WriteWeights(w.Doc, weights[1])
	}
	return nil
}

func (w *Writer) AddMesh(lod int, em *geometry.EditableMesh) error {
	if err := em.Validate(); err != nil {
		return err
	}
	doc := w.Doc

	positions := make([][3]float32, len(em.Vertices))
	for i, v := range em.Vertices {
		positions[i] = v
	}
	attributes := gltf.Attribute{"POSITION": modeler.WritePosition(doc, positions)}

	if len(em.Normals) != 0 {
		normals := make([][3]float32, len(em.Normals))
		for i, n := range em.Normals {
			normals[i] = n
		}
		attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
	}
	for iLayer, layer := range em.UVs {
		uvs := make([][2]float32, len(layer.UVs))
		for i, uv := range layer.UVs {
			uvs[i] = uv
		}
		attributes[texcoordName(iLayer)] = modeler.WriteTextureCoord(doc, uvs)
	}
	for iLayer, layer := range em.Colors {
		colors := make([][4]uint8, len(layer.Colors))
		for i, c := range layer.Colors {
			colors[i] = c.Bytes()
		}
		attributes[colorName(iLayer)] = modeler.WriteColor(doc, colors)
	}
	if em.WeightTable != nil {
		if err := w.writeWeights(attributes, em.WeightTable); err != nil {
			return errors.Wrapf(err, "Mesh %s", em.Name())
		}
	}

	primitive := &gltf.Primitive{
		Indices:    gltf.Index(modeler.WriteIndices(doc, em.Indices)),
		Attributes: attributes,
	}
	if em.MaterialName != "" {
		primitive.Material = gltf.Index(w.material(em.MaterialName))
	}

	mesh := &gltf.Mesh{Name: em.Name(), Primitives: []*gltf.Primitive{primitive}}
	if len(em.Shapes) != 0 {
		names := make([]string, len(em.Shapes))
		for iShape, s := range em.Shapes {
			delta := make([][3]float32, len(s.Positions))
			for i, p := range s.Positions {
				delta[i] = p.Sub(em.Vertices[i])
			}
			primitive.Targets = append(primitive.Targets, gltf.Attribute{"POSITION": modeler.WritePosition(doc, delta)})
			names[iShape] = s.Name
		}
		mesh.Extras = map[string]interface{}{EXTRAS_TARGET_NAMES: names}
	}

	node := &gltf.Node{
		Name: em.Name(),
		Mesh: gltf.Index(uint32(len(doc.Meshes))),
		Extras: map[string]interface{}{
			EXTRAS_LOD:        lod,
			EXTRAS_ATTRIBUTES: append([]string(nil), em.AttributeNames...),
		},
	}
	if em.WeightTable != nil {
		node.Skin = w.skin
	}
	doc.Meshes = append(doc.Meshes, mesh)
	doc.Nodes = append(doc.Nodes, node)
	return nil
}
