package gltfutils

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/mdl_tools/geometry"
	"github.com/mogaika/mdl_tools/utils"
)

func texcoordName(i int) string { return fmt.Sprintf("TEXCOORD_%d", i) }
func colorName(i int) string    { return fmt.Sprintf("COLOR_%d", i) }

// Reader turns document nodes into exporter sources
type Reader struct {
	Doc *gltf.Document
	// generates names for morph targets without targetNames extras
	names utils.RandomNameGenerator
}

func NewReader(doc *gltf.Document) *Reader {
	return &Reader{Doc: doc}
}

// Read returns sources grouped by lod, node names must be mesh identifiers
func (r *Reader) Read() ([][]geometry.MeshSource, error) {
	var lods [][]geometry.MeshSource
	for iNode, node := range r.Doc.Nodes {
		if node.Mesh == nil {
			continue
		}
		lod := intValue(extrasMap(node.Extras)[EXTRAS_LOD])
		meshes, err := r.readNode(node)
		if err != nil {
			return nil, errors.Wrapf(err, "Node %d %q", iNode, node.Name)
		}
		for len(lods) <= lod {
			lods = append(lods, nil)
		}
		for _, em := range meshes {
			lods[lod] = append(lods[lod], em)
		}
	}
	return lods, nil
}

func (r *Reader) readNode(node *gltf.Node) ([]*geometry.EditableMesh, error) {
	doc := r.Doc
	if int(*node.Mesh) >= len(doc.Meshes) {
		return nil, errors.Errorf("Mesh %d does not exist", *node.Mesh)
	}
	mesh := doc.Meshes[*node.Mesh]
	name := node.Name
	if name == "" {
		name = mesh.Name
	}
	id, err := geometry.ParseIdentifier(name)
	if err != nil {
		return nil, err
	}
	targetNames := stringList(extrasMap(mesh.Extras)[EXTRAS_TARGET_NAMES])
	for _, n := range targetNames {
		r.names.Reserve(n)
	}

	var skin *gltf.Skin
	if node.Skin != nil && int(*node.Skin) < len(doc.Skins) {
		skin = doc.Skins[*node.Skin]
	}

	result := make([]*geometry.EditableMesh, 0, len(mesh.Primitives))
	for iPrimitive, p := range mesh.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			return nil, errors.Errorf("Primitive %d is not triangle list", iPrimitive)
		}
		em := &geometry.EditableMesh{
			ID:             geometry.Identifier{Label: id.Label, Mesh: id.Mesh, Submesh: id.Submesh + iPrimitive},
			AttributeNames: stringList(extrasMap(node.Extras)[EXTRAS_ATTRIBUTES]),
		}
		if err := r.readPrimitive(em, p, skin, targetNames); err != nil {
			return nil, errors.Wrapf(err, "Primitive %d", iPrimitive)
		}
		if err := em.Validate(); err != nil {
			return nil, err
		}
		result = append(result, em)
	}
	return result, nil
}

func (r *Reader) accessor(a gltf.Attribute, name string) (*gltf.Accessor, bool) {
	i, ok := a[name]
	if !ok || int(i) >= len(r.Doc.Accessors) {
		return nil, false
	}
	return r.Doc.Accessors[i], true
}

func vec3s(in [][3]float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func (r *Reader) readPrimitive(em *geometry.EditableMesh, p *gltf.Primitive, skin *gltf.Skin, targetNames []string) error {
	doc := r.Doc
	acr, ok := r.accessor(p.Attributes, "POSITION")
	if !ok {
		return errors.Errorf("No positions")
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return errors.Wrapf(err, "Positions")
	}
	em.Vertices = vec3s(positions)

	if p.Material != nil && int(*p.Material) < len(doc.Materials) {
		em.MaterialName = doc.Materials[*p.Material].Name
	}

	if p.Indices != nil {
		if em.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil); err != nil {
			return errors.Wrapf(err, "Indices")
		}
	} else {
		em.Indices = make([]uint32, len(em.Vertices))
		for i := range em.Indices {
			em.Indices[i] = uint32(i)
		}
	}

	if acr, ok := r.accessor(p.Attributes, "NORMAL"); ok {
		normals, err := modeler.ReadNormal(doc, acr, nil)
		if err != nil {
			return errors.Wrapf(err, "Normals")
		}
		em.Normals = vec3s(normals)
	}

	for iLayer := 0; ; iLayer++ {
		acr, ok := r.accessor(p.Attributes, texcoordName(iLayer))
		if !ok {
			break
		}
		uvs, err := modeler.ReadTextureCoord(doc, acr, nil)
		if err != nil {
			return errors.Wrapf(err, "Uv layer %d", iLayer)
		}
		layer := geometry.UVLayer{Name: fmt.Sprintf("uv%d", iLayer), UVs: make([]mgl32.Vec2, len(uvs))}
		for i, uv := range uvs {
			layer.UVs[i] = uv
		}
		em.UVs = append(em.UVs, layer)
	}

	for iLayer := 0; ; iLayer++ {
		acr, ok := r.accessor(p.Attributes, colorName(iLayer))
		if !ok {
			break
		}
		colors, err := modeler.ReadColor(doc, acr, nil)
		if err != nil {
			return errors.Wrapf(err, "Color layer %d", iLayer)
		}
		layer := geometry.ColorLayer{Name: fmt.Sprintf("color%d", iLayer), Colors: make([]utils.ColorFloat, len(colors))}
		for i, c := range colors {
			layer.Colors[i] = utils.NewColorFloatBytes(c)
		}
		em.Colors = append(em.Colors, layer)
	}

	if skin != nil {
		if err := r.readWeights(em, p, skin); err != nil {
			return err
		}
	}

	for iTarget, target := range p.Targets {
		acr, ok := r.accessor(target, "POSITION")
		if !ok {
			continue
		}
		delta, err := modeler.ReadPosition(doc, acr, nil)
		if err != nil {
			return errors.Wrapf(err, "Morph target %d", iTarget)
		}
		if len(delta) != len(em.Vertices) {
			return errors.Errorf("Morph target %d has %d positions for %d vertices", iTarget, len(delta), len(em.Vertices))
		}
		key := geometry.ShapeKey{Positions: make([]mgl32.Vec3, len(delta))}
		if iTarget < len(targetNames) {
			key.Name = targetNames[iTarget]
		} else {
			key.Name = r.names.RandomName()
		}
		for i, d := range delta {
			key.Positions[i] = em.Vertices[i].Add(d)
		}
		em.Shapes = append(em.Shapes, key)
	}
	return nil
}

func (r *Reader) readWeights(em *geometry.EditableMesh, p *gltf.Primitive, skin *gltf.Skin) error {
	doc := r.Doc
	wt := &geometry.WeightTable{Weights: make([][]geometry.Influence, len(em.Vertices))}
	for set := 0; ; set++ {
		jacr, ok := r.accessor(p.Attributes, fmt.Sprintf("JOINTS_%d", set))
		if !ok {
			break
		}
		wacr, ok := r.accessor(p.Attributes, fmt.Sprintf("WEIGHTS_%d", set))
		if !ok {
			return errors.Errorf("JOINTS_%d without WEIGHTS_%d", set, set)
		}
		joints, err := modeler.ReadJoints(doc, jacr, nil)
		if err != nil {
			return errors.Wrapf(err, "Joints %d", set)
		}
		weights, err := modeler.ReadWeights(doc, wacr, nil)
		if err != nil {
			return errors.Wrapf(err, "Weights %d", set)
		}
		if len(joints) != len(em.Vertices) || len(weights) != len(em.Vertices) {
			return errors.Errorf("Skin set %d size mismatch", set)
		}
		for v := range joints {
			for i := 0; i < 4; i++ {
				if weights[v][i] <= 0 {
					continue
				}
				j := int(joints[v][i])
				if j >= len(skin.Joints) || int(skin.Joints[j]) >= len(doc.Nodes) {
					return errors.Errorf("Vertex %d references joint %d of %d", v, j, len(skin.Joints))
				}
				group := wt.GroupIndex(doc.Nodes[skin.Joints[j]].Name)
				wt.Weights[v] = append(wt.Weights[v], geometry.Influence{Group: group, Weight: weights[v][i]})
			}
		}
	}
	if len(wt.Groups) != 0 {
		em.WeightTable = wt
	}
	return nil
}
