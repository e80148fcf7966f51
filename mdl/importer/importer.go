package importer

import (
	"encoding/binary"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/geometry"
	"github.com/mogaika/mdl_tools/mdl"
	"github.com/mogaika/mdl_tools/mdl/shape"
	"github.com/mogaika/mdl_tools/mdl/tangent"
	"github.com/mogaika/mdl_tools/mdl/vertex"
	"github.com/mogaika/mdl_tools/utils"
)

// Diagnostics lists skipped meshes and submeshes
type Diagnostics []string

func (d *Diagnostics) add(format string, a ...interface{}) {
	*d = append(*d, fmt.Sprintf(format, a...))
}

// ImportFile parses data and passes every submesh to sink
func ImportFile(data []byte, label string, sink geometry.MeshSink, exlog *utils.Logger) (Diagnostics, error) {
	m, err := mdl.Parse(data)
	if err != nil {
		return nil, err
	}
	exlog.Printf("Parsed %d lods, %d meshes, %d shapes", m.LodCount(), len(m.Meshes), len(m.Shapes))
	return Import(m, label, sink, exlog)
}

// Import converts parsed model to editable meshes, identifiers
// are "<label> <mesh>.<submesh>" with mesh numbered inside its lod
func Import(m *mdl.Model, label string, sink geometry.MeshSink, exlog *utils.Logger) (Diagnostics, error) {
	var diag Diagnostics
	for lod := 0; lod < m.LodCount(); lod++ {
		l := &m.Lods[lod]
		for local := 0; local < int(l.MeshCount); local++ {
			mi := &meshImport{
				m:     m,
				lod:   lod,
				local: local,
				index: int(l.MeshIndex) + local,
				label: label,
				diag:  &diag,
				exlog: exlog,
			}
			if err := mi.run(sink); err != nil {
				return diag, errors.Wrapf(err, "Lod %d mesh %d", lod, local)
			}
		}
	}
	for _, d := range diag {
		exlog.Printf("Skipped: %s", d)
	}
	return diag, nil
}

type decodedShape struct {
	name      string
	positions []mgl32.Vec3
}

type meshImport struct {
	m     *mdl.Model
	lod   int
	local int
	index int
	label string
	diag  *Diagnostics
	exlog *utils.Logger

	mesh    *mdl.Mesh
	layout  *vertex.Layout
	streams [mdl.STREAMS_USED]*vertex.StreamBuffer
	indices []uint16

	positions  []mgl32.Vec3
	normals    []mgl32.Vec3
	tangents   []uint8
	uvs        [][]mgl32.Vec2
	colors     [][]utils.ColorFloat
	blendWidth int
	blendW     []uint8
	blendI     []uint8
	shapes     []decodedShape
}

func (mi *meshImport) run(sink geometry.MeshSink) error {
	mi.mesh = &mi.m.Meshes[mi.index]
	if mi.mesh.VertexCount == 0 {
		mi.diag.add("lod %d mesh %d has no vertices", mi.lod, mi.local)
		return nil
	}
	if err := mi.parseStreams(); err != nil {
		return err
	}
	if err := mi.expandShapes(); err != nil {
		return err
	}
	for k := 0; k < int(mi.mesh.SubmeshCount); k++ {
		em, err := mi.submesh(k)
		if err != nil {
			return errors.Wrapf(err, "Submesh %d", k)
		}
		if em == nil {
			continue
		}
		if err := sink.AddMesh(mi.lod, em); err != nil {
			return errors.Wrapf(err, "Submesh %d", k)
		}
	}
	return nil
}

func (mi *meshImport) floats(usage mdl.VertexUsage, usageIndex uint8, width int) ([]float32, error) {
	name := vertex.FieldName(usage, usageIndex)
	s, _, ok := mi.layout.Field(name)
	if !ok {
		return nil, nil
	}
	return mi.streams[s].Floats(name, width)
}

func (mi *meshImport) bytes(usage mdl.VertexUsage, usageIndex uint8, width int) ([]uint8, error) {
	name := vertex.FieldName(usage, usageIndex)
	s, _, ok := mi.layout.Field(name)
	if !ok {
		return nil, nil
	}
	return mi.streams[s].Bytes(name, width)
}

func vec3s(values []float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(values)/3)
	for i := range out {
		out[i] = mgl32.Vec3{values[i*3], values[i*3+1], values[i*3+2]}
	}
	return out
}

func (mi *meshImport) parseStreams() error {
	m, mesh := mi.m, mi.mesh
	layout, err := vertex.NewLayout(m.Declarations[mi.index])
	if err != nil {
		return &mdl.FormatError{Section: "vertex declarations", Offset: -1,
			Reason: fmt.Sprintf("mesh %d", mi.index), Err: err}
	}
	mi.layout = layout
	count := int(mesh.VertexCount)
	for s := range mi.streams {
		sl := &layout.Streams[s]
		if sl.Stride != 0 && sl.Stride != int(mesh.VertexBufferStride[s]) {
			return &mdl.FormatError{Section: "meshes", Offset: -1,
				Reason: fmt.Sprintf("mesh %d stream %d stride %d, declaration says %d", mi.index, s, mesh.VertexBufferStride[s], sl.Stride)}
		}
		off := int(mesh.VertexBufferOffset[s])
		if off > len(m.VertexData[mi.lod]) {
			return errors.Errorf("Stream %d offset 0x%x outside vertex data", s, off)
		}
		if mi.streams[s], err = vertex.WrapStreamBuffer(sl, m.VertexData[mi.lod][off:], count); err != nil {
			return errors.Wrapf(err, "Stream %d", s)
		}
	}

	data := m.IndexData[mi.lod][mesh.StartIndex*2 : (mesh.StartIndex+mesh.IndexCount)*2]
	mi.indices = make([]uint16, mesh.IndexCount)
	for i := range mi.indices {
		mi.indices[i] = binary.LittleEndian.Uint16(data[i*2:])
	}

	pos, err := mi.floats(mdl.VERTEX_USAGE_POSITION, 0, 3)
	if err != nil {
		return err
	}
	mi.positions = vec3s(pos)
	if nrm, err := mi.floats(mdl.VERTEX_USAGE_NORMAL, 0, 3); err != nil {
		return err
	} else if nrm != nil {
		mi.normals = vec3s(nrm)
	}
	if mi.tangents, err = mi.bytes(mdl.VERTEX_USAGE_TANGENT, 0, 4); err != nil {
		return err
	}

	for c := 0; c < layout.UVChannels(); c++ {
		name, first := vertex.UVField(c)
		s, f, _ := layout.Field(name)
		width := f.Storage.Count
		values, err := mi.streams[s].Floats(name, width)
		if err != nil {
			return err
		}
		uvs := make([]mgl32.Vec2, count)
		for v := range uvs {
			uvs[v] = mgl32.Vec2{values[v*width+first], values[v*width+first+1]}
		}
		mi.uvs = append(mi.uvs, uvs)
	}
	for c := 0; c < layout.ColorChannels(); c++ {
		raw, err := mi.bytes(mdl.VERTEX_USAGE_COLOR, uint8(c), 4)
		if err != nil {
			return err
		}
		colors := make([]utils.ColorFloat, count)
		for v := range colors {
			colors[v] = utils.NewColorFloatBytes([4]uint8{raw[v*4], raw[v*4+1], raw[v*4+2], raw[v*4+3]})
		}
		mi.colors = append(mi.colors, colors)
	}

	if mesh.Skinned() {
		if err := mi.checkBlend(); err != nil {
			return err
		}
		mi.blendWidth = vertex.BlendWidth(m.Declarations[mi.index])
		if mi.blendW, err = mi.bytes(mdl.VERTEX_USAGE_BLEND_WEIGHTS, 0, mi.blendWidth); err != nil {
			return err
		}
		if mi.blendI, err = mi.bytes(mdl.VERTEX_USAGE_BLEND_INDICES, 0, mi.blendWidth); err != nil {
			return err
		}
		if n := count * mi.blendWidth; len(mi.blendW) != n || len(mi.blendI) != n {
			return &mdl.FormatError{Section: "vertex declarations", Offset: -1,
				Reason: fmt.Sprintf("mesh %d blend data %d/%d bytes, want %d", mi.index, len(mi.blendW), len(mi.blendI), n)}
		}
	}
	return nil
}

// checkBlend requires skinned meshes to declare weights and indices of one width
func (mi *meshImport) checkBlend() error {
	_, weights, okW := mi.layout.Field(vertex.FieldName(mdl.VERTEX_USAGE_BLEND_WEIGHTS, 0))
	_, indices, okI := mi.layout.Field(vertex.FieldName(mdl.VERTEX_USAGE_BLEND_INDICES, 0))
	switch {
	case !okW || !okI:
		return &mdl.FormatError{Section: "vertex declarations", Offset: -1,
			Reason: fmt.Sprintf("skinned mesh %d lacks blend weights or indices", mi.index)}
	case weights.Storage.Count != indices.Storage.Count:
		return &mdl.FormatError{Section: "vertex declarations", Offset: -1,
			Reason: fmt.Sprintf("mesh %d blend weights width %d != indices width %d",
				mi.index, weights.Storage.Count, indices.Storage.Count)}
	case weights.Storage.Count != vertex.BLEND_NARROW && weights.Storage.Count != vertex.BLEND_WIDE:
		return &mdl.FormatError{Section: "vertex declarations", Offset: -1,
			Reason: fmt.Sprintf("mesh %d blend width %d", mi.index, weights.Storage.Count)}
	}
	return nil
}

// expandShapes applies every shape mesh bound to this mesh to whole mesh positions
func (mi *meshImport) expandShapes() error {
	m := mi.m
	for _, s := range m.Shapes {
		start := int(s.ShapeMeshStartIndex[mi.lod])
		for j := start; j < start+int(s.ShapeMeshCount[mi.lod]); j++ {
			sm := &m.ShapeMeshes[j]
			if sm.MeshIndexOffset != mi.mesh.StartIndex {
				continue
			}
			values := m.ShapeValues[sm.ShapeValueOffset : sm.ShapeValueOffset+sm.ShapeValueCount]
			positions, err := shape.Decode(mi.positions, mi.indices, values)
			if err != nil {
				return errors.Wrapf(err, "Shape %q", s.Name)
			}
			mi.shapes = append(mi.shapes, decodedShape{name: s.Name, positions: positions})
		}
	}
	return nil
}

func (mi *meshImport) submesh(k int) (*geometry.EditableMesh, error) {
	m, mesh := mi.m, mi.mesh
	sub := &m.Submeshes[int(mesh.SubmeshIndex)+k]
	if sub.IndexCount == 0 {
		mi.diag.add("lod %d mesh %d submesh %d has no indices", mi.lod, mi.local, k)
		return nil, nil
	}

	first := int(sub.IndexOffset - mesh.StartIndex)
	indices := mi.indices[first : first+int(sub.IndexCount)]
	lo, hi := int(indices[0]), int(indices[0])
	for _, idx := range indices {
		if int(idx) < lo {
			lo = int(idx)
		}
		if int(idx) > hi {
			hi = int(idx)
		}
	}
	if hi >= len(mi.positions) {
		return nil, errors.Errorf("Index %d outside %d vertices", hi, len(mi.positions))
	}
	end := hi + 1

	em := &geometry.EditableMesh{
		ID:       geometry.Identifier{Label: mi.label, Mesh: mi.local, Submesh: k},
		Vertices: append([]mgl32.Vec3(nil), mi.positions[lo:end]...),
		Indices:  make([]uint32, len(indices)),
	}
	if int(mesh.MaterialIndex) < len(m.Materials) {
		em.MaterialName = m.Materials[mesh.MaterialIndex]
	}
	for i, idx := range indices {
		em.Indices[i] = uint32(int(idx) - lo)
	}
	if mi.normals != nil {
		em.Normals = append([]mgl32.Vec3(nil), mi.normals[lo:end]...)
	}
	if mi.tangents != nil && em.Normals != nil {
		em.Tangents, em.Bitangents, em.Signs = tangent.UnpackAll(mi.tangents[lo*4:end*4], em.Normals)
	}
	for c, uvs := range mi.uvs {
		em.UVs = append(em.UVs, geometry.UVLayer{
			Name: fmt.Sprintf("uv%d", c),
			UVs:  append([]mgl32.Vec2(nil), uvs[lo:end]...),
		})
	}
	for c, colors := range mi.colors {
		em.Colors = append(em.Colors, geometry.ColorLayer{
			Name:   fmt.Sprintf("color%d", c),
			Colors: append([]utils.ColorFloat(nil), colors[lo:end]...),
		})
	}
	for b := 0; b < len(m.Attributes) && b < 32; b++ {
		if sub.AttributeIndexMask&(1<<uint(b)) != 0 {
			em.AttributeNames = append(em.AttributeNames, m.Attributes[b])
		}
	}

	if mesh.Skinned() {
		wt, err := mi.weightTable(lo, end)
		if err != nil {
			return nil, err
		}
		em.WeightTable = wt
	}

	for _, s := range mi.shapes {
		positions := s.positions[lo:end]
		changed := false
		for v, p := range positions {
			if p != em.Vertices[v] {
				changed = true
				break
			}
		}
		if changed {
			em.Shapes = append(em.Shapes, geometry.ShapeKey{Name: s.name, Positions: append([]mgl32.Vec3(nil), positions...)})
		}
	}
	return em, em.Validate()
}

func (mi *meshImport) weightTable(lo, end int) (*geometry.WeightTable, error) {
	m := mi.m
	bt := &m.BoneTables[mi.mesh.BoneTableIndex]
	w := mi.blendWidth
	wt := &geometry.WeightTable{Weights: make([][]geometry.Influence, end-lo)}
	for v := lo; v < end; v++ {
		for i := 0; i < w; i++ {
			weight := mi.blendW[v*w+i]
			if weight == 0 {
				continue
			}
			slot := int(mi.blendI[v*w+i])
			if slot >= len(bt.BoneIndex) {
				return nil, errors.Errorf("Vertex %d references bone slot %d of %d", v, slot, len(bt.BoneIndex))
			}
			group := wt.GroupIndex(m.Bones[bt.BoneIndex[slot]])
			wt.Weights[v-lo] = append(wt.Weights[v-lo], geometry.Influence{
				Group:  group,
				Weight: float32(weight) / 255,
			})
		}
	}
	return wt, nil
}
