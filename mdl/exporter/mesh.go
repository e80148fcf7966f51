package exporter

import (
	"encoding/binary"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/config"
	"github.com/mogaika/mdl_tools/mdl"
	"github.com/mogaika/mdl_tools/mdl/shape"
	"github.com/mogaika/mdl_tools/mdl/tangent"
	"github.com/mogaika/mdl_tools/mdl/vertex"
	"github.com/mogaika/mdl_tools/mdl/weights"
	"github.com/mogaika/mdl_tools/utils"
)

type meshStage int

const (
	STAGE_START meshStage = iota
	STAGE_COMPUTE_DECLARATION
	STAGE_ENCODE_SUBMESHES
	STAGE_RESOLVE_BONE_LIMIT
	STAGE_EMIT_STREAMS
	STAGE_APPEND_SHAPE_DIFFS
	STAGE_ACCUMULATE_BOUNDING_BOXES
	STAGE_FINALIZE
)

var meshStageNames = []string{
	"Start", "ComputeDeclaration", "EncodeSubmeshes", "ResolveBoneLimit",
	"EmitStreams", "AppendShapeDiffs", "AccumulateBoundingBoxes", "Finalize",
}

func (s meshStage) String() string { return meshStageNames[s] }

// INDEX_RUN_ALIGN is submesh index count alignment, keeps runs 16 byte aligned
const INDEX_RUN_ALIGN = 8

type pendingShapeValue struct {
	submesh int
	slot    int
	replace int
}

type meshBuilder struct {
	lb      *lodBuilder
	local   int
	sources []identified

	material       string
	attributeMasks []uint32

	decl          mdl.VertexDeclaration
	layout        *vertex.Layout
	uvChannels    int
	colorChannels int
	blendWidth    int
	skinned       bool
	maxInfluences int

	submeshes  []*submesh
	vertexBase []int
	baseCount  int
	streams    [mdl.STREAMS_USED]*vertex.StreamBuffer

	// shape index to values of this mesh
	shapeValues map[int][]pendingShapeValue
	shapeOrder  []int
}

func (meb *meshBuilder) exlog() *utils.Logger {
	return meb.lb.mb.exlog
}

func (meb *meshBuilder) run() error {
	stages := []func() error{
		STAGE_START:                     meb.start,
		STAGE_COMPUTE_DECLARATION:       meb.computeDeclaration,
		STAGE_ENCODE_SUBMESHES:          meb.encodeSubmeshes,
		STAGE_RESOLVE_BONE_LIMIT:        meb.resolveBoneLimit,
		STAGE_EMIT_STREAMS:              meb.emitStreams,
		STAGE_APPEND_SHAPE_DIFFS:        meb.appendShapeDiffs,
		STAGE_ACCUMULATE_BOUNDING_BOXES: meb.accumulateBoundingBoxes,
		STAGE_FINALIZE:                  meb.finalize,
	}
	for i, fn := range stages {
		meb.exlog().Printf("Lod %d mesh %d: %v", meb.lb.lod, meb.local, meshStage(i))
		if err := fn(); err != nil {
			return errors.Wrapf(err, "Mesh %d %v", meb.local, meshStage(i))
		}
	}
	return nil
}

func (meb *meshBuilder) start() error {
	mb := meb.lb.mb
	meb.shapeValues = make(map[int][]pendingShapeValue)
	meb.attributeMasks = make([]uint32, len(meb.sources))
	for i, s := range meb.sources {
		material := s.src.Material()
		if material == "" {
			return &mdl.MissingMaterialError{Mesh: s.src.Name()}
		}
		if i == 0 {
			meb.material = material
		} else if material != meb.material {
			mb.report.diag("%s: material %q ignored, mesh uses %q of first submesh", s.src.Name(), material, meb.material)
		}
		for _, attr := range s.src.Attributes() {
			idx := mb.attributes.Add(attr)
			if mb.attributes.Len() > mdl.ATTRIBUTE_MAX {
				return &mdl.AttributeLimitError{Count: mb.attributes.Len(), Limit: mdl.ATTRIBUTE_MAX}
			}
			meb.attributeMasks[i] |= 1 << uint(idx)
		}
	}
	return nil
}

func (meb *meshBuilder) computeDeclaration() error {
	lb := meb.lb
	for _, s := range meb.sources {
		if n := len(s.src.UVLayers()); n > meb.uvChannels {
			meb.uvChannels = n
		}
		if n := len(s.src.ColorLayers()); n > meb.colorChannels {
			meb.colorChannels = n
		}
		if wt := s.src.Weights(); wt != nil && !meb.skinned {
			for gi, used := range wt.UsedGroups() {
				if _, ok := lb.slots[wt.Groups[gi]]; ok && used {
					meb.skinned = true
					break
				}
			}
		}
	}

	meb.blendWidth = vertex.BLEND_NONE
	if meb.skinned {
		meb.blendWidth = vertex.BLEND_WIDE
		if lb.mb.profile.BoneLimit == config.BoneLimit4 {
			meb.blendWidth = vertex.BLEND_NARROW
		}
	}

	decl, err := vertex.Build(vertex.Options{
		HalfPositions: lb.mb.profile.HalfPositions,
		BlendWidth:    meb.blendWidth,
		Tangent:       meb.uvChannels > 0,
		ColorChannels: meb.colorChannels,
		UVChannels:    meb.uvChannels,
	})
	if err != nil {
		return err
	}
	meb.decl = decl
	return nil
}

func (meb *meshBuilder) weightMatrix(sm *submesh) (weights.Matrix, error) {
	lb := meb.lb
	m := weights.NewMatrix(sm.vertexCount(), len(lb.boneTable))
	wt := sm.src.Weights()
	if wt == nil {
		return m, nil
	}
	if len(wt.Weights) != len(sm.src.Positions()) {
		return m, errors.Errorf("%d weight rows for %d vertices", len(wt.Weights), len(sm.src.Positions()))
	}
	for gv, sv := range sm.sourceVertex {
		for _, in := range wt.Weights[sv] {
			if in.Group < 0 || in.Group >= len(wt.Groups) || in.Weight <= 0 {
				continue
			}
			slot, ok := lb.slots[wt.Groups[in.Group]]
			if !ok {
				continue
			}
			m.Row(gv)[slot] += in.Weight
		}
	}
	return m, nil
}

func (meb *meshBuilder) encodeSubmeshes() error {
	mb := meb.lb.mb
	total := 0
	for i, s := range meb.sources {
		sm, err := splitSeams(s.src, s.id, meb.uvChannels, meb.colorChannels)
		if err != nil {
			return errors.Wrapf(err, "%s", s.src.Name())
		}
		sm.attributeMask = meb.attributeMasks[i]

		if meb.uvChannels > 0 {
			sm.tangents, sm.signs, err = tangent.Compute(sm.positions, sm.normals, sm.uvs[0], sm.indices)
			if err != nil {
				return errors.Wrapf(err, "%s tangents", s.src.Name())
			}
		}

		if meb.skinned {
			matrix, err := meb.weightMatrix(sm)
			if err != nil {
				return errors.Wrapf(err, "%s weights", s.src.Name())
			}
			sm.weights, err = weights.Quantize(matrix, weights.EmptyColumns(matrix), weights.Options{
				MaxInfluences: meb.blendWidth,
				Epsilon:       mb.profile.WeightEpsilon,
			})
			if err != nil {
				return errors.Wrapf(err, "%s weights", s.src.Name())
			}
			mb.report.addStats(s.src.Name(), sm.weights.Stats)
			if n := sm.weights.MaxInfluences(); n > meb.maxInfluences {
				meb.maxInfluences = n
			}
		} else if s.src.Weights() != nil {
			mb.report.diag("%s: no vertex group maps to a bone, mesh exported without skinning", s.src.Name())
		}

		meb.vertexBase = append(meb.vertexBase, total)
		total += sm.vertexCount()
		meb.submeshes = append(meb.submeshes, sm)
	}
	meb.baseCount = total
	if total > mdl.VERTEX_LIMIT {
		return &mdl.MeshVertexLimitError{Lod: meb.lb.lod, Mesh: meb.local, Count: total, Limit: mdl.VERTEX_LIMIT}
	}
	return nil
}

// resolveBoneLimit narrows wide blend data when no vertex needs more than four bones
func (meb *meshBuilder) resolveBoneLimit() error {
	if !meb.skinned || meb.blendWidth != vertex.BLEND_WIDE || meb.lb.mb.profile.BoneLimit != config.BoneLimitAuto {
		return nil
	}
	if meb.maxInfluences > vertex.BLEND_NARROW {
		meb.exlog().Printf("Lod %d mesh %d: keeping %d bone influences", meb.lb.lod, meb.local, meb.maxInfluences)
		return nil
	}
	decl, err := vertex.Narrow(meb.decl)
	if err != nil {
		return err
	}
	for _, sm := range meb.submeshes {
		if sm.weights, err = weights.Narrow(sm.weights, vertex.BLEND_NARROW); err != nil {
			return errors.Wrapf(err, "%s", sm.src.Name())
		}
	}
	meb.decl = decl
	meb.blendWidth = vertex.BLEND_NARROW
	meb.exlog().Printf("Lod %d mesh %d: narrowed to 4 bone influences", meb.lb.lod, meb.local)
	return nil
}

func (meb *meshBuilder) putFloats(name string, values []float32, width int) error {
	s, _, ok := meb.layout.Field(name)
	if !ok {
		return errors.Errorf("Layout has no field %s", name)
	}
	return meb.streams[s].PutFloats(name, values, width)
}

func (meb *meshBuilder) putBytes(name string, values []uint8, width int) error {
	s, _, ok := meb.layout.Field(name)
	if !ok {
		return errors.Errorf("Layout has no field %s", name)
	}
	return meb.streams[s].PutBytes(name, values, width)
}

func (meb *meshBuilder) emitStreams() error {
	layout, err := vertex.NewLayout(meb.decl)
	if err != nil {
		return err
	}
	meb.layout = layout
	count := meb.baseCount
	for s := range meb.streams {
		meb.streams[s] = vertex.NewStreamBuffer(&layout.Streams[s], count)
	}

	positions := make([]float32, 0, count*4)
	normals := make([]float32, 0, count*3)
	for _, sm := range meb.submeshes {
		for v, p := range sm.positions {
			n := sm.normals[v]
			positions = append(positions, p[0], p[1], p[2], 1)
			normals = append(normals, n[0], n[1], n[2])
		}
	}
	if err := meb.putFloats(vertex.FieldName(mdl.VERTEX_USAGE_POSITION, 0), positions, 4); err != nil {
		return err
	}
	if err := meb.putFloats(vertex.FieldName(mdl.VERTEX_USAGE_NORMAL, 0), normals, 3); err != nil {
		return err
	}

	if meb.uvChannels > 0 {
		packed := make([]uint8, 0, count*4)
		for _, sm := range meb.submeshes {
			packed = append(packed, tangent.PackAll(sm.tangents, sm.signs)...)
		}
		if err := meb.putBytes(vertex.FieldName(mdl.VERTEX_USAGE_TANGENT, 0), packed, 4); err != nil {
			return err
		}
	}

	for c := 0; c < meb.colorChannels; c++ {
		colors := make([]float32, 0, count*4)
		for _, sm := range meb.submeshes {
			for _, col := range sm.colors[c] {
				colors = append(colors, col[:]...)
			}
		}
		if err := meb.putFloats(vertex.FieldName(mdl.VERTEX_USAGE_COLOR, uint8(c)), colors, 4); err != nil {
			return err
		}
	}

	for c := 0; c < meb.uvChannels; c += 2 {
		width := 2
		if c+1 < meb.uvChannels {
			width = 4
		}
		uvs := make([]float32, 0, count*width)
		for _, sm := range meb.submeshes {
			for v := range sm.positions {
				uvs = append(uvs, sm.uvs[c][v][0], sm.uvs[c][v][1])
				if width == 4 {
					uvs = append(uvs, sm.uvs[c+1][v][0], sm.uvs[c+1][v][1])
				}
			}
		}
		name, _ := vertex.UVField(c)
		if err := meb.putFloats(name, uvs, width); err != nil {
			return err
		}
	}

	if meb.skinned {
		w := meb.blendWidth
		blendWeights := make([]uint8, 0, count*w)
		blendSlots := make([]uint8, 0, count*w)
		for _, sm := range meb.submeshes {
			blendWeights = append(blendWeights, sm.weights.Weights...)
			blendSlots = append(blendSlots, sm.weights.Slots...)
			sm.boneSlots = usedSlots(sm.weights)
		}
		if err := meb.putBytes(vertex.FieldName(mdl.VERTEX_USAGE_BLEND_WEIGHTS, 0), blendWeights, w); err != nil {
			return err
		}
		if err := meb.putBytes(vertex.FieldName(mdl.VERTEX_USAGE_BLEND_INDICES, 0), blendSlots, w); err != nil {
			return err
		}
	}
	return nil
}

// usedSlots lists bone table slots with nonzero weight, ascending
func usedSlots(r *weights.Result) []uint16 {
	seen := make(map[uint8]bool)
	for i, w := range r.Weights {
		if w > 0 {
			seen[r.Slots[i]] = true
		}
	}
	slots := make([]uint16, 0, len(seen))
	for s := range seen {
		slots = append(slots, uint16(s))
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// appendShapeDiffs appends a copy of every affected vertex with target
// position and records which index slots switch to the copy
func (meb *meshBuilder) appendShapeDiffs() error {
	mb := meb.lb.mb
	posName := vertex.FieldName(mdl.VERTEX_USAGE_POSITION, 0)
	posStream, _, _ := meb.layout.Field(posName)

	for si, sm := range meb.submeshes {
		keys := sm.src.ShapeKeys()
		if len(keys) == 0 {
			continue
		}
		targets := make([]shape.Target, 0, len(keys))
		for _, key := range keys {
			if len(key.Positions) != len(sm.src.Positions()) {
				return errors.Errorf("%s: shape %q has %d positions for %d vertices",
					sm.src.Name(), key.Name, len(key.Positions), len(sm.src.Positions()))
			}
			t := shape.Target{Name: key.Name, Positions: make([]mgl32.Vec3, len(sm.sourceVertex))}
			for gv, sv := range sm.sourceVertex {
				t.Positions[gv] = key.Positions[sv]
			}
			targets = append(targets, t)
		}

		encoded, err := shape.Encode(sm.positions, sm.indices, targets, mb.profile.ShapeTolerance)
		if err != nil {
			return errors.Wrapf(err, "%s", sm.src.Name())
		}
		for _, enc := range encoded {
			first := meb.streams[posStream].Count
			rows := make([]int, len(enc.Vertices))
			for k, v := range enc.Vertices {
				rows[k] = meb.vertexBase[si] + v
			}
			for _, sb := range meb.streams {
				sb.AppendRows(sb, rows)
			}
			if count := meb.streams[posStream].Count; count > mdl.VERTEX_LIMIT {
				return &mdl.MeshVertexLimitError{Lod: meb.lb.lod, Mesh: meb.local, Count: count, Limit: mdl.VERTEX_LIMIT}
			}
			positions := make([]float32, 0, len(enc.Positions)*4)
			for _, p := range enc.Positions {
				positions = append(positions, p[0], p[1], p[2], 1)
			}
			if err := meb.streams[posStream].PutFloatsAt(posName, first, positions, 4); err != nil {
				return err
			}

			mb.shapeValues += len(enc.Values)
			if mb.shapeValues > mdl.SHAPE_VALUE_LIMIT {
				return &mdl.ShapeValueLimitError{Lod: meb.lb.lod, Mesh: meb.local, Count: mb.shapeValues, Limit: mdl.SHAPE_VALUE_LIMIT}
			}
			idx := mb.shape(enc.Name)
			if _, ok := meb.shapeValues[idx]; !ok {
				meb.shapeOrder = append(meb.shapeOrder, idx)
			}
			for _, v := range enc.Values {
				meb.shapeValues[idx] = append(meb.shapeValues[idx], pendingShapeValue{
					submesh: si,
					slot:    v.Slot,
					replace: first + v.Replace,
				})
			}
		}
	}
	return nil
}

func (meb *meshBuilder) accumulateBoundingBoxes() error {
	mb := meb.lb.mb
	for _, sm := range meb.submeshes {
		for v, p := range sm.positions {
			mb.bbox.ExpandPoint(p)
			if sm.weights == nil {
				continue
			}
			w := sm.weights.Width
			for i := 0; i < w; i++ {
				if sm.weights.Weights[v*w+i] == 0 {
					continue
				}
				bone := meb.lb.boneTable[sm.weights.Slots[v*w+i]]
				mb.boneBoxes[bone].ExpandPoint(p)
			}
		}
	}
	return nil
}

func (meb *meshBuilder) finalize() error {
	lb := meb.lb
	mb := lb.mb
	m := mb.model

	start := lb.indexCursor
	offsets := make([]uint32, len(meb.submeshes))
	cursor := start
	for i, sm := range meb.submeshes {
		if len(sm.indices) > mdl.INDEX_LIMIT {
			return &mdl.MeshIndexLimitError{Lod: lb.lod, Mesh: meb.local, Submesh: i, Count: len(sm.indices), Limit: mdl.INDEX_LIMIT}
		}
		offsets[i] = cursor - start
		cursor += uint32(utils.AlignUp(len(sm.indices), INDEX_RUN_ALIGN))
	}
	if count := int(cursor - start); count > mdl.INDEX_LIMIT {
		return &mdl.MeshIndexLimitError{Lod: lb.lod, Mesh: meb.local, Submesh: -1, Count: count, Limit: mdl.INDEX_LIMIT}
	}

	mesh := mdl.Mesh{
		VertexCount:    uint16(meb.streams[0].Count),
		IndexCount:     cursor - start,
		MaterialIndex:  uint16(mb.materials.Add(meb.material)),
		SubmeshIndex:   uint16(len(m.Submeshes)),
		SubmeshCount:   uint16(len(meb.submeshes)),
		BoneTableIndex: mdl.NO_BONE_TABLE,
		StartIndex:     start,
		StreamCount:    uint8(meb.layout.StreamCount()),
	}
	if meb.skinned {
		mesh.BoneTableIndex = uint16(lb.lod)
	}
	for s, sb := range meb.streams {
		if sb.Layout.Stride == 0 {
			continue
		}
		mesh.VertexBufferOffset[s] = uint32(lb.vertexData.Len())
		mesh.VertexBufferStride[s] = uint8(sb.Layout.Stride)
		lb.vertexData.Write(sb.Data)
	}

	var b [2]byte
	for i, sm := range meb.submeshes {
		sub := mdl.Submesh{
			IndexOffset:        start + offsets[i],
			IndexCount:         uint32(len(sm.indices)),
			AttributeIndexMask: sm.attributeMask,
			BoneStartIndex:     uint16(len(m.SubmeshBoneMap)),
			BoneCount:          uint16(len(sm.boneSlots)),
		}
		m.SubmeshBoneMap = append(m.SubmeshBoneMap, sm.boneSlots...)
		m.Submeshes = append(m.Submeshes, sub)

		base := uint32(meb.vertexBase[i])
		for _, idx := range sm.indices {
			binary.LittleEndian.PutUint16(b[:], uint16(base+idx))
			lb.indexData.Write(b[:])
		}
		lb.indexData.Write(make([]byte, utils.PadTo(len(sm.indices), INDEX_RUN_ALIGN)*2))
		lb.polygons += len(sm.indices) / 3
	}
	lb.indexCursor = cursor

	for _, idx := range meb.shapeOrder {
		pending := meb.shapeValues[idx]
		values := make([]mdl.ShapeValue, len(pending))
		for k, p := range pending {
			values[k] = mdl.ShapeValue{
				BaseIndicesIndex:     uint16(offsets[p.submesh] + uint32(p.slot)),
				ReplacingVertexIndex: uint16(p.replace),
			}
		}
		entry := mb.shapes[idx]
		entry.lods[lb.lod] = append(entry.lods[lb.lod], shapeMeshRef{meshStartIndex: start, values: values})
	}

	m.Meshes = append(m.Meshes, mesh)
	m.Declarations = append(m.Declarations, meb.decl)
	return nil
}
