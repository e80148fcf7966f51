package mdl

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/utils"
)

// Model is the whole .mdl file. Counts and sizes of headers are
// recomputed by Marshal from slices, Parse fills everything from file.
type Model struct {
	Header     FileHeader
	MeshHeader MeshHeader

	Attributes []string
	Bones      []string
	Materials  []string

	BoneTables     []BoneTable
	ElementIDs     []ElementID
	Lods           [LOD_MAX]Lod
	Meshes         []Mesh
	Submeshes      []Submesh
	Shapes         []Shape
	ShapeMeshes    []ShapeMesh
	ShapeValues    []ShapeValue
	SubmeshBoneMap []uint16

	BoundingBox            BoundingBox
	WaterBoundingBox       BoundingBox
	VerticalFogBoundingBox BoundingBox
	BoneBoundingBoxes      []BoundingBox

	// one declaration per mesh
	Declarations []VertexDeclaration

	VertexData [LOD_MAX][]byte
	IndexData  [LOD_MAX][]byte
}

func (m *Model) LodCount() int {
	return int(m.MeshHeader.LodCount)
}

// MeshLod returns lod which mesh range contains mesh
func (m *Model) MeshLod(mesh int) int {
	for i := 0; i < m.LodCount(); i++ {
		l := &m.Lods[i]
		if mesh >= int(l.MeshIndex) && mesh < int(l.MeshIndex)+int(l.MeshCount) {
			return i
		}
	}
	return -1
}

type parser struct {
	bs  *utils.BufStack
	pos int
	err error
}

func (p *parser) section(kind string, size int) *utils.BufStack {
	if p.err != nil {
		return nil
	}
	sec := p.bs.SubBuf(kind, p.pos).SetSize(size)
	if err := sec.Err(); err != nil {
		p.err = &FormatError{
			Section: kind,
			Offset:  sec.AbsoluteOffset(),
			Reason:  fmt.Sprintf("section of 0x%x bytes overflows %s", size, p.bs.Kind()),
			Err:     err,
		}
		return nil
	}
	p.pos += size
	return sec
}

func (p *parser) records(kind string, count, size int, fn func(i int, b []byte) error) {
	sec := p.section(kind, count*size)
	if sec == nil {
		return
	}
	for i := 0; i < count; i++ {
		if err := fn(i, sec.Read(size)); err != nil {
			p.err = &FormatError{
				Section: kind,
				Offset:  sec.AbsoluteOffset() + i*size,
				Reason:  fmt.Sprintf("record %d", i),
				Err:     err,
			}
			return
		}
	}
}

func (p *parser) offsets(kind string, count int) []uint32 {
	result := make([]uint32, count)
	p.records(kind, count, 4, func(i int, b []byte) error {
		result[i] = binary.LittleEndian.Uint32(b)
		return nil
	})
	return result
}

func Parse(data []byte) (*Model, error) {
	root := utils.NewBufStack("mdl", data)
	m := &Model{}

	hdr := root.SubBuf("file_header", 0).SetSize(FILE_HEADER_SIZE)
	if err := hdr.Err(); err != nil {
		return nil, &FormatError{Section: "file header", Reason: "file is too small", Err: err}
	}
	m.Header = parseFileHeader(hdr.Raw())
	if m.Header.Version != FILE_VERSION {
		return nil, &FormatError{Section: "file header", Reason: fmt.Sprintf("unknown version 0x%.8x", m.Header.Version)}
	}
	if m.Header.LodCount > LOD_MAX {
		return nil, &FormatError{Section: "file header", Reason: fmt.Sprintf("lod count %d > %d", m.Header.LodCount, LOD_MAX)}
	}

	p := &parser{bs: hdr.SubBufFollowing("runtime").SetSize(int(m.Header.RuntimeSize))}
	if err := p.bs.Err(); err != nil {
		return nil, &FormatError{Section: "runtime", Offset: FILE_HEADER_SIZE,
			Reason: fmt.Sprintf("runtime size 0x%x overflows file", m.Header.RuntimeSize), Err: err}
	}

	if sec := p.section("mesh_header", MESH_HEADER_SIZE); sec != nil {
		m.MeshHeader = parseMeshHeader(sec.Raw())
	}
	mh := &m.MeshHeader
	if p.err == nil && mh.LodCount != m.Header.LodCount {
		p.err = &FormatError{Section: "mesh header", Offset: FILE_HEADER_SIZE,
			Reason: fmt.Sprintf("lod count %d disagrees with file header %d", mh.LodCount, m.Header.LodCount)}
	}

	var sb parsedStringBlock
	if sec := p.section("string_block_header", STRING_BLOCK_HEADER_SIZE); sec != nil {
		sb.count = int(sec.ReadLU16())
		sec.Skip(2)
		size := int(sec.ReadLU32())
		if data := p.section("string_block", size); data != nil {
			sb.data = data.Raw()
		}
	}

	attributeOffsets := p.offsets("attribute_names", int(mh.AttributeCount))
	boneOffsets := p.offsets("bone_names", int(mh.BoneCount))
	materialOffsets := p.offsets("material_names", int(mh.MaterialCount))
	if p.err != nil {
		return nil, p.err
	}
	for _, names := range []struct {
		kind    string
		offsets []uint32
		out     *[]string
	}{
		{"attribute names", attributeOffsets, &m.Attributes},
		{"bone names", boneOffsets, &m.Bones},
		{"material names", materialOffsets, &m.Materials},
	} {
		list, err := sb.GetList(names.offsets)
		if err != nil {
			return nil, &FormatError{Section: names.kind, Offset: FILE_HEADER_SIZE, Reason: "bad name offset", Err: err}
		}
		*names.out = list
	}

	m.BoneTables = make([]BoneTable, mh.BoneTableCount)
	p.records("bone_tables", len(m.BoneTables), BONE_TABLE_SIZE, func(i int, b []byte) error {
		if b[0x80] > BONE_TABLE_MAX {
			return errors.Errorf("bone count %d > %d", b[0x80], BONE_TABLE_MAX)
		}
		m.BoneTables[i] = parseBoneTable(b)
		return nil
	})

	m.ElementIDs = make([]ElementID, mh.ElementIDCount)
	p.records("element_ids", len(m.ElementIDs), ELEMENT_ID_SIZE, func(i int, b []byte) error {
		e, off := parseElementID(b)
		name, err := sb.Get(off)
		e.ParentBone = name
		m.ElementIDs[i] = e
		return err
	})

	p.records("lods", LOD_MAX, LOD_SIZE, func(i int, b []byte) error {
		m.Lods[i] = parseLod(b)
		return nil
	})

	m.Meshes = make([]Mesh, mh.MeshCount)
	p.records("meshes", len(m.Meshes), MESH_SIZE, func(i int, b []byte) error {
		m.Meshes[i] = parseMesh(b)
		return nil
	})

	m.Submeshes = make([]Submesh, mh.SubmeshCount)
	p.records("submeshes", len(m.Submeshes), SUBMESH_SIZE, func(i int, b []byte) error {
		m.Submeshes[i] = parseSubmesh(b)
		return nil
	})

	m.Shapes = make([]Shape, mh.ShapeCount)
	p.records("shapes", len(m.Shapes), SHAPE_SIZE, func(i int, b []byte) error {
		s, off := parseShape(b)
		name, err := sb.Get(off)
		s.Name = name
		m.Shapes[i] = s
		return err
	})

	m.ShapeMeshes = make([]ShapeMesh, mh.ShapeMeshCount)
	p.records("shape_meshes", len(m.ShapeMeshes), SHAPE_MESH_SIZE, func(i int, b []byte) error {
		m.ShapeMeshes[i] = parseShapeMesh(b)
		return nil
	})

	m.ShapeValues = make([]ShapeValue, mh.ShapeValueCount)
	p.records("shape_values", len(m.ShapeValues), SHAPE_VALUE_SIZE, func(i int, b []byte) error {
		m.ShapeValues[i] = parseShapeValue(b)
		return nil
	})

	if sec := p.section("submesh_bone_map_size", 4); sec != nil {
		size := int(sec.ReadLU32())
		if size%2 != 0 {
			p.err = &FormatError{Section: "submesh bone map", Offset: sec.AbsoluteOffset(),
				Reason: fmt.Sprintf("odd byte size %d", size)}
		} else {
			if bm := p.section("submesh_bone_map", size); bm != nil {
				m.SubmeshBoneMap = make([]uint16, size/2)
				for i := range m.SubmeshBoneMap {
					m.SubmeshBoneMap[i] = bm.ReadLU16()
				}
				p.section("submesh_bone_map_pad", utils.PadTo(size, 4))
			}
		}
	}

	m.BoneBoundingBoxes = make([]BoundingBox, mh.BoneCount)
	p.records("bounding_boxes", 3+len(m.BoneBoundingBoxes), BOUNDING_BOX_SIZE, func(i int, b []byte) error {
		bb := parseBoundingBox(b)
		switch i {
		case 0:
			m.BoundingBox = bb
		case 1:
			m.WaterBoundingBox = bb
		case 2:
			m.VerticalFogBoundingBox = bb
		default:
			m.BoneBoundingBoxes[i-3] = bb
		}
		return nil
	})
	if p.err != nil {
		return nil, p.err
	}
	if err := p.bs.VerifySize(p.pos); err != nil {
		return nil, &FormatError{Section: "runtime", Offset: p.bs.AbsoluteOffset() + p.pos,
			Reason: "sections do not fill runtime size", Err: err}
	}

	declCount := int(m.Header.VertexDeclarationCount)
	if declCount != len(m.Meshes) || int(m.Header.StackSize) != declCount*VERTEX_DECLARATION_SIZE {
		return nil, &FormatError{Section: "vertex declarations", Offset: p.bs.AbsoluteOffset() + p.pos,
			Reason: fmt.Sprintf("%d declarations in 0x%x bytes for %d meshes", declCount, m.Header.StackSize, len(m.Meshes))}
	}
	dp := &parser{bs: p.bs.SubBufFollowing("stack").SetSize(int(m.Header.StackSize))}
	if err := dp.bs.Err(); err != nil {
		return nil, &FormatError{Section: "vertex declarations", Offset: dp.bs.AbsoluteOffset(),
			Reason: "declarations overflow file", Err: err}
	}
	m.Declarations = make([]VertexDeclaration, declCount)
	dp.records("vertex_declarations", declCount, VERTEX_DECLARATION_SIZE, func(i int, b []byte) (err error) {
		m.Declarations[i], err = parseVertexDeclaration(b)
		return err
	})
	if dp.err != nil {
		return nil, dp.err
	}

	for i := 0; i < int(m.Header.LodCount); i++ {
		vb := root.SubBuf("vertex_data", int(m.Header.VertexOffset[i])).SetName(fmt.Sprintf("lod%d", i)).
			SetSize(int(m.Header.VertexBufferSize[i]))
		ib := root.SubBuf("index_data", int(m.Header.IndexOffset[i])).SetName(fmt.Sprintf("lod%d", i)).
			SetSize(int(m.Header.IndexBufferSize[i]))
		for _, b := range []*utils.BufStack{vb, ib} {
			if err := b.Err(); err != nil {
				return nil, &FormatError{Section: b.Kind(), Offset: b.AbsoluteOffset(),
					Reason: fmt.Sprintf("lod %d buffer overflows file", i), Err: err}
			}
		}
		m.VertexData[i] = append([]byte(nil), vb.Raw()...)
		m.IndexData[i] = append([]byte(nil), ib.Raw()...)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// validate checks references between records, importer relies on it
func (m *Model) validate() error {
	fail := func(section, format string, a ...interface{}) error {
		return &FormatError{Section: section, Offset: -1, Reason: fmt.Sprintf(format, a...)}
	}
	for i := 0; i < m.LodCount(); i++ {
		l := &m.Lods[i]
		if int(l.MeshIndex)+int(l.MeshCount) > len(m.Meshes) {
			return fail("lods", "lod %d mesh range %d+%d > %d", i, l.MeshIndex, l.MeshCount, len(m.Meshes))
		}
	}
	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		lod := m.MeshLod(i)
		if lod < 0 {
			continue
		}
		if int(mesh.SubmeshIndex)+int(mesh.SubmeshCount) > len(m.Submeshes) {
			return fail("meshes", "mesh %d submesh range %d+%d > %d", i, mesh.SubmeshIndex, mesh.SubmeshCount, len(m.Submeshes))
		}
		if int(mesh.MaterialIndex) >= len(m.Materials) && mesh.SubmeshCount != 0 {
			return fail("meshes", "mesh %d material %d >= %d", i, mesh.MaterialIndex, len(m.Materials))
		}
		if mesh.Skinned() && int(mesh.BoneTableIndex) >= len(m.BoneTables) {
			return fail("meshes", "mesh %d bone table %d >= %d", i, mesh.BoneTableIndex, len(m.BoneTables))
		}
		if mesh.StreamCount > STREAMS_USED {
			return fail("meshes", "mesh %d uses %d streams", i, mesh.StreamCount)
		}
		for s := 0; s < int(mesh.StreamCount); s++ {
			end := int(mesh.VertexBufferOffset[s]) + int(mesh.VertexCount)*int(mesh.VertexBufferStride[s])
			if end > len(m.VertexData[lod]) {
				return fail("meshes", "mesh %d stream %d ends at 0x%x past vertex data 0x%x", i, s, end, len(m.VertexData[lod]))
			}
		}
		if (int(mesh.StartIndex)+int(mesh.IndexCount))*2 > len(m.IndexData[lod]) {
			return fail("meshes", "mesh %d index range %d+%d past index data", i, mesh.StartIndex, mesh.IndexCount)
		}
		for j := int(mesh.SubmeshIndex); j < int(mesh.SubmeshIndex)+int(mesh.SubmeshCount); j++ {
			sm := &m.Submeshes[j]
			if sm.IndexOffset < mesh.StartIndex || sm.IndexOffset+sm.IndexCount > mesh.StartIndex+mesh.IndexCount {
				return fail("submeshes", "submesh %d index range %d+%d outside mesh %d", j, sm.IndexOffset, sm.IndexCount, i)
			}
			if int(sm.BoneStartIndex)+int(sm.BoneCount) > len(m.SubmeshBoneMap) {
				return fail("submeshes", "submesh %d bone range outside bone map", j)
			}
		}
	}
	for i := range m.Shapes {
		for lod := 0; lod < LOD_MAX; lod++ {
			s := &m.Shapes[i]
			if int(s.ShapeMeshStartIndex[lod])+int(s.ShapeMeshCount[lod]) > len(m.ShapeMeshes) {
				return fail("shapes", "shape %q lod %d shape mesh range outside table", s.Name, lod)
			}
		}
	}
	for i, sm := range m.ShapeMeshes {
		if int(sm.ShapeValueOffset)+int(sm.ShapeValueCount) > len(m.ShapeValues) {
			return fail("shape meshes", "shape mesh %d value range %d+%d > %d", i, sm.ShapeValueOffset, sm.ShapeValueCount, len(m.ShapeValues))
		}
	}
	for i, bt := range m.BoneTables {
		for _, b := range bt.BoneIndex {
			if int(b) >= len(m.Bones) {
				return fail("bone tables", "table %d references bone %d >= %d", i, b, len(m.Bones))
			}
		}
	}
	return nil
}

func (m *Model) checkLimits() error {
	if m.LodCount() > LOD_MAX {
		return &LodLimitError{Count: m.LodCount(), Limit: LOD_MAX}
	}
	if len(m.Attributes) > ATTRIBUTE_MAX {
		return &AttributeLimitError{Count: len(m.Attributes), Limit: ATTRIBUTE_MAX}
	}
	for i, bt := range m.BoneTables {
		if len(bt.BoneIndex) > BONE_TABLE_MAX {
			return &BoneTableLimitError{Lod: i, Count: len(bt.BoneIndex), Limit: BONE_TABLE_MAX}
		}
	}
	if len(m.ShapeValues) > SHAPE_VALUE_LIMIT {
		return &ShapeValueLimitError{Lod: -1, Mesh: -1, Count: len(m.ShapeValues), Limit: SHAPE_VALUE_LIMIT}
	}
	for name, count := range map[string]int{
		"meshes": len(m.Meshes), "submeshes": len(m.Submeshes), "materials": len(m.Materials),
		"bones": len(m.Bones), "shapes": len(m.Shapes), "shape meshes": len(m.ShapeMeshes),
		"element ids": len(m.ElementIDs),
	} {
		if count > 0xffff {
			return errors.Errorf("Too many %s: %d", name, count)
		}
	}
	if len(m.Declarations) != len(m.Meshes) {
		return errors.Errorf("Declarations count %d != meshes count %d", len(m.Declarations), len(m.Meshes))
	}
	for i, d := range m.Declarations {
		if len(d.Elements) >= VERTEX_DECLARATION_SLOTS {
			return errors.Errorf("Declaration %d has %d elements, max %d", i, len(d.Elements), VERTEX_DECLARATION_SLOTS-1)
		}
	}
	if len(m.BoneBoundingBoxes) != len(m.Bones) {
		return errors.Errorf("Bone bounding boxes count %d != bones count %d", len(m.BoneBoundingBoxes), len(m.Bones))
	}
	return nil
}

// Marshal serializes model, updating header counts, sizes and buffer offsets
func (m *Model) Marshal() ([]byte, error) {
	if err := m.checkLimits(); err != nil {
		return nil, errors.Wrapf(err, "Marshal")
	}

	sb := newStringBlock()
	attributeOffsets := make([]uint32, len(m.Attributes))
	boneOffsets := make([]uint32, len(m.Bones))
	materialOffsets := make([]uint32, len(m.Materials))
	shapeOffsets := make([]uint32, len(m.Shapes))
	elementOffsets := make([]uint32, len(m.ElementIDs))
	for _, group := range []struct {
		names   func(i int) string
		offsets []uint32
	}{
		{func(i int) string { return m.Attributes[i] }, attributeOffsets},
		{func(i int) string { return m.Bones[i] }, boneOffsets},
		{func(i int) string { return m.Materials[i] }, materialOffsets},
		{func(i int) string { return m.Shapes[i].Name }, shapeOffsets},
		{func(i int) string { return m.ElementIDs[i].ParentBone }, elementOffsets},
	} {
		for i := range group.offsets {
			off, err := sb.Add(group.names(i))
			if err != nil {
				return nil, errors.Wrapf(err, "Marshal string block")
			}
			group.offsets[i] = off
		}
	}

	mh := &m.MeshHeader
	mh.MeshCount = uint16(len(m.Meshes))
	mh.AttributeCount = uint16(len(m.Attributes))
	mh.SubmeshCount = uint16(len(m.Submeshes))
	mh.MaterialCount = uint16(len(m.Materials))
	mh.BoneCount = uint16(len(m.Bones))
	mh.BoneTableCount = uint16(len(m.BoneTables))
	mh.ShapeCount = uint16(len(m.Shapes))
	mh.ShapeMeshCount = uint16(len(m.ShapeMeshes))
	mh.ShapeValueCount = uint16(len(m.ShapeValues))
	mh.ElementIDCount = uint16(len(m.ElementIDs))
	boneTotal := 0
	for _, bt := range m.BoneTables {
		boneTotal += len(bt.BoneIndex)
	}
	mh.BoneTableArrayCountTotal = uint16(boneTotal)

	var runtime bytes.Buffer
	runtime.Write(mh.Marshal())
	runtime.Write(sb.Marshal())
	for _, offsets := range [][]uint32{attributeOffsets, boneOffsets, materialOffsets} {
		for _, off := range offsets {
			binary.Write(&runtime, binary.LittleEndian, off)
		}
	}
	for i := range m.BoneTables {
		runtime.Write(m.BoneTables[i].Marshal())
	}
	for i := range m.ElementIDs {
		runtime.Write(m.ElementIDs[i].Marshal(elementOffsets[i]))
	}
	lodsOffset := runtime.Len()
	runtime.Write(make([]byte, LOD_MAX*LOD_SIZE))
	for i := range m.Meshes {
		runtime.Write(m.Meshes[i].Marshal())
	}
	for i := range m.Submeshes {
		runtime.Write(m.Submeshes[i].Marshal())
	}
	for i := range m.Shapes {
		runtime.Write(m.Shapes[i].Marshal(shapeOffsets[i]))
	}
	for i := range m.ShapeMeshes {
		runtime.Write(m.ShapeMeshes[i].Marshal())
	}
	for i := range m.ShapeValues {
		runtime.Write(m.ShapeValues[i].Marshal())
	}
	boneMapSize := len(m.SubmeshBoneMap) * 2
	binary.Write(&runtime, binary.LittleEndian, uint32(boneMapSize))
	binary.Write(&runtime, binary.LittleEndian, m.SubmeshBoneMap)
	runtime.Write(make([]byte, utils.PadTo(boneMapSize, 4)))
	for _, bb := range []*BoundingBox{&m.BoundingBox, &m.WaterBoundingBox, &m.VerticalFogBoundingBox} {
		runtime.Write(bb.Marshal())
	}
	for i := range m.BoneBoundingBoxes {
		runtime.Write(m.BoneBoundingBoxes[i].Marshal())
	}

	h := &m.Header
	h.Version = FILE_VERSION
	h.LodCount = mh.LodCount
	h.RuntimeSize = uint32(runtime.Len())
	h.StackSize = uint32(len(m.Declarations) * VERTEX_DECLARATION_SIZE)
	h.VertexDeclarationCount = uint16(len(m.Declarations))
	h.MaterialCount = uint16(len(m.Materials))

	stackEnd := FILE_HEADER_SIZE + int(h.RuntimeSize) + int(h.StackSize)
	cursor := utils.AlignUp(stackEnd, INDEX_ALIGN)
	for i := 0; i < LOD_MAX; i++ {
		l := &m.Lods[i]
		if i >= m.LodCount() {
			h.VertexOffset[i], h.IndexOffset[i] = 0, 0
			h.VertexBufferSize[i], h.IndexBufferSize[i] = 0, 0
			continue
		}
		h.VertexOffset[i] = uint32(cursor)
		h.VertexBufferSize[i] = uint32(len(m.VertexData[i]))
		cursor = utils.AlignUp(cursor+len(m.VertexData[i]), INDEX_ALIGN)
		h.IndexOffset[i] = uint32(cursor)
		h.IndexBufferSize[i] = uint32(len(m.IndexData[i]))
		cursor = utils.AlignUp(cursor+len(m.IndexData[i]), INDEX_ALIGN)

		l.VertexDataOffset, l.VertexBufferSize = h.VertexOffset[i], h.VertexBufferSize[i]
		l.IndexDataOffset, l.IndexBufferSize = h.IndexOffset[i], h.IndexBufferSize[i]
	}
	raw := runtime.Bytes()
	for i := range m.Lods {
		copy(raw[lodsOffset+i*LOD_SIZE:], m.Lods[i].Marshal())
	}

	out := make([]byte, cursor)
	copy(out, h.Marshal())
	copy(out[FILE_HEADER_SIZE:], raw)
	pos := FILE_HEADER_SIZE + len(raw)
	for i := range m.Declarations {
		copy(out[pos:], m.Declarations[i].Marshal())
		pos += VERTEX_DECLARATION_SIZE
	}
	for i := 0; i < m.LodCount(); i++ {
		copy(out[h.VertexOffset[i]:], m.VertexData[i])
		copy(out[h.IndexOffset[i]:], m.IndexData[i])
	}
	return out, nil
}
