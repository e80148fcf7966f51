package mdl

import "encoding/binary"

type Mesh struct {
	VertexCount        uint16
	IndexCount         uint32
	MaterialIndex      uint16
	SubmeshIndex       uint16
	SubmeshCount       uint16
	BoneTableIndex     uint16
	StartIndex         uint32
	VertexBufferOffset [MESH_STREAMS]uint32
	VertexBufferStride [MESH_STREAMS]uint8
	StreamCount        uint8
}

func parseMesh(b []byte) Mesh {
	m := Mesh{
		VertexCount:    binary.LittleEndian.Uint16(b[0x0:]),
		IndexCount:     binary.LittleEndian.Uint32(b[0x4:]),
		MaterialIndex:  binary.LittleEndian.Uint16(b[0x8:]),
		SubmeshIndex:   binary.LittleEndian.Uint16(b[0xa:]),
		SubmeshCount:   binary.LittleEndian.Uint16(b[0xc:]),
		BoneTableIndex: binary.LittleEndian.Uint16(b[0xe:]),
		StartIndex:     binary.LittleEndian.Uint32(b[0x10:]),
		StreamCount:    b[0x23],
	}
	for i := 0; i < MESH_STREAMS; i++ {
		m.VertexBufferOffset[i] = binary.LittleEndian.Uint32(b[0x14+i*4:])
		m.VertexBufferStride[i] = b[0x20+i]
	}
	return m
}

func (m *Mesh) Marshal() []byte {
	var buf [MESH_SIZE]byte
	binary.LittleEndian.PutUint16(buf[0x0:], m.VertexCount)
	binary.LittleEndian.PutUint32(buf[0x4:], m.IndexCount)
	binary.LittleEndian.PutUint16(buf[0x8:], m.MaterialIndex)
	binary.LittleEndian.PutUint16(buf[0xa:], m.SubmeshIndex)
	binary.LittleEndian.PutUint16(buf[0xc:], m.SubmeshCount)
	binary.LittleEndian.PutUint16(buf[0xe:], m.BoneTableIndex)
	binary.LittleEndian.PutUint32(buf[0x10:], m.StartIndex)
	for i := 0; i < MESH_STREAMS; i++ {
		binary.LittleEndian.PutUint32(buf[0x14+i*4:], m.VertexBufferOffset[i])
		buf[0x20+i] = m.VertexBufferStride[i]
	}
	buf[0x23] = m.StreamCount
	return buf[:]
}

func (m *Mesh) Skinned() bool {
	return m.BoneTableIndex != NO_BONE_TABLE
}

type Submesh struct {
	IndexOffset        uint32
	IndexCount         uint32
	AttributeIndexMask uint32
	BoneStartIndex     uint16
	BoneCount          uint16
}

func parseSubmesh(b []byte) Submesh {
	return Submesh{
		IndexOffset:        binary.LittleEndian.Uint32(b[0x0:]),
		IndexCount:         binary.LittleEndian.Uint32(b[0x4:]),
		AttributeIndexMask: binary.LittleEndian.Uint32(b[0x8:]),
		BoneStartIndex:     binary.LittleEndian.Uint16(b[0xc:]),
		BoneCount:          binary.LittleEndian.Uint16(b[0xe:]),
	}
}

func (s *Submesh) Marshal() []byte {
	var buf [SUBMESH_SIZE]byte
	binary.LittleEndian.PutUint32(buf[0x0:], s.IndexOffset)
	binary.LittleEndian.PutUint32(buf[0x4:], s.IndexCount)
	binary.LittleEndian.PutUint32(buf[0x8:], s.AttributeIndexMask)
	binary.LittleEndian.PutUint16(buf[0xc:], s.BoneStartIndex)
	binary.LittleEndian.PutUint16(buf[0xe:], s.BoneCount)
	return buf[:]
}

type BoneTable struct {
	BoneIndex []uint16
}

func parseBoneTable(b []byte) BoneTable {
	count := int(b[0x80])
	if count > BONE_TABLE_MAX {
		count = BONE_TABLE_MAX
	}
	bt := BoneTable{BoneIndex: make([]uint16, count)}
	for i := range bt.BoneIndex {
		bt.BoneIndex[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return bt
}

func (bt *BoneTable) Marshal() []byte {
	var buf [BONE_TABLE_SIZE]byte
	for i, bone := range bt.BoneIndex {
		binary.LittleEndian.PutUint16(buf[i*2:], bone)
	}
	buf[0x80] = uint8(len(bt.BoneIndex))
	return buf[:]
}
