package mdl

import (
	"encoding/binary"
	"math"
)

// Lod describes mesh ranges and buffer placement of one level of detail.
// Water, shadow, terrain shadow and fog indices point past the regular meshes even when empty.
type Lod struct {
	MeshIndex              uint16
	MeshCount              uint16
	ModelLodRange          float32
	TextureLodRange        float32
	WaterMeshIndex         uint16
	WaterMeshCount         uint16
	ShadowMeshIndex        uint16
	ShadowMeshCount        uint16
	TerrainShadowMeshIndex uint16
	TerrainShadowMeshCount uint16
	VerticalFogMeshIndex   uint16
	VerticalFogMeshCount   uint16
	EdgeGeometrySize       uint32
	EdgeGeometryDataOffset uint32
	PolygonCount           uint32
	Unknown1               uint32
	VertexBufferSize       uint32
	IndexBufferSize        uint32
	VertexDataOffset       uint32
	IndexDataOffset        uint32
}

func parseLod(b []byte) Lod {
	return Lod{
		MeshIndex:              binary.LittleEndian.Uint16(b[0x0:]),
		MeshCount:              binary.LittleEndian.Uint16(b[0x2:]),
		ModelLodRange:          math.Float32frombits(binary.LittleEndian.Uint32(b[0x4:])),
		TextureLodRange:        math.Float32frombits(binary.LittleEndian.Uint32(b[0x8:])),
		WaterMeshIndex:         binary.LittleEndian.Uint16(b[0xc:]),
		WaterMeshCount:         binary.LittleEndian.Uint16(b[0xe:]),
		ShadowMeshIndex:        binary.LittleEndian.Uint16(b[0x10:]),
		ShadowMeshCount:        binary.LittleEndian.Uint16(b[0x12:]),
		TerrainShadowMeshIndex: binary.LittleEndian.Uint16(b[0x14:]),
		TerrainShadowMeshCount: binary.LittleEndian.Uint16(b[0x16:]),
		VerticalFogMeshIndex:   binary.LittleEndian.Uint16(b[0x18:]),
		VerticalFogMeshCount:   binary.LittleEndian.Uint16(b[0x1a:]),
		EdgeGeometrySize:       binary.LittleEndian.Uint32(b[0x1c:]),
		EdgeGeometryDataOffset: binary.LittleEndian.Uint32(b[0x20:]),
		PolygonCount:           binary.LittleEndian.Uint32(b[0x24:]),
		Unknown1:               binary.LittleEndian.Uint32(b[0x28:]),
		VertexBufferSize:       binary.LittleEndian.Uint32(b[0x2c:]),
		IndexBufferSize:        binary.LittleEndian.Uint32(b[0x30:]),
		VertexDataOffset:       binary.LittleEndian.Uint32(b[0x34:]),
		IndexDataOffset:        binary.LittleEndian.Uint32(b[0x38:]),
	}
}

func (l *Lod) Marshal() []byte {
	var buf [LOD_SIZE]byte
	binary.LittleEndian.PutUint16(buf[0x0:], l.MeshIndex)
	binary.LittleEndian.PutUint16(buf[0x2:], l.MeshCount)
	binary.LittleEndian.PutUint32(buf[0x4:], math.Float32bits(l.ModelLodRange))
	binary.LittleEndian.PutUint32(buf[0x8:], math.Float32bits(l.TextureLodRange))
	binary.LittleEndian.PutUint16(buf[0xc:], l.WaterMeshIndex)
	binary.LittleEndian.PutUint16(buf[0xe:], l.WaterMeshCount)
	binary.LittleEndian.PutUint16(buf[0x10:], l.ShadowMeshIndex)
	binary.LittleEndian.PutUint16(buf[0x12:], l.ShadowMeshCount)
	binary.LittleEndian.PutUint16(buf[0x14:], l.TerrainShadowMeshIndex)
	binary.LittleEndian.PutUint16(buf[0x16:], l.TerrainShadowMeshCount)
	binary.LittleEndian.PutUint16(buf[0x18:], l.VerticalFogMeshIndex)
	binary.LittleEndian.PutUint16(buf[0x1a:], l.VerticalFogMeshCount)
	binary.LittleEndian.PutUint32(buf[0x1c:], l.EdgeGeometrySize)
	binary.LittleEndian.PutUint32(buf[0x20:], l.EdgeGeometryDataOffset)
	binary.LittleEndian.PutUint32(buf[0x24:], l.PolygonCount)
	binary.LittleEndian.PutUint32(buf[0x28:], l.Unknown1)
	binary.LittleEndian.PutUint32(buf[0x2c:], l.VertexBufferSize)
	binary.LittleEndian.PutUint32(buf[0x30:], l.IndexBufferSize)
	binary.LittleEndian.PutUint32(buf[0x34:], l.VertexDataOffset)
	binary.LittleEndian.PutUint32(buf[0x38:], l.IndexDataOffset)
	return buf[:]
}
