package mdl

import (
	"encoding/binary"
	"math"
	"strings"
)

type FileHeader struct {
	Version                    uint32
	StackSize                  uint32
	RuntimeSize                uint32
	VertexDeclarationCount     uint16
	MaterialCount              uint16
	VertexOffset               [LOD_MAX]uint32
	IndexOffset                [LOD_MAX]uint32
	VertexBufferSize           [LOD_MAX]uint32
	IndexBufferSize            [LOD_MAX]uint32
	LodCount                   uint8
	EnableIndexBufferStreaming bool
	EnableEdgeGeometry         bool
}

func parseFileHeader(b []byte) FileHeader {
	h := FileHeader{
		Version:                    binary.LittleEndian.Uint32(b[0x0:]),
		StackSize:                  binary.LittleEndian.Uint32(b[0x4:]),
		RuntimeSize:                binary.LittleEndian.Uint32(b[0x8:]),
		VertexDeclarationCount:     binary.LittleEndian.Uint16(b[0xc:]),
		MaterialCount:              binary.LittleEndian.Uint16(b[0xe:]),
		LodCount:                   b[0x40],
		EnableIndexBufferStreaming: b[0x41] != 0,
		EnableEdgeGeometry:         b[0x42] != 0,
	}
	for i := 0; i < LOD_MAX; i++ {
		h.VertexOffset[i] = binary.LittleEndian.Uint32(b[0x10+i*4:])
		h.IndexOffset[i] = binary.LittleEndian.Uint32(b[0x1c+i*4:])
		h.VertexBufferSize[i] = binary.LittleEndian.Uint32(b[0x28+i*4:])
		h.IndexBufferSize[i] = binary.LittleEndian.Uint32(b[0x34+i*4:])
	}
	return h
}

func (h *FileHeader) Marshal() []byte {
	var buf [FILE_HEADER_SIZE]byte
	binary.LittleEndian.PutUint32(buf[0x0:], h.Version)
	binary.LittleEndian.PutUint32(buf[0x4:], h.StackSize)
	binary.LittleEndian.PutUint32(buf[0x8:], h.RuntimeSize)
	binary.LittleEndian.PutUint16(buf[0xc:], h.VertexDeclarationCount)
	binary.LittleEndian.PutUint16(buf[0xe:], h.MaterialCount)
	for i := 0; i < LOD_MAX; i++ {
		binary.LittleEndian.PutUint32(buf[0x10+i*4:], h.VertexOffset[i])
		binary.LittleEndian.PutUint32(buf[0x1c+i*4:], h.IndexOffset[i])
		binary.LittleEndian.PutUint32(buf[0x28+i*4:], h.VertexBufferSize[i])
		binary.LittleEndian.PutUint32(buf[0x34+i*4:], h.IndexBufferSize[i])
	}
	buf[0x40] = h.LodCount
	buf[0x41] = boolByte(h.EnableIndexBufferStreaming)
	buf[0x42] = boolByte(h.EnableEdgeGeometry)
	return buf[:]
}

type ModelFlags1 uint8

const (
	FLAGS1_SHADOW_DISABLED ModelFlags1 = 1 << iota
	FLAGS1_LIGHT_SHADOW_DISABLED
	FLAGS1_WAVING_ANIMATION_DISABLED
	FLAGS1_LIGHTING_REFLECTION_ENABLED
	FLAGS1_UNKNOWN10
	FLAGS1_RAIN_OCCLUSION_ENABLED
	FLAGS1_SNOW_OCCLUSION_ENABLED
	FLAGS1_DUST_OCCLUSION_ENABLED
)

var flags1Names = []string{
	"ShadowDisabled", "LightShadowDisabled", "WavingAnimationDisabled", "LightingReflectionEnabled",
	"Unknown10", "RainOcclusionEnabled", "SnowOcclusionEnabled", "DustOcclusionEnabled",
}

func (f ModelFlags1) String() string { return flagsString(uint8(f), flags1Names) }

type ModelFlags2 uint8

const (
	FLAGS2_UNKNOWN01 ModelFlags2 = 1 << iota
	FLAGS2_EDGE_GEOMETRY_ENABLED
	FLAGS2_FORCE_LOD_RANGE_ENABLED
	FLAGS2_SHADOW_MASK_ENABLED
	FLAGS2_EXTRA_LOD_ENABLED
	FLAGS2_FORCE_NON_RESIDENT_ENABLED
	FLAGS2_BG_UV_SCROLL_ENABLED
	FLAGS2_UNKNOWN80
)

var flags2Names = []string{
	"Unknown01", "EdgeGeometryEnabled", "ForceLodRangeEnabled", "ShadowMaskEnabled",
	"ExtraLodEnabled", "ForceNonResidentEnabled", "BgUvScrollEnabled", "Unknown80",
}

func (f ModelFlags2) String() string { return flagsString(uint8(f), flags2Names) }

func flagsString(v uint8, names []string) string {
	if v == 0 {
		return "none"
	}
	set := make([]string, 0, 8)
	for i, name := range names {
		if v&(1<<uint(i)) != 0 {
			set = append(set, name)
		}
	}
	return strings.Join(set, "|")
}

type MeshHeader struct {
	Radius                     float32
	MeshCount                  uint16
	AttributeCount             uint16
	SubmeshCount               uint16
	MaterialCount              uint16
	BoneCount                  uint16
	BoneTableCount             uint16
	ShapeCount                 uint16
	ShapeMeshCount             uint16
	ShapeValueCount            uint16
	LodCount                   uint8
	Flags1                     ModelFlags1
	ElementIDCount             uint16
	TerrainShadowMeshCount     uint8
	Flags2                     ModelFlags2
	ModelClipOutDistance       float32
	ShadowClipOutDistance      float32
	CullingGridCount           uint16
	TerrainShadowSubmeshCount  uint16
	Flags3                     uint8
	BGChangeMaterialIndex      uint8
	BGCrestChangeMaterialIndex uint8
	Unknown6                   uint8
	BoneTableArrayCountTotal   uint16
	Unknown8                   uint16
	Unknown9                   uint16
}

func parseMeshHeader(b []byte) MeshHeader {
	return MeshHeader{
		Radius:                     math.Float32frombits(binary.LittleEndian.Uint32(b[0x0:])),
		MeshCount:                  binary.LittleEndian.Uint16(b[0x4:]),
		AttributeCount:             binary.LittleEndian.Uint16(b[0x6:]),
		SubmeshCount:               binary.LittleEndian.Uint16(b[0x8:]),
		MaterialCount:              binary.LittleEndian.Uint16(b[0xa:]),
		BoneCount:                  binary.LittleEndian.Uint16(b[0xc:]),
		BoneTableCount:             binary.LittleEndian.Uint16(b[0xe:]),
		ShapeCount:                 binary.LittleEndian.Uint16(b[0x10:]),
		ShapeMeshCount:             binary.LittleEndian.Uint16(b[0x12:]),
		ShapeValueCount:            binary.LittleEndian.Uint16(b[0x14:]),
		LodCount:                   b[0x16],
		Flags1:                     ModelFlags1(b[0x17]),
		ElementIDCount:             binary.LittleEndian.Uint16(b[0x18:]),
		TerrainShadowMeshCount:     b[0x1a],
		Flags2:                     ModelFlags2(b[0x1b]),
		ModelClipOutDistance:       math.Float32frombits(binary.LittleEndian.Uint32(b[0x1c:])),
		ShadowClipOutDistance:      math.Float32frombits(binary.LittleEndian.Uint32(b[0x20:])),
		CullingGridCount:           binary.LittleEndian.Uint16(b[0x24:]),
		TerrainShadowSubmeshCount:  binary.LittleEndian.Uint16(b[0x26:]),
		Flags3:                     b[0x28],
		BGChangeMaterialIndex:      b[0x29],
		BGCrestChangeMaterialIndex: b[0x2a],
		Unknown6:                   b[0x2b],
		BoneTableArrayCountTotal:   binary.LittleEndian.Uint16(b[0x2c:]),
		Unknown8:                   binary.LittleEndian.Uint16(b[0x2e:]),
		Unknown9:                   binary.LittleEndian.Uint16(b[0x30:]),
	}
}

func (h *MeshHeader) Marshal() []byte {
	var buf [MESH_HEADER_SIZE]byte
	binary.LittleEndian.PutUint32(buf[0x0:], math.Float32bits(h.Radius))
	binary.LittleEndian.PutUint16(buf[0x4:], h.MeshCount)
	binary.LittleEndian.PutUint16(buf[0x6:], h.AttributeCount)
	binary.LittleEndian.PutUint16(buf[0x8:], h.SubmeshCount)
	binary.LittleEndian.PutUint16(buf[0xa:], h.MaterialCount)
	binary.LittleEndian.PutUint16(buf[0xc:], h.BoneCount)
	binary.LittleEndian.PutUint16(buf[0xe:], h.BoneTableCount)
	binary.LittleEndian.PutUint16(buf[0x10:], h.ShapeCount)
	binary.LittleEndian.PutUint16(buf[0x12:], h.ShapeMeshCount)
	binary.LittleEndian.PutUint16(buf[0x14:], h.ShapeValueCount)
	buf[0x16] = h.LodCount
	buf[0x17] = uint8(h.Flags1)
	binary.LittleEndian.PutUint16(buf[0x18:], h.ElementIDCount)
	buf[0x1a] = h.TerrainShadowMeshCount
	buf[0x1b] = uint8(h.Flags2)
	binary.LittleEndian.PutUint32(buf[0x1c:], math.Float32bits(h.ModelClipOutDistance))
	binary.LittleEndian.PutUint32(buf[0x20:], math.Float32bits(h.ShadowClipOutDistance))
	binary.LittleEndian.PutUint16(buf[0x24:], h.CullingGridCount)
	binary.LittleEndian.PutUint16(buf[0x26:], h.TerrainShadowSubmeshCount)
	buf[0x28] = h.Flags3
	buf[0x29] = h.BGChangeMaterialIndex
	buf[0x2a] = h.BGCrestChangeMaterialIndex
	buf[0x2b] = h.Unknown6
	binary.LittleEndian.PutUint16(buf[0x2c:], h.BoneTableArrayCountTotal)
	binary.LittleEndian.PutUint16(buf[0x2e:], h.Unknown8)
	binary.LittleEndian.PutUint16(buf[0x30:], h.Unknown9)
	return buf[:]
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
