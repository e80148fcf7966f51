package mdl

import "encoding/binary"

// Shape is a named morph target with per lod range into shape meshes
type Shape struct {
	Name                string
	ShapeMeshStartIndex [LOD_MAX]uint16
	ShapeMeshCount      [LOD_MAX]uint16
}

func parseShape(b []byte) (s Shape, nameOffset uint32) {
	for i := 0; i < LOD_MAX; i++ {
		s.ShapeMeshStartIndex[i] = binary.LittleEndian.Uint16(b[0x4+i*2:])
		s.ShapeMeshCount[i] = binary.LittleEndian.Uint16(b[0xa+i*2:])
	}
	return s, binary.LittleEndian.Uint32(b[0x0:])
}

func (s *Shape) Marshal(nameOffset uint32) []byte {
	var buf [SHAPE_SIZE]byte
	binary.LittleEndian.PutUint32(buf[0x0:], nameOffset)
	for i := 0; i < LOD_MAX; i++ {
		binary.LittleEndian.PutUint16(buf[0x4+i*2:], s.ShapeMeshStartIndex[i])
		binary.LittleEndian.PutUint16(buf[0xa+i*2:], s.ShapeMeshCount[i])
	}
	return buf[:]
}

// ShapeMesh binds range of shape values to the mesh whose StartIndex equals MeshIndexOffset
type ShapeMesh struct {
	MeshIndexOffset  uint32
	ShapeValueCount  uint32
	ShapeValueOffset uint32
}

func parseShapeMesh(b []byte) ShapeMesh {
	return ShapeMesh{
		MeshIndexOffset:  binary.LittleEndian.Uint32(b[0x0:]),
		ShapeValueCount:  binary.LittleEndian.Uint32(b[0x4:]),
		ShapeValueOffset: binary.LittleEndian.Uint32(b[0x8:]),
	}
}

func (sm *ShapeMesh) Marshal() []byte {
	var buf [SHAPE_MESH_SIZE]byte
	binary.LittleEndian.PutUint32(buf[0x0:], sm.MeshIndexOffset)
	binary.LittleEndian.PutUint32(buf[0x4:], sm.ShapeValueCount)
	binary.LittleEndian.PutUint32(buf[0x8:], sm.ShapeValueOffset)
	return buf[:]
}

// ShapeValue replaces vertex referenced by index slot BaseIndicesIndex
// (relative to mesh index range) with ReplacingVertexIndex (relative to mesh vertices)
type ShapeValue struct {
	BaseIndicesIndex     uint16
	ReplacingVertexIndex uint16
}

func parseShapeValue(b []byte) ShapeValue {
	return ShapeValue{
		BaseIndicesIndex:     binary.LittleEndian.Uint16(b[0x0:]),
		ReplacingVertexIndex: binary.LittleEndian.Uint16(b[0x2:]),
	}
}

func (sv *ShapeValue) Marshal() []byte {
	var buf [SHAPE_VALUE_SIZE]byte
	binary.LittleEndian.PutUint16(buf[0x0:], sv.BaseIndicesIndex)
	binary.LittleEndian.PutUint16(buf[0x2:], sv.ReplacingVertexIndex)
	return buf[:]
}
