package mdl

import (
	"encoding/binary"
	"math"
)

// ElementID is an attachment point relative to parent bone
type ElementID struct {
	ElementID  uint32
	ParentBone string
	Translate  [3]float32
	Rotate     [3]float32
}

func parseElementID(b []byte) (e ElementID, parentNameOffset uint32) {
	e.ElementID = binary.LittleEndian.Uint32(b[0x0:])
	for i := 0; i < 3; i++ {
		e.Translate[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[0x8+i*4:]))
		e.Rotate[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[0x14+i*4:]))
	}
	return e, binary.LittleEndian.Uint32(b[0x4:])
}

func (e *ElementID) Marshal(parentNameOffset uint32) []byte {
	var buf [ELEMENT_ID_SIZE]byte
	binary.LittleEndian.PutUint32(buf[0x0:], e.ElementID)
	binary.LittleEndian.PutUint32(buf[0x4:], parentNameOffset)
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(buf[0x8+i*4:], math.Float32bits(e.Translate[i]))
		binary.LittleEndian.PutUint32(buf[0x14+i*4:], math.Float32bits(e.Rotate[i]))
	}
	return buf[:]
}
