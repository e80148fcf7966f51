package mdl

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BoundingBox uses homogeneous corners, w is 1 for non empty boxes
type BoundingBox struct {
	Min [4]float32
	Max [4]float32
}

// EmptyBoundingBox returns inverted box, any ExpandPoint makes it valid
func EmptyBoundingBox() BoundingBox {
	inf := float32(math.Inf(1))
	return BoundingBox{
		Min: [4]float32{inf, inf, inf, 1},
		Max: [4]float32{-inf, -inf, -inf, 1},
	}
}

func (bb BoundingBox) IsEmpty() bool {
	return bb.Min[0] > bb.Max[0] || bb.Min[1] > bb.Max[1] || bb.Min[2] > bb.Max[2]
}

func (bb *BoundingBox) ExpandPoint(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < bb.Min[i] {
			bb.Min[i] = p[i]
		}
		if p[i] > bb.Max[i] {
			bb.Max[i] = p[i]
		}
	}
}

func (bb BoundingBox) Merge(o BoundingBox) BoundingBox {
	r := bb
	for i := 0; i < 4; i++ {
		r.Min[i] = float32(math.Min(float64(bb.Min[i]), float64(o.Min[i])))
		r.Max[i] = float32(math.Max(float64(bb.Max[i]), float64(o.Max[i])))
	}
	return r
}

// Radius is distance from origin to the farthest corner
func (bb BoundingBox) Radius() float32 {
	if bb.IsEmpty() {
		return 0
	}
	var far mgl32.Vec3
	for i := 0; i < 3; i++ {
		far[i] = float32(math.Max(math.Abs(float64(bb.Min[i])), math.Abs(float64(bb.Max[i]))))
	}
	return far.Len()
}

// Finalized replaces empty box with zero box
func (bb BoundingBox) Finalized() BoundingBox {
	if bb.IsEmpty() {
		return BoundingBox{}
	}
	return bb
}

func parseBoundingBox(b []byte) BoundingBox {
	var bb BoundingBox
	for i := 0; i < 4; i++ {
		bb.Min[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		bb.Max[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[0x10+i*4:]))
	}
	return bb
}

func (bb *BoundingBox) Marshal() []byte {
	var buf [BOUNDING_BOX_SIZE]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(bb.Min[i]))
		binary.LittleEndian.PutUint32(buf[0x10+i*4:], math.Float32bits(bb.Max[i]))
	}
	return buf[:]
}
