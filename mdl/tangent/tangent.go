// Package tangent derives tangent space from uv layout and packs it to bytes
package tangent

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/utils"
)

const degenerateUV = 1e-12

// Compute averages per face tangents and bitangents over incident faces.
// Returned tangents are unit length and orthogonal to normals, sign is
// +1 when cross(normal, tangent) points along the uv bitangent and -1 otherwise.
func Compute(positions, normals []mgl32.Vec3, uvs []mgl32.Vec2, indices []uint32) ([]mgl32.Vec3, []float32, error) {
	if len(normals) != len(positions) || len(uvs) != len(positions) {
		return nil, nil, errors.Errorf("Attribute count mismatch: %d positions, %d normals, %d uvs",
			len(positions), len(normals), len(uvs))
	}
	if len(indices)%3 != 0 {
		return nil, nil, errors.Errorf("Index count %d is not multiple of 3", len(indices))
	}

	tan := make([]mgl32.Vec3, len(positions))
	bitan := make([]mgl32.Vec3, len(positions))
	faces := make([]int, len(positions))
	for f := 0; f < len(indices); f += 3 {
		i0, i1, i2 := indices[f], indices[f+1], indices[f+2]
		if int(i0) >= len(positions) || int(i1) >= len(positions) || int(i2) >= len(positions) {
			return nil, nil, errors.Errorf("Face %d references vertex outside of %d", f/3, len(positions))
		}
		e1 := positions[i1].Sub(positions[i0])
		e2 := positions[i2].Sub(positions[i0])
		d1 := uvs[i1].Sub(uvs[i0])
		d2 := uvs[i2].Sub(uvs[i0])

		r := d1[0]*d2[1] - d2[0]*d1[1]
		if math.Abs(float64(r)) < degenerateUV {
			continue
		}
		r = 1 / r
		t := e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(r)
		b := e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(r)
		for _, i := range [3]uint32{i0, i1, i2} {
			tan[i] = tan[i].Add(t)
			bitan[i] = bitan[i].Add(b)
			faces[i]++
		}
	}

	signs := make([]float32, len(positions))
	for i := range tan {
		n := utils.NormalizeSafe(normals[i])
		if faces[i] != 0 {
			tan[i] = tan[i].Mul(1 / float32(faces[i]))
			bitan[i] = bitan[i].Mul(1 / float32(faces[i]))
		}
		t := utils.NormalizeSafe(tan[i].Sub(n.Mul(n.Dot(tan[i]))))
		if t.Len() == 0 {
			t = anyPerpendicular(n)
		}
		tan[i] = t
		signs[i] = Sign(n, t, bitan[i])
	}
	return tan, signs, nil
}

// Sign tells handedness of uv mapping
func Sign(normal, tangent, bitangent mgl32.Vec3) float32 {
	if normal.Cross(tangent).Dot(bitangent) < 0 {
		return -1
	}
	return 1
}

func anyPerpendicular(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if math.Abs(float64(n[0])) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	t := utils.NormalizeSafe(axis.Sub(n.Mul(n.Dot(axis))))
	if t.Len() == 0 {
		return axis
	}
	return t
}

// Pack stores unit tangent in unsigned normalized bytes, w is 0xff for +1 and 0 for -1
func Pack(t mgl32.Vec3, sign float32) [4]uint8 {
	var b [4]uint8
	for i := 0; i < 3; i++ {
		b[i] = uint8(math.Round(float64(utils.ClampF(t[i]*0.5+0.5, 0, 1) * 0xff)))
	}
	if sign < 0 {
		b[3] = 0
	} else {
		b[3] = 0xff
	}
	return b
}

func Unpack(b [4]uint8) (mgl32.Vec3, float32) {
	var t mgl32.Vec3
	for i := 0; i < 3; i++ {
		t[i] = float32(b[i])/0xff*2 - 1
	}
	sign := float32(1)
	if b[3] < 0x80 {
		sign = -1
	}
	return utils.NormalizeSafe(t), sign
}

func Bitangent(normal, tangent mgl32.Vec3, sign float32) mgl32.Vec3 {
	return utils.NormalizeSafe(normal.Cross(tangent).Mul(sign))
}

// PackAll returns 4 bytes per vertex for stream column
func PackAll(tangents []mgl32.Vec3, signs []float32) []uint8 {
	out := make([]uint8, len(tangents)*4)
	for i := range tangents {
		b := Pack(tangents[i], signs[i])
		copy(out[i*4:], b[:])
	}
	return out
}

// UnpackAll rebuilds tangents, signs and bitangents
func UnpackAll(packed []uint8, normals []mgl32.Vec3) (tangents, bitangents []mgl32.Vec3, signs []float32) {
	count := len(packed) / 4
	tangents = make([]mgl32.Vec3, count)
	bitangents = make([]mgl32.Vec3, count)
	signs = make([]float32, count)
	for i := 0; i < count; i++ {
		var b [4]uint8
		copy(b[:], packed[i*4:])
		tangents[i], signs[i] = Unpack(b)
		if i < len(normals) {
			bitangents[i] = Bitangent(utils.NormalizeSafe(normals[i]), tangents[i], signs[i])
		}
	}
	return tangents, bitangents, signs
}
