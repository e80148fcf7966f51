package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func FloatArray32to64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// FlattenVec3 returns xyz triplets as float64 stream, fbx stores geometry in doubles
func FlattenVec3(in []mgl32.Vec3) []float64 {
	out := make([]float64, 0, len(in)*3)
	for _, v := range in {
		out = append(out, float64(v[0]), float64(v[1]), float64(v[2]))
	}
	return out
}

func ClampF(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// NormalizeSafe returns zero vector instead of NaNs
func NormalizeSafe(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-12 || math.IsNaN(float64(l)) {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}
