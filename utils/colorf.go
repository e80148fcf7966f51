package utils

import "math"

type ColorFloat [4]float32

// Bytes quantizes color to unsigned normalized bytes
func (c ColorFloat) Bytes() [4]uint8 {
	var r [4]uint8
	for i, v := range c {
		r[i] = uint8(math.Round(float64(ClampF(v, 0, 1) * 255)))
	}
	return r
}

func NewColorFloatBytes(c [4]uint8) ColorFloat {
	return ColorFloat{
		float32(c[0]) / 255, float32(c[1]) / 255,
		float32(c[2]) / 255, float32(c[3]) / 255,
	}
}
