/*

 go-float16 - IEEE 754 binary16 half precision format
 Written in 2013 by h2so5 <mail@h2so5.net>

 To the extent possible under law, the author(s) have dedicated all copyright and
 related and neighboring rights to this software to the public domain worldwide.
 This software is distributed without any warranty.
 You should have received a copy of the CC0 Public Domain Dedication along with this software.
 If not, see <http://creativecommons.org/publicdomain/zero/1.0/>.

*/

// Package half is an IEEE 754 binary16 half precision format.
// Conversion from float32 rounds to nearest even, vertex streams depend on it.
package half

import "math"

// A Float16 represents a 16-bit floating point number.
type Float16 uint16

const (
	PositiveInfinity Float16 = 0x7c00
	NegativeInfinity Float16 = 0xfc00
)

// NewFloat16 allocates and returns a new Float16 set to f.
func NewFloat16(f float32) Float16 {
	i := math.Float32bits(f)
	sign := uint16(i>>16) & 0x8000
	exp := int32((i >> 23) & 0xff)
	frac := i & 0x7fffff

	switch {
	case exp == 0xff:
		// inf or nan, keep one mantissa bit for nan
		if frac != 0 {
			return Float16(sign | 0x7e00)
		}
		return Float16(sign | 0x7c00)
	case exp == 0:
		// float32 denormals are far below half range
		return Float16(sign)
	}

	exp16 := exp - 127 + 15
	if exp16 >= 0x1f {
		return Float16(sign | 0x7c00)
	}
	if exp16 <= 0 {
		if exp16 < -10 {
			return Float16(sign)
		}
		// half denormal
		frac |= 0x800000
		shift := uint32(14 - exp16)
		half := frac >> shift
		rem := frac & ((1 << shift) - 1)
		mid := uint32(1) << (shift - 1)
		if rem > mid || (rem == mid && half&1 != 0) {
			half++
		}
		return Float16(sign | uint16(half))
	}

	half := uint32(exp16)<<10 | frac>>13
	rem := frac & 0x1fff
	if rem > 0x1000 || (rem == 0x1000 && half&1 != 0) {
		// may carry into the exponent, which is the correct result
		half++
	}
	return Float16(sign | uint16(half))
}

// Float32 returns the float32 representation of f.
func (f Float16) Float32() float32 {
	sign := uint32(f>>15) & 0x1
	exp := uint32(f>>10) & 0x1f
	frac := uint32(f & 0x3ff)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign << 31)
		}
		v := float32(frac) / (1 << 24)
		if sign != 0 {
			v = -v
		}
		return v
	case 0x1f:
		return math.Float32frombits(sign<<31 | 0xff<<23 | frac<<13)
	}
	return math.Float32frombits(sign<<31 | (exp+127-15)<<23 | frac<<13)
}

// IsInf reports whether f is an infinity.
func (f Float16) IsInf() bool {
	return f&0x7fff == 0x7c00
}

// Encode converts src into dst, both must have the same length.
func Encode(dst []Float16, src []float32) {
	for i, v := range src {
		dst[i] = NewFloat16(v)
	}
}

// Decode converts src into dst, both must have the same length.
func Decode(dst []float32, src []Float16) {
	for i, v := range src {
		dst[i] = v.Float32()
	}
}
