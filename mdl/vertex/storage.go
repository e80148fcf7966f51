// Package vertex maps vertex declarations to interleaved stream layouts
// and provides column access to stream bytes.
package vertex

import (
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/mdl"
)

type ComponentKind int

const (
	KIND_FLOAT32 ComponentKind = iota
	KIND_FLOAT16
	KIND_UINT8
	KIND_INT16
	KIND_UINT16
)

var kindSizes = [...]int{KIND_FLOAT32: 4, KIND_FLOAT16: 2, KIND_UINT8: 1, KIND_INT16: 2, KIND_UINT16: 2}

func (k ComponentKind) Size() int {
	return kindSizes[k]
}

// Storage is how element components are laid out in stream
type Storage struct {
	Kind       ComponentKind
	Count      int
	Normalized bool
}

func (s Storage) Size() int {
	return s.Kind.Size() * s.Count
}

var typeStorage = map[mdl.VertexType]Storage{
	mdl.VERTEX_TYPE_FLOAT1:  {KIND_FLOAT32, 1, false},
	mdl.VERTEX_TYPE_FLOAT2:  {KIND_FLOAT32, 2, false},
	mdl.VERTEX_TYPE_FLOAT3:  {KIND_FLOAT32, 3, false},
	mdl.VERTEX_TYPE_FLOAT4:  {KIND_FLOAT32, 4, false},
	mdl.VERTEX_TYPE_UBYTE4:  {KIND_UINT8, 4, false},
	mdl.VERTEX_TYPE_SHORT2:  {KIND_INT16, 2, false},
	mdl.VERTEX_TYPE_SHORT4:  {KIND_INT16, 4, false},
	mdl.VERTEX_TYPE_UBYTE4N: {KIND_UINT8, 4, true},
	mdl.VERTEX_TYPE_SHORT2N: {KIND_INT16, 2, true},
	mdl.VERTEX_TYPE_SHORT4N: {KIND_INT16, 4, true},
	mdl.VERTEX_TYPE_HALF2:   {KIND_FLOAT16, 2, false},
	mdl.VERTEX_TYPE_HALF4:   {KIND_FLOAT16, 4, false},
	mdl.VERTEX_TYPE_USHORT2: {KIND_UINT16, 2, false},
	mdl.VERTEX_TYPE_USHORT4: {KIND_UINT16, 4, false},
}

// StorageFor resolves storage of element. UShort4 blend data is
// the wide form and is stored as 8 bytes, one per influence.
func StorageFor(t mdl.VertexType, u mdl.VertexUsage) (Storage, error) {
	if t == mdl.VERTEX_TYPE_USHORT4 {
		switch u {
		case mdl.VERTEX_USAGE_BLEND_WEIGHTS:
			return Storage{KIND_UINT8, 8, true}, nil
		case mdl.VERTEX_USAGE_BLEND_INDICES:
			return Storage{KIND_UINT8, 8, false}, nil
		}
	}
	s, ok := typeStorage[t]
	if !ok {
		return Storage{}, errors.Errorf("Unknown vertex type %v", t)
	}
	if !u.Valid() {
		return Storage{}, errors.Errorf("Unknown vertex usage %v", u)
	}
	return s, nil
}
