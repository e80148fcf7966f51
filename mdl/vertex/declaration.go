package vertex

import (
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/mdl"
)

const (
	BLEND_NONE   = 0
	BLEND_NARROW = 4
	BLEND_WIDE   = 8
)

// Options describes which attributes a mesh carries
type Options struct {
	HalfPositions bool
	// BlendWidth is BLEND_NONE, BLEND_NARROW or BLEND_WIDE
	BlendWidth    int
	Tangent       bool
	ColorChannels int
	UVChannels    int
}

// Build creates standard declaration:
// stream 0 holds position and blend data, stream 1 holds the rest.
// Two uv channels share one Float4 element.
func Build(o Options) (mdl.VertexDeclaration, error) {
	var d mdl.VertexDeclaration
	add := func(stream uint8, t mdl.VertexType, u mdl.VertexUsage, index int) {
		d.Elements = append(d.Elements, mdl.VertexElement{Stream: stream, Type: t, Usage: u, UsageIndex: uint8(index)})
	}

	if o.HalfPositions {
		add(0, mdl.VERTEX_TYPE_HALF4, mdl.VERTEX_USAGE_POSITION, 0)
	} else {
		add(0, mdl.VERTEX_TYPE_FLOAT3, mdl.VERTEX_USAGE_POSITION, 0)
	}
	switch o.BlendWidth {
	case BLEND_NONE:
	case BLEND_NARROW:
		add(0, mdl.VERTEX_TYPE_UBYTE4N, mdl.VERTEX_USAGE_BLEND_WEIGHTS, 0)
		add(0, mdl.VERTEX_TYPE_UBYTE4, mdl.VERTEX_USAGE_BLEND_INDICES, 0)
	case BLEND_WIDE:
		add(0, mdl.VERTEX_TYPE_USHORT4, mdl.VERTEX_USAGE_BLEND_WEIGHTS, 0)
		add(0, mdl.VERTEX_TYPE_USHORT4, mdl.VERTEX_USAGE_BLEND_INDICES, 0)
	default:
		return d, errors.Errorf("Invalid blend width %d", o.BlendWidth)
	}

	add(1, mdl.VERTEX_TYPE_FLOAT3, mdl.VERTEX_USAGE_NORMAL, 0)
	if o.Tangent {
		add(1, mdl.VERTEX_TYPE_UBYTE4N, mdl.VERTEX_USAGE_TANGENT, 0)
	}
	for i := 0; i < o.ColorChannels; i++ {
		add(1, mdl.VERTEX_TYPE_UBYTE4N, mdl.VERTEX_USAGE_COLOR, i)
	}
	for i := 0; i < o.UVChannels; i += 2 {
		if i+1 < o.UVChannels {
			add(1, mdl.VERTEX_TYPE_FLOAT4, mdl.VERTEX_USAGE_UV, i/2)
		} else {
			add(1, mdl.VERTEX_TYPE_FLOAT2, mdl.VERTEX_USAGE_UV, i/2)
		}
	}
	if len(d.Elements) >= mdl.VERTEX_DECLARATION_SLOTS {
		return d, errors.Errorf("Declaration needs %d elements, max %d", len(d.Elements), mdl.VERTEX_DECLARATION_SLOTS-1)
	}
	return d, AssignOffsets(&d)
}

// AssignOffsets packs elements of each stream in declaration order
func AssignOffsets(d *mdl.VertexDeclaration) error {
	var cursor [mdl.STREAMS_USED]int
	for i := range d.Elements {
		e := &d.Elements[i]
		if int(e.Stream) >= mdl.STREAMS_USED {
			return errors.Errorf("Element %v uses stream %d", *e, e.Stream)
		}
		s, err := StorageFor(e.Type, e.Usage)
		if err != nil {
			return err
		}
		if cursor[e.Stream] > 0xff {
			return errors.Errorf("Stream %d overflows 255 bytes", e.Stream)
		}
		e.Offset = uint8(cursor[e.Stream])
		cursor[e.Stream] += s.Size()
	}
	return nil
}

// BlendWidth reports influences per vertex declared by d
func BlendWidth(d mdl.VertexDeclaration) int {
	e, ok := d.Find(mdl.VERTEX_USAGE_BLEND_WEIGHTS, 0)
	if !ok {
		return BLEND_NONE
	}
	s, err := StorageFor(e.Type, e.Usage)
	if err != nil {
		return BLEND_NONE
	}
	return s.Count
}

// Narrow redeclares wide blend elements as 4 byte ones
func Narrow(d mdl.VertexDeclaration) (mdl.VertexDeclaration, error) {
	r := mdl.VertexDeclaration{Elements: append([]mdl.VertexElement(nil), d.Elements...)}
	for i := range r.Elements {
		e := &r.Elements[i]
		switch e.Usage {
		case mdl.VERTEX_USAGE_BLEND_WEIGHTS:
			e.Type = mdl.VERTEX_TYPE_UBYTE4N
		case mdl.VERTEX_USAGE_BLEND_INDICES:
			e.Type = mdl.VERTEX_TYPE_UBYTE4
		}
	}
	return r, AssignOffsets(&r)
}

// UVField returns element name and first component of uv channel
func UVField(channel int) (string, int) {
	return FieldName(mdl.VERTEX_USAGE_UV, uint8(channel/2)), (channel % 2) * 2
}

// UVChannels counts channels stored in layout
func (l *Layout) UVChannels() int {
	count := 0
	for i := 0; ; i++ {
		_, f, ok := l.Field(FieldName(mdl.VERTEX_USAGE_UV, uint8(i)))
		if !ok {
			return count
		}
		if f.Storage.Count >= 4 {
			count += 2
		} else {
			count++
		}
	}
}

func (l *Layout) ColorChannels() int {
	count := 0
	for l.Has(mdl.VERTEX_USAGE_COLOR, uint8(count)) {
		count++
	}
	return count
}
