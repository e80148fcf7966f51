package mdl

import "fmt"

type VertexType uint8

const (
	VERTEX_TYPE_FLOAT1  VertexType = 0
	VERTEX_TYPE_FLOAT2  VertexType = 1
	VERTEX_TYPE_FLOAT3  VertexType = 2
	VERTEX_TYPE_FLOAT4  VertexType = 3
	VERTEX_TYPE_UBYTE4  VertexType = 5
	VERTEX_TYPE_SHORT2  VertexType = 6
	VERTEX_TYPE_SHORT4  VertexType = 7
	VERTEX_TYPE_UBYTE4N VertexType = 8
	VERTEX_TYPE_SHORT2N VertexType = 9
	VERTEX_TYPE_SHORT4N VertexType = 10
	VERTEX_TYPE_HALF2   VertexType = 13
	VERTEX_TYPE_HALF4   VertexType = 14
	VERTEX_TYPE_USHORT2 VertexType = 16
	VERTEX_TYPE_USHORT4 VertexType = 17
)

var vertexTypeNames = map[VertexType]string{
	VERTEX_TYPE_FLOAT1:  "Float1",
	VERTEX_TYPE_FLOAT2:  "Float2",
	VERTEX_TYPE_FLOAT3:  "Float3",
	VERTEX_TYPE_FLOAT4:  "Float4",
	VERTEX_TYPE_UBYTE4:  "UByte4",
	VERTEX_TYPE_SHORT2:  "Short2",
	VERTEX_TYPE_SHORT4:  "Short4",
	VERTEX_TYPE_UBYTE4N: "UByte4N",
	VERTEX_TYPE_SHORT2N: "Short2N",
	VERTEX_TYPE_SHORT4N: "Short4N",
	VERTEX_TYPE_HALF2:   "Half2",
	VERTEX_TYPE_HALF4:   "Half4",
	VERTEX_TYPE_USHORT2: "UShort2",
	VERTEX_TYPE_USHORT4: "UShort4",
}

func (t VertexType) String() string {
	if n, ok := vertexTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("VertexType(%d)", uint8(t))
}

func (t VertexType) Valid() bool {
	_, ok := vertexTypeNames[t]
	return ok
}

type VertexUsage uint8

const (
	VERTEX_USAGE_POSITION      VertexUsage = 0
	VERTEX_USAGE_BLEND_WEIGHTS VertexUsage = 1
	VERTEX_USAGE_BLEND_INDICES VertexUsage = 2
	VERTEX_USAGE_NORMAL        VertexUsage = 3
	VERTEX_USAGE_UV            VertexUsage = 4
	VERTEX_USAGE_FLOW          VertexUsage = 5
	VERTEX_USAGE_TANGENT       VertexUsage = 6
	VERTEX_USAGE_COLOR         VertexUsage = 7
)

var vertexUsageNames = []string{
	"position", "blend_weights", "blend_indices", "normal", "uv", "flow", "tangent", "color",
}

func (u VertexUsage) String() string {
	if int(u) < len(vertexUsageNames) {
		return vertexUsageNames[u]
	}
	return fmt.Sprintf("usage%d", uint8(u))
}

func (u VertexUsage) Valid() bool {
	return int(u) < len(vertexUsageNames)
}

type VertexElement struct {
	Stream     uint8
	Offset     uint8
	Type       VertexType
	Usage      VertexUsage
	UsageIndex uint8
}

func (e VertexElement) String() string {
	return fmt.Sprintf("s%d+%d %s%d:%s", e.Stream, e.Offset, e.Usage, e.UsageIndex, e.Type)
}

// VertexDeclaration lists elements without terminator, serialized into 17 slots
type VertexDeclaration struct {
	Elements []VertexElement
}

func parseVertexDeclaration(b []byte) (VertexDeclaration, error) {
	var d VertexDeclaration
	for i := 0; i < VERTEX_DECLARATION_SLOTS; i++ {
		eb := b[i*VERTEX_ELEMENT_SIZE:]
		if eb[0] == VERTEX_STREAM_END {
			return d, nil
		}
		d.Elements = append(d.Elements, VertexElement{
			Stream:     eb[0],
			Offset:     eb[1],
			Type:       VertexType(eb[2]),
			Usage:      VertexUsage(eb[3]),
			UsageIndex: eb[4],
		})
	}
	return d, fmt.Errorf("declaration has no terminator in %d slots", VERTEX_DECLARATION_SLOTS)
}

func (d *VertexDeclaration) Marshal() []byte {
	var buf [VERTEX_DECLARATION_SIZE]byte
	for i, e := range d.Elements {
		eb := buf[i*VERTEX_ELEMENT_SIZE:]
		eb[0] = e.Stream
		eb[1] = e.Offset
		eb[2] = uint8(e.Type)
		eb[3] = uint8(e.Usage)
		eb[4] = e.UsageIndex
	}
	buf[len(d.Elements)*VERTEX_ELEMENT_SIZE] = VERTEX_STREAM_END
	return buf[:]
}

// Find returns first element with usage and usage index
func (d *VertexDeclaration) Find(usage VertexUsage, usageIndex uint8) (VertexElement, bool) {
	for _, e := range d.Elements {
		if e.Usage == usage && e.UsageIndex == usageIndex {
			return e, true
		}
	}
	return VertexElement{}, false
}
