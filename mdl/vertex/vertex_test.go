package vertex

import (
	"math"
	"testing"

	"github.com/mogaika/mdl_tools/mdl"
)

func TestStorageFor(t *testing.T) {
	var storageTests = []struct {
		t    mdl.VertexType
		u    mdl.VertexUsage
		size int
		kind ComponentKind
	}{
		{mdl.VERTEX_TYPE_FLOAT3, mdl.VERTEX_USAGE_POSITION, 12, KIND_FLOAT32},
		{mdl.VERTEX_TYPE_HALF4, mdl.VERTEX_USAGE_POSITION, 8, KIND_FLOAT16},
		{mdl.VERTEX_TYPE_UBYTE4N, mdl.VERTEX_USAGE_BLEND_WEIGHTS, 4, KIND_UINT8},
		{mdl.VERTEX_TYPE_USHORT4, mdl.VERTEX_USAGE_BLEND_WEIGHTS, 8, KIND_UINT8},
		{mdl.VERTEX_TYPE_USHORT4, mdl.VERTEX_USAGE_BLEND_INDICES, 8, KIND_UINT8},
		{mdl.VERTEX_TYPE_USHORT4, mdl.VERTEX_USAGE_UV, 8, KIND_UINT16},
		{mdl.VERTEX_TYPE_SHORT2N, mdl.VERTEX_USAGE_UV, 4, KIND_INT16},
		{mdl.VERTEX_TYPE_FLOAT4, mdl.VERTEX_USAGE_UV, 16, KIND_FLOAT32},
	}
	for _, test := range storageTests {
		s, err := StorageFor(test.t, test.u)
		if err != nil {
			t.Errorf("StorageFor(%v, %v): %v", test.t, test.u, err)
			continue
		}
		if s.Size() != test.size || s.Kind != test.kind {
			t.Errorf("StorageFor(%v, %v) = %+v, want size %d kind %d", test.t, test.u, s, test.size, test.kind)
		}
	}
	if _, err := StorageFor(mdl.VertexType(4), mdl.VERTEX_USAGE_UV); err == nil {
		t.Errorf("type 4 must be unknown")
	}
	if _, err := StorageFor(mdl.VERTEX_TYPE_FLOAT2, mdl.VertexUsage(9)); err == nil {
		t.Errorf("usage 9 must be unknown")
	}
}

func TestBuildDeclarationLayout(t *testing.T) {
	d, err := Build(Options{BlendWidth: BLEND_WIDE, Tangent: true, ColorChannels: 2, UVChannels: 3})
	if err != nil {
		t.Fatal(err)
	}
	var sizes [mdl.STREAMS_USED]int
	for _, e := range d.Elements {
		if int(e.Offset) != sizes[e.Stream] {
			t.Errorf("element %v offset %d, want sum of previous %d", e, e.Offset, sizes[e.Stream])
		}
		s, _ := StorageFor(e.Type, e.Usage)
		sizes[e.Stream] += s.Size()
	}
	l, err := NewLayout(d)
	if err != nil {
		t.Fatal(err)
	}
	// position 12 + weights 8 + indices 8
	if l.Streams[0].Stride != 28 {
		t.Errorf("stream 0 stride %d", l.Streams[0].Stride)
	}
	// normal 12 + tangent 4 + 2 colors 8 + uv0 16 + uv1 8
	if l.Streams[1].Stride != 48 {
		t.Errorf("stream 1 stride %d", l.Streams[1].Stride)
	}
	if l.UVChannels() != 3 || l.ColorChannels() != 2 || l.StreamCount() != 2 {
		t.Errorf("channels uv %d color %d", l.UVChannels(), l.ColorChannels())
	}
	if BlendWidth(d) != BLEND_WIDE {
		t.Errorf("BlendWidth = %d", BlendWidth(d))
	}

	n, err := Narrow(d)
	if err != nil {
		t.Fatal(err)
	}
	nl, err := NewLayout(n)
	if err != nil {
		t.Fatal(err)
	}
	if BlendWidth(n) != BLEND_NARROW || nl.Streams[0].Stride != 20 || nl.Streams[1].Stride != 48 {
		t.Errorf("narrowed strides %d %d", nl.Streams[0].Stride, nl.Streams[1].Stride)
	}
	if BlendWidth(d) != BLEND_WIDE {
		t.Errorf("Narrow modified source declaration")
	}
}

func TestNewLayoutRejects(t *testing.T) {
	var badDecls = [][]mdl.VertexElement{
		// offset does not follow previous element of same stream
		{{Stream: 0, Offset: 0, Type: mdl.VERTEX_TYPE_FLOAT3}, {Stream: 0, Offset: 16, Type: mdl.VERTEX_TYPE_FLOAT3, Usage: mdl.VERTEX_USAGE_UV}},
		{{Stream: 2, Type: mdl.VERTEX_TYPE_FLOAT3}},
		{{Stream: 0, Type: mdl.VERTEX_TYPE_FLOAT3}, {Stream: 1, Type: mdl.VERTEX_TYPE_FLOAT3}},
		{{Stream: 0, Type: mdl.VERTEX_TYPE_FLOAT3, UsageIndex: 1}},
	}
	for i, elements := range badDecls {
		if _, err := NewLayout(mdl.VertexDeclaration{Elements: elements}); err == nil {
			t.Errorf("declaration %d accepted", i)
		}
	}
}

func TestStreamBufferColumns(t *testing.T) {
	d := mdl.VertexDeclaration{Elements: []mdl.VertexElement{
		{Stream: 0, Type: mdl.VERTEX_TYPE_HALF4, Usage: mdl.VERTEX_USAGE_POSITION},
		{Stream: 0, Type: mdl.VERTEX_TYPE_SHORT2N, Usage: mdl.VERTEX_USAGE_UV},
		{Stream: 0, Type: mdl.VERTEX_TYPE_UBYTE4N, Usage: mdl.VERTEX_USAGE_COLOR},
		{Stream: 0, Type: mdl.VERTEX_TYPE_USHORT4, Usage: mdl.VERTEX_USAGE_BLEND_INDICES},
	}}
	if err := AssignOffsets(&d); err != nil {
		t.Fatal(err)
	}
	l, err := NewLayout(d)
	if err != nil {
		t.Fatal(err)
	}
	sb := NewStreamBuffer(&l.Streams[0], 2)

	pos := []float32{1, 2, 3, -0.5, 0.25, 8}
	if err := sb.PutFloats("position0", pos, 3); err != nil {
		t.Fatal(err)
	}
	got, err := sb.Floats("position0", 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range pos {
		if got[i] != pos[i] {
			t.Errorf("position %d = %v, want %v", i, got[i], pos[i])
		}
	}

	uv := []float32{0.5, -1, 1, 2}
	sb.PutFloats("uv0", uv, 2)
	got, _ = sb.Floats("uv0", 2)
	for i, want := range []float32{0.5, -1, 1, 1} {
		if math.Abs(float64(got[i]-want)) > 1e-4 {
			t.Errorf("uv %d = %v, want %v", i, got[i], want)
		}
	}

	sb.PutFloats("color0", []float32{0, 0.5, 1, 2, 1, 1, 1, 1}, 4)
	colors, _ := sb.Bytes("color0", 4)
	if colors[0] != 0 || colors[1] != 128 || colors[2] != 255 || colors[3] != 255 {
		t.Errorf("colors quantized wrong: %v", colors)
	}

	idx := []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if err := sb.PutBytes("blend_indices0", idx, 8); err != nil {
		t.Fatal(err)
	}
	back, _ := sb.Bytes("blend_indices0", 8)
	for i := range idx {
		if back[i] != idx[i] {
			t.Errorf("blend index %d = %d", i, back[i])
		}
	}
	if err := sb.PutBytes("position0", idx, 8); err == nil {
		t.Errorf("PutBytes into half field must fail")
	}
	if err := sb.PutFloats("normal0", pos, 3); err == nil {
		t.Errorf("missing field must fail")
	}
	if err := sb.PutFloats("position0", pos[:5], 3); err == nil {
		t.Errorf("short column must fail")
	}

	sel := sb.Select([]int{1, 1, 0})
	if sel.Count != 3 {
		t.Fatalf("Select count %d", sel.Count)
	}
	got, _ = sel.Floats("position0", 3)
	if got[0] != -0.5 || got[3] != -0.5 || got[6] != 1 {
		t.Errorf("Select rows wrong: %v", got)
	}
}
