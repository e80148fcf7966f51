package shape

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/mdl_tools/mdl"
)

var quad = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
var quadIndices = []uint32{0, 1, 2, 0, 2, 3}

func TestEncodeIdenticalTargetIsDropped(t *testing.T) {
	same := append([]mgl32.Vec3(nil), quad...)
	same[2][0] += 1e-7
	enc, err := Encode(quad, quadIndices, []Target{{Name: "shp_same", Positions: same}}, DEFAULT_TOLERANCE)
	if err != nil {
		t.Fatal(err)
	}
	if len(enc) != 0 {
		t.Errorf("identical target produced %+v", enc)
	}
}

func TestEncodeDecode(t *testing.T) {
	moved := append([]mgl32.Vec3(nil), quad...)
	moved[0] = mgl32.Vec3{0, 0, 0.5}
	moved[2] = mgl32.Vec3{1, 1, 0.25}
	enc, err := Encode(quad, quadIndices, []Target{
		{Name: "shp_same", Positions: quad},
		{Name: "shp_moved", Positions: moved},
	}, DEFAULT_TOLERANCE)
	if err != nil {
		t.Fatal(err)
	}
	if len(enc) != 1 || enc[0].Name != "shp_moved" {
		t.Fatalf("encoded %+v", enc)
	}
	e := enc[0]
	if len(e.Vertices) != 2 || e.Vertices[0] != 0 || e.Vertices[1] != 2 {
		t.Errorf("affected %v", e.Vertices)
	}
	// vertex 0 is referenced twice and vertex 2 twice
	if len(e.Values) != 4 {
		t.Errorf("values %+v", e.Values)
	}

	// layout as written by exporter: appended vertices follow base vertices
	positions := append(append([]mgl32.Vec3(nil), quad...), e.Positions...)
	indices := make([]uint16, len(quadIndices))
	for i, idx := range quadIndices {
		indices[i] = uint16(idx)
	}
	values := make([]mdl.ShapeValue, len(e.Values))
	for i, v := range e.Values {
		values[i] = mdl.ShapeValue{BaseIndicesIndex: uint16(v.Slot), ReplacingVertexIndex: uint16(len(quad) + v.Replace)}
	}
	out, err := Decode(positions, indices, values)
	if err != nil {
		t.Fatal(err)
	}
	changed := 0
	for i := range quad {
		if out[i] != quad[i] {
			changed++
		}
		if out[i] != moved[i] {
			t.Errorf("vertex %d = %v, want %v", i, out[i], moved[i])
		}
	}
	if changed != len(e.Vertices) {
		t.Errorf("%d vertices changed, want %d", changed, len(e.Vertices))
	}
	if positions[0] != quad[0] {
		t.Errorf("Decode modified source positions")
	}
}

func TestDecodeOutOfRange(t *testing.T) {
	if _, err := Decode(quad, []uint16{0, 1, 2}, []mdl.ShapeValue{{BaseIndicesIndex: 3}}); err == nil {
		t.Errorf("slot outside indices must fail")
	}
	if _, err := Decode(quad, []uint16{0, 1, 2}, []mdl.ShapeValue{{ReplacingVertexIndex: 4}}); err == nil {
		t.Errorf("vertex outside positions must fail")
	}
	if _, err := Affected(quad, quad[:3], DEFAULT_TOLERANCE); err == nil {
		t.Errorf("size mismatch must fail")
	}
}
