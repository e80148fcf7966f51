package weights

import (
	"math"
	"math/rand"
	"testing"
)

func rowSum(r *Result, v int) int {
	sum := 0
	for _, w := range r.Weights[v*r.Width : (v+1)*r.Width] {
		sum += int(w)
	}
	return sum
}

func TestQuantizeSumsTo255(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, limit := range []int{4, 8} {
		m := NewMatrix(500, 12)
		for i := range m.Data {
			switch rnd.Intn(3) {
			case 0:
				m.Data[i] = rnd.Float32()
			case 1:
				m.Data[i] = rnd.Float32() * 0.01
			}
		}
		r, err := Quantize(m, EmptyColumns(m), Options{MaxInfluences: limit, Epsilon: 0.001})
		if err != nil {
			t.Fatal(err)
		}
		for v := 0; v < m.Rows; v++ {
			if s := rowSum(r, v); s != TOTAL {
				t.Fatalf("limit %d vertex %d: weights %v sum to %d", limit, v, r.Weights[v*limit:(v+1)*limit], s)
			}
			if r.Influences[v] > limit {
				t.Errorf("vertex %d has %d influences", v, r.Influences[v])
			}
		}
	}
}

func TestQuantizeZeroFallback(t *testing.T) {
	m := NewMatrix(3, 3)
	m.Set(0, 2, 1)
	// row 1 is empty, row 2 has only weight below epsilon
	m.Set(2, 1, 0.0001)
	r, err := Quantize(m, nil, Options{MaxInfluences: 4, Epsilon: 0.001})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []int{1, 2} {
		if r.Weights[v*4] != 255 || r.Slots[v*4] != 0 {
			t.Errorf("vertex %d: weight %d slot %d, want fallback to slot 0", v, r.Weights[v*4], r.Slots[v*4])
		}
	}
	if r.Stats.ZeroFallback != 2 {
		t.Errorf("ZeroFallback = %d, want 2", r.Stats.ZeroFallback)
	}
	if r.Weights[0] != 255 || r.Slots[0] != 2 {
		t.Errorf("vertex 0: weight %d slot %d", r.Weights[0], r.Slots[0])
	}
}

func TestQuantizeNonFinite(t *testing.T) {
	inf, nan := float32(math.Inf(1)), float32(math.NaN())
	m := NewMatrix(2, 2)
	m.Set(0, 0, inf)
	m.Set(0, 1, 0.5)
	m.Set(1, 0, nan)
	m.Set(1, 1, -inf)
	if empty := EmptyColumns(m); !empty[0] || empty[1] {
		t.Errorf("empty columns %v", empty)
	}
	r, err := Quantize(m, nil, Options{MaxInfluences: 4, Epsilon: 0.001})
	if err != nil {
		t.Fatal(err)
	}
	if w := r.Weights[0:4]; w[0] != 255 || w[1] != 0 || r.Slots[0] != 1 {
		t.Errorf("vertex 0: weights %v slots %v, want all on slot 1", w, r.Slots[0:4])
	}
	if r.Weights[4] != 255 || r.Slots[4] != 0 || r.Influences[1] != 1 {
		t.Errorf("vertex 1: weights %v slots %v, want fallback to slot 0", r.Weights[4:8], r.Slots[4:8])
	}
	if r.Stats.NonFinite != 3 || r.Stats.ZeroFallback != 1 {
		t.Errorf("stats %+v", r.Stats)
	}
}

func TestQuantizeOverflowAndRenormalize(t *testing.T) {
	m := NewMatrix(2, 6)
	copy(m.Row(0), []float32{0.1, 0.3, 0.05, 0.2, 0.25, 0.1})
	copy(m.Row(1), []float32{0.5, 0.5, 0, 0, 0, 0})
	r, err := Quantize(m, nil, Options{MaxInfluences: 4})
	if err != nil {
		t.Fatal(err)
	}
	if r.Stats.Overflow != 1 || r.Stats.Renormalized != 1 {
		t.Errorf("stats %+v", r.Stats)
	}
	// sorted descending, stable for equal 0.1 weights
	wantSlots := []uint8{1, 4, 3, 0}
	for i, s := range wantSlots {
		if r.Slots[i] != s {
			t.Errorf("slot %d = %d, want %d", i, r.Slots[i], s)
		}
	}
	if rowSum(r, 0) != 255 || rowSum(r, 1) != 255 {
		t.Errorf("sums %d %d", rowSum(r, 0), rowSum(r, 1))
	}
	// 127.5 + 127.5, tie goes to first entry
	if r.Weights[4] != 128 || r.Weights[5] != 127 {
		t.Errorf("tie break: %v", r.Weights[4:8])
	}
}

func TestQuantizeExcludedColumns(t *testing.T) {
	m := NewMatrix(1, 3)
	copy(m.Row(0), []float32{0.5, 0.5, 0})
	r, err := Quantize(m, []bool{true, false, false}, Options{MaxInfluences: 4})
	if err != nil {
		t.Fatal(err)
	}
	if r.Weights[0] != 255 || r.Slots[0] != 1 || r.Stats.Renormalized != 1 {
		t.Errorf("excluded column used: %v %v %+v", r.Weights, r.Slots, r.Stats)
	}
	if empty := EmptyColumns(m); !empty[2] || empty[0] || empty[1] {
		t.Errorf("EmptyColumns = %v", empty)
	}
}

func TestDistribute(t *testing.T) {
	var distributeTests = []struct {
		in  []float32
		out []uint8
	}{
		{[]float32{85, 85, 85}, []uint8{85, 85, 85}},
		{[]float32{63.75, 63.75, 63.75, 63.75}, []uint8{64, 64, 64, 63}},
		{[]float32{100.2, 100.9, 55.7}, []uint8{100, 100, 55}},
		{[]float32{254.6, 0.4}, []uint8{255, 0}},
	}
	for _, test := range distributeTests {
		got := Distribute(test.in, TOTAL)
		for i := range got {
			if got[i] != test.out[i] {
				t.Errorf("Distribute(%v) = %v, want %v", test.in, got, test.out)
				break
			}
		}
	}
}

func TestNarrow(t *testing.T) {
	m := NewMatrix(2, 8)
	copy(m.Row(0), []float32{0.75, 0.25})
	copy(m.Row(1), []float32{0.25, 0.25, 0.25, 0.25})
	r, err := Quantize(m, nil, Options{MaxInfluences: 8})
	if err != nil {
		t.Fatal(err)
	}
	if r.MaxInfluences() != 4 {
		t.Fatalf("MaxInfluences = %d", r.MaxInfluences())
	}
	n, err := Narrow(r, 4)
	if err != nil {
		t.Fatal(err)
	}
	if n.Width != 4 || len(n.Weights) != 8 || rowSum(n, 0) != 255 || rowSum(n, 1) != 255 {
		t.Errorf("narrowed %+v", n)
	}
	if n.Slots[0] != 0 || n.Slots[1] != 1 || n.Weights[0] != 191 || n.Weights[1] != 64 {
		t.Errorf("narrowed row 0: %v %v", n.Weights[:4], n.Slots[:4])
	}

	m = NewMatrix(1, 8)
	for i := 0; i < 5; i++ {
		m.Set(0, i, 0.2)
	}
	r, _ = Quantize(m, nil, Options{MaxInfluences: 8})
	if _, err := Narrow(r, 4); err == nil {
		t.Errorf("narrowing 5 influences must fail")
	}
}
