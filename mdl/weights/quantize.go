// Package weights quantizes float bone influences into bytes summing to 255.
package weights

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

const (
	TOTAL       = 0xff
	MAX_COLUMNS = 0x100

	// sums inside this range are left as is
	NORMAL_SUM_MIN = 0.99
	NORMAL_SUM_MAX = 1.01
)

// Matrix is dense row major table, rows are vertices and columns are bone slots
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

func NewMatrix(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

func (m Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

func (m Matrix) Set(row, col int, v float32) {
	m.Data[row*m.Cols+col] = v
}

// EmptyColumns marks columns without positive weight in any row
func EmptyColumns(m Matrix) []bool {
	empty := make([]bool, m.Cols)
	for c := range empty {
		empty[c] = true
	}
	for r := 0; r < m.Rows; r++ {
		for c, w := range m.Row(r) {
			if w > 0 && finite(w) {
				empty[c] = false
			}
		}
	}
	return empty
}

type Options struct {
	// MaxInfluences is 4 or 8
	MaxInfluences int
	Epsilon       float32
}

type Stats struct {
	Overflow     int
	Renormalized int
	ZeroFallback int
	// NonFinite counts dropped NaN and infinite weights
	NonFinite int
}

func (s *Stats) Add(o Stats) {
	s.Overflow += o.Overflow
	s.Renormalized += o.Renormalized
	s.ZeroFallback += o.ZeroFallback
	s.NonFinite += o.NonFinite
}

func (s Stats) Empty() bool {
	return s == Stats{}
}

type Result struct {
	Width   int
	Weights []uint8
	Slots   []uint8
	// Influences is count of nonzero quantized weights per vertex
	Influences []int
	Stats      Stats
}

func (r *Result) Count() int {
	return len(r.Influences)
}

func (r *Result) MaxInfluences() int {
	max := 0
	for _, n := range r.Influences {
		if n > max {
			max = n
		}
	}
	return max
}

func finite(w float32) bool {
	return !math.IsNaN(float64(w)) && !math.IsInf(float64(w), 0)
}

type influence struct {
	col int
	w   float32
}

// Quantize converts every row to at most o.MaxInfluences byte weights.
// Rows without any weight get full weight on slot 0 and are counted.
func Quantize(m Matrix, excluded []bool, o Options) (*Result, error) {
	if o.MaxInfluences <= 0 || o.MaxInfluences > 8 {
		return nil, errors.Errorf("Invalid influence limit %d", o.MaxInfluences)
	}
	if m.Cols > MAX_COLUMNS {
		return nil, errors.Errorf("Too many weight columns %d, max %d", m.Cols, MAX_COLUMNS)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return nil, errors.Errorf("Matrix data %d != %dx%d", len(m.Data), m.Rows, m.Cols)
	}
	if excluded != nil && len(excluded) != m.Cols {
		return nil, errors.Errorf("Exclusion mask %d != %d columns", len(excluded), m.Cols)
	}

	n := o.MaxInfluences
	r := &Result{
		Width:      n,
		Weights:    make([]uint8, m.Rows*n),
		Slots:      make([]uint8, m.Rows*n),
		Influences: make([]int, m.Rows),
	}
	row := make([]influence, 0, m.Cols)
	scaled := make([]float32, 0, n)
	for v := 0; v < m.Rows; v++ {
		row = row[:0]
		for c, w := range m.Row(v) {
			if !finite(w) {
				r.Stats.NonFinite++
				continue
			}
			if w > 0 && (excluded == nil || !excluded[c]) {
				row = append(row, influence{col: c, w: w})
			}
		}
		sort.SliceStable(row, func(i, j int) bool { return row[i].w > row[j].w })
		if len(row) > n {
			r.Stats.Overflow++
			row = row[:n]
		}
		kept := row[:0]
		var sum float32
		for _, in := range row {
			if in.w >= o.Epsilon {
				kept = append(kept, in)
				sum += in.w
			}
		}

		outW := r.Weights[v*n : (v+1)*n]
		outS := r.Slots[v*n : (v+1)*n]
		if len(kept) == 0 || sum <= 0 || !finite(sum) {
			outW[0] = TOTAL
			r.Influences[v] = 1
			r.Stats.ZeroFallback++
			continue
		}

		scale := float32(TOTAL)
		if sum < NORMAL_SUM_MIN || sum > NORMAL_SUM_MAX {
			scale /= sum
			r.Stats.Renormalized++
		}
		scaled = scaled[:0]
		for _, in := range kept {
			scaled = append(scaled, in.w*scale)
		}
		for i, q := range Distribute(scaled, TOTAL) {
			outW[i] = q
			outS[i] = uint8(kept[i].col)
			if q != 0 {
				r.Influences[v]++
			}
		}
	}
	return r, nil
}

// Distribute floors values and then moves single units by fractional
// remainder until result sums to total. Ties keep array order.
func Distribute(values []float32, total int) []uint8 {
	out := make([]uint8, len(values))
	if len(values) == 0 {
		return out
	}
	rem := make([]float64, len(values))
	sum := 0
	for i, v := range values {
		f := math.Floor(float64(v))
		if f < 0 {
			f = 0
		} else if f > TOTAL {
			f = TOTAL
		}
		out[i] = uint8(f)
		rem[i] = float64(v) - f
		sum += int(out[i])
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	shortfall := total - sum
	if shortfall > 0 {
		sort.SliceStable(order, func(a, b int) bool { return rem[order[a]] > rem[order[b]] })
		for i := 0; shortfall > 0; i = (i + 1) % len(order) {
			if out[order[i]] < TOTAL {
				out[order[i]]++
				shortfall--
			}
		}
	} else if shortfall < 0 {
		sort.SliceStable(order, func(a, b int) bool { return rem[order[a]] < rem[order[b]] })
		for i := 0; shortfall < 0; i = (i + 1) % len(order) {
			if out[order[i]] > 0 {
				out[order[i]]--
				shortfall++
			}
		}
	}
	return out
}

// Narrow keeps first width entries of each vertex. Entries are sorted,
// so it fails only when a dropped entry still carries weight.
func Narrow(r *Result, width int) (*Result, error) {
	if width > r.Width {
		return nil, errors.Errorf("Cannot narrow %d wide weights to %d", r.Width, width)
	}
	n := &Result{
		Width:      width,
		Weights:    make([]uint8, r.Count()*width),
		Slots:      make([]uint8, r.Count()*width),
		Influences: append([]int(nil), r.Influences...),
		Stats:      r.Stats,
	}
	for v := 0; v < r.Count(); v++ {
		src := r.Weights[v*r.Width : (v+1)*r.Width]
		for i := width; i < r.Width; i++ {
			if src[i] != 0 {
				return nil, errors.Errorf("Vertex %d has weight in slot %d, cannot narrow to %d", v, i, width)
			}
		}
		copy(n.Weights[v*width:], src[:width])
		copy(n.Slots[v*width:], r.Slots[v*r.Width:v*r.Width+width])
	}
	return n, nil
}
