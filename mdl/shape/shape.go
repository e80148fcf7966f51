// Package shape encodes morph targets as sparse index substitutions
package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/mdl"
)

const DEFAULT_TOLERANCE = 1e-6

type Target struct {
	Name      string
	Positions []mgl32.Vec3
}

// Value says index slot Slot of the mesh index list must point to
// appended vertex number Replace of the same target
type Value struct {
	Slot    int
	Replace int
}

type Encoded struct {
	Name string
	// affected base vertices, ascending
	Vertices  []int
	Positions []mgl32.Vec3
	Values    []Value
}

// Affected returns vertices that moved on any axis more than tolerance
func Affected(base, target []mgl32.Vec3, tolerance float32) ([]int, error) {
	if len(base) != len(target) {
		return nil, errors.Errorf("Target has %d vertices, base has %d", len(target), len(base))
	}
	var result []int
	for i := range base {
		for c := 0; c < 3; c++ {
			if math.Abs(float64(target[i][c]-base[i][c])) > float64(tolerance) {
				result = append(result, i)
				break
			}
		}
	}
	return result, nil
}

// Encode diffs targets in declaration order, targets without
// affected vertices are dropped
func Encode(base []mgl32.Vec3, indices []uint32, targets []Target, tolerance float32) ([]Encoded, error) {
	result := make([]Encoded, 0, len(targets))
	for _, t := range targets {
		affected, err := Affected(base, t.Positions, tolerance)
		if err != nil {
			return nil, errors.Wrapf(err, "Shape %q", t.Name)
		}
		if len(affected) == 0 {
			continue
		}
		e := Encoded{
			Name:      t.Name,
			Vertices:  affected,
			Positions: make([]mgl32.Vec3, len(affected)),
		}
		replace := make(map[uint32]int, len(affected))
		for k, v := range affected {
			e.Positions[k] = t.Positions[v]
			replace[uint32(v)] = k
		}
		for slot, idx := range indices {
			if k, ok := replace[idx]; ok {
				e.Values = append(e.Values, Value{Slot: slot, Replace: k})
			}
		}
		result = append(result, e)
	}
	return result, nil
}

// Decode applies shape values to copy of positions. indices is the mesh
// index list as stored, positions include appended shape vertices.
func Decode(positions []mgl32.Vec3, indices []uint16, values []mdl.ShapeValue) ([]mgl32.Vec3, error) {
	out := make([]mgl32.Vec3, len(positions))
	copy(out, positions)
	for i, v := range values {
		if int(v.BaseIndicesIndex) >= len(indices) {
			return nil, errors.Errorf("Shape value %d: index slot %d outside %d indices", i, v.BaseIndicesIndex, len(indices))
		}
		if int(v.ReplacingVertexIndex) >= len(positions) {
			return nil, errors.Errorf("Shape value %d: vertex %d outside %d vertices", i, v.ReplacingVertexIndex, len(positions))
		}
		base := indices[v.BaseIndicesIndex]
		if int(base) >= len(out) {
			return nil, errors.Errorf("Shape value %d: base vertex %d outside %d vertices", i, base, len(positions))
		}
		out[base] = positions[v.ReplacingVertexIndex]
	}
	return out, nil
}
