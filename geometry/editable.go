package geometry

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// EditableMesh is one submesh with per vertex attributes and zero based
// triangle indices. It is a MeshSource, so imported meshes can be exported back.
type EditableMesh struct {
	ID           Identifier
	MaterialName string

	Vertices   []mgl32.Vec3
	Normals    []mgl32.Vec3
	Tangents   []mgl32.Vec3
	Bitangents []mgl32.Vec3
	Signs      []float32
	UVs        []UVLayer
	Colors     []ColorLayer
	Indices    []uint32

	WeightTable    *WeightTable
	Shapes         []ShapeKey
	AttributeNames []string
}

func (em *EditableMesh) Name() string { return em.ID.String() }

func (em *EditableMesh) Material() string { return em.MaterialName }

func (em *EditableMesh) Positions() []mgl32.Vec3 { return em.Vertices }

func (em *EditableMesh) LoopVertices() []int {
	loops := make([]int, len(em.Indices))
	for i, idx := range em.Indices {
		loops[i] = int(idx)
	}
	return loops
}

func (em *EditableMesh) LoopNormals() []mgl32.Vec3 {
	if len(em.Normals) == 0 {
		return nil
	}
	return gather(em.Normals, em.Indices)
}

func (em *EditableMesh) UVLayers() []UVLayer {
	layers := make([]UVLayer, len(em.UVs))
	for i, l := range em.UVs {
		layers[i] = UVLayer{Name: l.Name, UVs: gather(l.UVs, em.Indices)}
	}
	return layers
}

func (em *EditableMesh) ColorLayers() []ColorLayer {
	layers := make([]ColorLayer, len(em.Colors))
	for i, l := range em.Colors {
		layers[i] = ColorLayer{Name: l.Name, Colors: gather(l.Colors, em.Indices)}
	}
	return layers
}

func (em *EditableMesh) Weights() *WeightTable { return em.WeightTable }

func (em *EditableMesh) ShapeKeys() []ShapeKey { return em.Shapes }

func (em *EditableMesh) Attributes() []string { return em.AttributeNames }

func gather[T any](values []T, indices []uint32) []T {
	out := make([]T, len(indices))
	for i, idx := range indices {
		out[i] = values[idx]
	}
	return out
}

// Validate checks that every per vertex array matches vertex count
func (em *EditableMesh) Validate() error {
	n := len(em.Vertices)
	check := func(what string, l int, optional bool) error {
		if (optional && l == 0) || l == n {
			return nil
		}
		return errors.Errorf("Mesh %s: %s has %d entries for %d vertices", em.Name(), what, l, n)
	}
	for _, c := range []struct {
		what     string
		l        int
		optional bool
	}{
		{"normals", len(em.Normals), true},
		{"tangents", len(em.Tangents), true},
		{"bitangents", len(em.Bitangents), true},
		{"signs", len(em.Signs), true},
	} {
		if err := check(c.what, c.l, c.optional); err != nil {
			return err
		}
	}
	for _, l := range em.UVs {
		if err := check("uv layer "+l.Name, len(l.UVs), false); err != nil {
			return err
		}
	}
	for _, l := range em.Colors {
		if err := check("color layer "+l.Name, len(l.Colors), false); err != nil {
			return err
		}
	}
	for _, s := range em.Shapes {
		if err := check("shape "+s.Name, len(s.Positions), false); err != nil {
			return err
		}
	}
	if em.WeightTable != nil {
		if err := check("weights", len(em.WeightTable.Weights), false); err != nil {
			return err
		}
	}
	if len(em.Indices)%3 != 0 {
		return errors.Errorf("Mesh %s: %d indices is not triangle list", em.Name(), len(em.Indices))
	}
	for _, idx := range em.Indices {
		if int(idx) >= n {
			return errors.Errorf("Mesh %s: index %d outside %d vertices", em.Name(), idx, n)
		}
	}
	return nil
}
