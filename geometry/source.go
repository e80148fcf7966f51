// Package geometry holds mesh data exchanged between codec and mesh adapters
package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/mdl_tools/utils"
)

// UVLayer and ColorLayer values are per loop for MeshSource
// and per vertex for EditableMesh fields
type UVLayer struct {
	Name string
	UVs  []mgl32.Vec2
}

type ColorLayer struct {
	Name   string
	Colors []utils.ColorFloat
}

// ShapeKey holds full positions of morph target, one per vertex
type ShapeKey struct {
	Name      string
	Positions []mgl32.Vec3
}

type Influence struct {
	Group  int
	Weight float32
}

// WeightTable is sparse vertex group table, Weights has row per vertex
type WeightTable struct {
	Groups  []string
	Weights [][]Influence
}

// GroupIndex returns index of group, adding it when missing
func (wt *WeightTable) GroupIndex(name string) int {
	for i, g := range wt.Groups {
		if g == name {
			return i
		}
	}
	wt.Groups = append(wt.Groups, name)
	return len(wt.Groups) - 1
}

// UsedGroups marks groups with positive weight on any vertex
func (wt *WeightTable) UsedGroups() []bool {
	used := make([]bool, len(wt.Groups))
	for _, row := range wt.Weights {
		for _, in := range row {
			if in.Weight > 0 && in.Group < len(used) {
				used[in.Group] = true
			}
		}
	}
	return used
}

// MeshSource is a triangulated mesh. Loops are triangle corners,
// LoopVertices maps every loop to vertex and has 3 loops per face.
type MeshSource interface {
	Name() string
	Material() string
	Positions() []mgl32.Vec3
	LoopVertices() []int
	LoopNormals() []mgl32.Vec3
	UVLayers() []UVLayer
	ColorLayers() []ColorLayer
	// Weights is nil for meshes without skinning
	Weights() *WeightTable
	ShapeKeys() []ShapeKey
	// Attributes lists names of boolean attributes enabled on mesh
	Attributes() []string
}
