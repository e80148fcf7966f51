package exporter

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/geometry"
	"github.com/mogaika/mdl_tools/mdl/weights"
	"github.com/mogaika/mdl_tools/utils"
)

var defaultColor = utils.ColorFloat{1, 1, 1, 1}

// submesh is source object split into game vertices
type submesh struct {
	src geometry.MeshSource
	id  geometry.Identifier

	// game vertex to source vertex
	sourceVertex []int
	positions    []mgl32.Vec3
	normals      []mgl32.Vec3
	uvs          [][]mgl32.Vec2
	colors       [][]utils.ColorFloat
	// triangle list of submesh local game vertices
	indices []uint32

	tangents []mgl32.Vec3
	signs    []float32

	weights   *weights.Result
	boneSlots []uint16

	attributeMask uint32
}

func (sm *submesh) vertexCount() int {
	return len(sm.positions)
}

func checkLoopLayers(src geometry.MeshSource, loops int) error {
	if n := src.LoopNormals(); n != nil && len(n) != loops {
		return errors.Errorf("%d normals for %d loops", len(n), loops)
	}
	for _, l := range src.UVLayers() {
		if len(l.UVs) != loops {
			return errors.Errorf("uv layer %q has %d values for %d loops", l.Name, len(l.UVs), loops)
		}
	}
	for _, l := range src.ColorLayers() {
		if len(l.Colors) != loops {
			return errors.Errorf("color layer %q has %d values for %d loops", l.Name, len(l.Colors), loops)
		}
	}
	return nil
}

// flatNormals gives every loop normal of its face
func flatNormals(positions []mgl32.Vec3, loops []int) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(loops))
	for f := 0; f+2 < len(loops); f += 3 {
		p0, p1, p2 := positions[loops[f]], positions[loops[f+1]], positions[loops[f+2]]
		n := utils.NormalizeSafe(p1.Sub(p0).Cross(p2.Sub(p0)))
		normals[f], normals[f+1], normals[f+2] = n, n, n
	}
	return normals
}

func putVec(key []byte, v ...float32) []byte {
	var b [4]byte
	for _, f := range v {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
		key = append(key, b[:]...)
	}
	return key
}

// splitSeams makes one game vertex per unique combination of source vertex,
// normal, uvs and colors, numbered in order of first use
func splitSeams(src geometry.MeshSource, id geometry.Identifier, uvChannels, colorChannels int) (*submesh, error) {
	positions := src.Positions()
	loops := src.LoopVertices()
	if len(loops)%3 != 0 {
		return nil, errors.Errorf("%d loops is not a triangle list", len(loops))
	}
	for i, v := range loops {
		if v < 0 || v >= len(positions) {
			return nil, errors.Errorf("loop %d references vertex %d of %d", i, v, len(positions))
		}
	}
	if err := checkLoopLayers(src, len(loops)); err != nil {
		return nil, err
	}
	loopNormals := src.LoopNormals()
	if loopNormals == nil {
		loopNormals = flatNormals(positions, loops)
	}
	uvLayers := src.UVLayers()
	colorLayers := src.ColorLayers()

	sm := &submesh{
		src:     src,
		id:      id,
		uvs:     make([][]mgl32.Vec2, uvChannels),
		colors:  make([][]utils.ColorFloat, colorChannels),
		indices: make([]uint32, len(loops)),
	}
	seen := make(map[string]uint32, len(positions))
	key := make([]byte, 0, 4+12+uvChannels*8+colorChannels*16)
	for l, v := range loops {
		key = key[:0]
		key = append(key, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		n := loopNormals[l]
		key = putVec(key, n[:]...)
		for c := 0; c < uvChannels; c++ {
			var uv mgl32.Vec2
			if c < len(uvLayers) {
				uv = uvLayers[c].UVs[l]
			}
			key = putVec(key, uv[:]...)
		}
		for c := 0; c < colorChannels; c++ {
			col := defaultColor
			if c < len(colorLayers) {
				col = colorLayers[c].Colors[l]
			}
			key = putVec(key, col[:]...)
		}

		if gv, ok := seen[string(key)]; ok {
			sm.indices[l] = gv
			continue
		}
		gv := uint32(len(sm.positions))
		seen[string(key)] = gv
		sm.indices[l] = gv
		sm.sourceVertex = append(sm.sourceVertex, v)
		sm.positions = append(sm.positions, positions[v])
		sm.normals = append(sm.normals, utils.NormalizeSafe(n))
		for c := 0; c < uvChannels; c++ {
			var uv mgl32.Vec2
			if c < len(uvLayers) {
				uv = uvLayers[c].UVs[l]
			}
			sm.uvs[c] = append(sm.uvs[c], uv)
		}
		for c := 0; c < colorChannels; c++ {
			col := defaultColor
			if c < len(colorLayers) {
				col = colorLayers[c].Colors[l]
			}
			sm.colors[c] = append(sm.colors[c], col)
		}
	}
	return sm, nil
}
