package mdl

import (
	"fmt"
	"strings"
)

func (m *Model) Summary() string {
	var b strings.Builder
	mh := &m.MeshHeader
	fmt.Fprintf(&b, "version 0x%.8x lods %d radius %.4f\n", m.Header.Version, mh.LodCount, mh.Radius)
	fmt.Fprintf(&b, "meshes %d submeshes %d materials %d bones %d bone tables %d\n",
		len(m.Meshes), len(m.Submeshes), len(m.Materials), len(m.Bones), len(m.BoneTables))
	fmt.Fprintf(&b, "shapes %d shape meshes %d shape values %d element ids %d\n",
		len(m.Shapes), len(m.ShapeMeshes), len(m.ShapeValues), len(m.ElementIDs))
	fmt.Fprintf(&b, "flags1 %v flags2 %v\n", mh.Flags1, mh.Flags2)
	for i := 0; i < m.LodCount(); i++ {
		l := &m.Lods[i]
		fmt.Fprintf(&b, "lod %d: meshes %d+%d range %v/%v vertex data 0x%x@0x%x index data 0x%x@0x%x\n",
			i, l.MeshIndex, l.MeshCount, l.ModelLodRange, l.TextureLodRange,
			l.VertexBufferSize, l.VertexDataOffset, l.IndexBufferSize, l.IndexDataOffset)
		for j := int(l.MeshIndex); j < int(l.MeshIndex)+int(l.MeshCount); j++ {
			mesh := &m.Meshes[j]
			material := "?"
			if int(mesh.MaterialIndex) < len(m.Materials) {
				material = m.Materials[mesh.MaterialIndex]
			}
			fmt.Fprintf(&b, "  mesh %d: vertices %d indices %d@%d submeshes %d material %q\n",
				j, mesh.VertexCount, mesh.IndexCount, mesh.StartIndex, mesh.SubmeshCount, material)
			if j < len(m.Declarations) {
				fmt.Fprintf(&b, "    declaration %v\n", m.Declarations[j].Elements)
			}
		}
	}
	for _, s := range m.Shapes {
		fmt.Fprintf(&b, "shape %q meshes %v\n", s.Name, s.ShapeMeshCount)
	}
	return b.String()
}
