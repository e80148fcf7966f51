package geometry

// MeshSink receives meshes produced by importer in model order
type MeshSink interface {
	AddMesh(lod int, mesh *EditableMesh) error
}

// Collector keeps meshes in memory
type Collector struct {
	Lods [][]*EditableMesh
}

func (c *Collector) AddMesh(lod int, mesh *EditableMesh) error {
	for len(c.Lods) <= lod {
		c.Lods = append(c.Lods, nil)
	}
	c.Lods[lod] = append(c.Lods[lod], mesh)
	return nil
}

// Sources returns collected lod as exporter input
func (c *Collector) Sources(lod int) []MeshSource {
	if lod >= len(c.Lods) {
		return nil
	}
	sources := make([]MeshSource, len(c.Lods[lod]))
	for i, m := range c.Lods[lod] {
		sources[i] = m
	}
	return sources
}
