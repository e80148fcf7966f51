package exporter

import (
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/config"
	"github.com/mogaika/mdl_tools/geometry"
	"github.com/mogaika/mdl_tools/mdl"
	"github.com/mogaika/mdl_tools/utils"
)

type Input struct {
	// source objects per level of detail, object names are identifiers
	Lods [][]geometry.MeshSource
	// optional, when set vertex groups outside of skeleton are ignored
	Skeleton   []geometry.BoneSource
	ElementIDs []mdl.ElementID
	Profile    *config.Profile
}

type Result struct {
	Data   []byte
	Model  *mdl.Model
	Report *Report
}

type shapeMeshRef struct {
	meshStartIndex uint32
	values         []mdl.ShapeValue
}

type shapeEntry struct {
	name string
	lods [mdl.LOD_MAX][]shapeMeshRef
}

type modelBuilder struct {
	profile  *config.Profile
	exlog    *utils.Logger
	report   *Report
	skeleton *geometry.Skeleton

	materials  *nameTable
	attributes *nameTable
	bones      *nameTable

	shapes      []*shapeEntry
	shapeIndex  map[string]int
	shapeValues int

	model     *mdl.Model
	bbox      mdl.BoundingBox
	boneBoxes []mdl.BoundingBox
}

// Export builds .mdl file from source objects. On capacity errors
// nothing is returned, the caller gets the typed error only.
func Export(in *Input, exlog *utils.Logger) (*Result, error) {
	profile := in.Profile
	if profile == nil {
		profile = config.DefaultProfile()
	}
	if err := profile.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Invalid profile")
	}
	if len(in.Lods) > mdl.LOD_MAX {
		return nil, &mdl.LodLimitError{Count: len(in.Lods), Limit: mdl.LOD_MAX}
	}
	if len(in.Lods) == 0 {
		return nil, errors.Errorf("Nothing to export")
	}

	mb := &modelBuilder{
		profile:    profile,
		exlog:      exlog,
		report:     &Report{},
		materials:  newNameTable(),
		attributes: newNameTable(),
		bones:      newNameTable(),
		shapeIndex: make(map[string]int),
		model:      &mdl.Model{},
		bbox:       mdl.EmptyBoundingBox(),
	}
	if len(in.Skeleton) != 0 {
		skel, err := geometry.NewSkeleton(in.Skeleton)
		if err != nil {
			return nil, errors.Wrapf(err, "Skeleton")
		}
		mb.skeleton = skel
	}

	for lod, sources := range in.Lods {
		if err := mb.buildLod(lod, sources); err != nil {
			return nil, errors.Wrapf(err, "Lod %d", lod)
		}
	}

	m := mb.assemble(len(in.Lods), in.ElementIDs)
	data, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	exlog.Printf("Exported %d meshes, %d submeshes, %d shapes into 0x%x bytes",
		len(m.Meshes), len(m.Submeshes), len(m.Shapes), len(data))
	return &Result{Data: data, Model: m, Report: mb.report}, nil
}

func (mb *modelBuilder) addBone(name string) int {
	i := mb.bones.Add(name)
	for len(mb.boneBoxes) <= i {
		mb.boneBoxes = append(mb.boneBoxes, mdl.EmptyBoundingBox())
	}
	return i
}

func (mb *modelBuilder) shape(name string) int {
	if i, ok := mb.shapeIndex[name]; ok {
		return i
	}
	mb.shapeIndex[name] = len(mb.shapes)
	mb.shapes = append(mb.shapes, &shapeEntry{name: name})
	return len(mb.shapes) - 1
}

func (mb *modelBuilder) assemble(lodCount int, elementIDs []mdl.ElementID) *mdl.Model {
	m := mb.model
	m.Materials = mb.materials.Names()
	m.Attributes = mb.attributes.Names()
	m.Bones = mb.bones.Names()
	m.ElementIDs = append([]mdl.ElementID(nil), elementIDs...)

	m.BoundingBox = mb.bbox.Finalized()
	m.WaterBoundingBox = mdl.BoundingBox{}
	m.VerticalFogBoundingBox = mdl.BoundingBox{}
	m.BoneBoundingBoxes = make([]mdl.BoundingBox, len(mb.boneBoxes))
	for i, bb := range mb.boneBoxes {
		m.BoneBoundingBoxes[i] = bb.Finalized()
	}

	for _, entry := range mb.shapes {
		s := mdl.Shape{Name: entry.name}
		total := 0
		for lod := 0; lod < mdl.LOD_MAX; lod++ {
			s.ShapeMeshStartIndex[lod] = uint16(len(m.ShapeMeshes))
			for _, ref := range entry.lods[lod] {
				m.ShapeMeshes = append(m.ShapeMeshes, mdl.ShapeMesh{
					MeshIndexOffset:  ref.meshStartIndex,
					ShapeValueCount:  uint32(len(ref.values)),
					ShapeValueOffset: uint32(len(m.ShapeValues)),
				})
				m.ShapeValues = append(m.ShapeValues, ref.values...)
				s.ShapeMeshCount[lod]++
				total++
			}
		}
		if total == 0 {
			continue
		}
		m.Shapes = append(m.Shapes, s)
	}

	p := mb.profile
	mh := &m.MeshHeader
	mh.LodCount = uint8(lodCount)
	mh.Radius = m.BoundingBox.Radius()
	mh.Flags1 = mdl.ModelFlags1(p.Flags1)
	mh.Flags2 = mdl.ModelFlags2(p.Flags2)
	if p.EdgeGeometry {
		mh.Flags2 |= mdl.FLAGS2_EDGE_GEOMETRY_ENABLED
	}
	mh.ModelClipOutDistance = p.ModelClipOutDistance
	mh.ShadowClipOutDistance = p.ShadowClipOutDistance

	m.Header.EnableIndexBufferStreaming = p.IndexBufferStreaming
	m.Header.EnableEdgeGeometry = p.EdgeGeometry
	return m
}
