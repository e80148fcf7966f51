package fbxbuilder

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/utils"
)

const (
	FBX_VERSION       = 7400
	FBX_CREATOR       = "mdl_tools mdlconv"
	FBX_CREATION_TIME = "1970-01-01 00:00:00:000"
	FIRST_OBJECT_ID   = 1000000
)

var FBX_FILE_ID = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

// templates holds default properties for every object type MeshWriter emits
var templates = map[string]func() *fbx.Node{
	"Model": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxNode").AddNodes(bfbx73.Properties70().AddNodes(
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("Show", "bool", "", "", int32(1)),
		))
	},
	"Geometry": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxMesh").AddNodes(bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		))
	},
	"Material": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxSurfaceLambert").AddNodes(bfbx73.Properties70().AddNodes(
			bfbx73.P("ShadingModel", "KString", "", "", "Lambert"),
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("DiffuseFactor", "Number", "", "A", float64(1)),
		))
	},
}

// FBXBuilder collects objects and connections of one binary fbx scene
type FBXBuilder struct {
	f      *fbx.FBX
	c      map[string]interface{}
	lastId int64
	exlog  *utils.Logger

	definitions *fbx.Node
	objects     *fbx.Node
	connections *fbx.Node
}

func NewFBXBuilder(filename string, exlog *utils.Logger) *FBXBuilder {
	f := &FBXBuilder{
		c:           make(map[string]interface{}),
		exlog:       exlog,
		lastId:      FIRST_OBJECT_ID,
		f:           fbx.NewFBX(FBX_VERSION),
		definitions: bfbx73.Definitions(),
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}

	// y up, z front, x right: same axes as model space
	axes := bfbx73.Properties70().AddNodes(
		bfbx73.P("UpAxis", "int", "Integer", "", int32(1)),
		bfbx73.P("UpAxisSign", "int", "Integer", "", int32(1)),
		bfbx73.P("FrontAxis", "int", "Integer", "", int32(2)),
		bfbx73.P("FrontAxisSign", "int", "Integer", "", int32(1)),
		bfbx73.P("CoordAxis", "int", "Integer", "", int32(0)),
		bfbx73.P("CoordAxisSign", "int", "Integer", "", int32(1)),
		bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
	)
	f.Root().AddNodes(
		bfbx73.FBXHeaderExtension().AddNodes(
			bfbx73.FBXHeaderVersion(1003),
			bfbx73.FBXVersion(FBX_VERSION),
			bfbx73.Creator(FBX_CREATOR),
		),
		bfbx73.FileId(FBX_FILE_ID),
		bfbx73.CreationTime(FBX_CREATION_TIME),
		bfbx73.Creator(FBX_CREATOR),
		bfbx73.GlobalSettings().AddNodes(bfbx73.Version(1000), axes),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(f.GenerateId(), filepath.Base(filename), "Scene").AddNodes(
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		f.definitions,
		f.objects,
		f.connections,
	)
	return f
}

// fillDefinitions lists emitted object types with their counts
func (f *FBXBuilder) fillDefinitions() {
	counts := make(map[string]int32)
	for _, object := range f.objects.Nodes {
		counts[object.Name]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	total := int32(1)
	for _, n := range counts {
		total += n
	}
	f.definitions.Nodes = nil
	f.definitions.AddNodes(
		bfbx73.Version(100),
		bfbx73.Count(total),
		bfbx73.ObjectType("GlobalSettings").AddNodes(bfbx73.Count(1)),
	)
	for _, name := range names {
		ot := bfbx73.ObjectType(name).AddNodes(bfbx73.Count(counts[name]))
		if tmpl, ok := templates[name]; ok {
			ot.AddNode(tmpl())
		}
		f.definitions.AddNode(ot)
		f.exlog.Printf("Definitions: %d of %s", counts[name], name)
	}
}

func (f *FBXBuilder) Root() *fbx.Node {
	return &f.f.Root
}

func (f *FBXBuilder) AddCache(id string, d interface{}) {
	f.c[id] = d
}

func (f *FBXBuilder) GetCached(id string) interface{} {
	return f.c[id]
}

func (f *FBXBuilder) GenerateId() int64 {
	f.lastId++
	return f.lastId
}

// Write goes through temporary file, fbx writer needs io.WriteSeeker
func (f *FBXBuilder) Write(w io.Writer) error {
	f.fillDefinitions()

	tempFile, err := ioutil.TempFile("", "mdlconv.*.fbx")
	if err != nil {
		return err
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if err := fbx.Write(tempFile, f.f); err != nil {
		return errors.Wrapf(err, "Writing fbx")
	}
	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tempFile)
	return err
}

func (f *FBXBuilder) AddObjects(nodes ...*fbx.Node)     { f.objects.AddNodes(nodes...) }
func (f *FBXBuilder) AddConnections(nodes ...*fbx.Node) { f.connections.AddNodes(nodes...) }
