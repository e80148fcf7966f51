package web

import (
	"bytes"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/convert"
	"github.com/mogaika/mdl_tools/mdl"
	"github.com/mogaika/mdl_tools/status"
	"github.com/mogaika/mdl_tools/utils"
	"github.com/mogaika/mdl_tools/vfs"
	"github.com/mogaika/mdl_tools/webutils"
)

type ModelMeshInfo struct {
	Lod       int
	Vertices  int
	Indices   int
	Submeshes int
	Material  string
	Skinned   bool
}

type ModelInfo struct {
	Name       string
	Summary    string
	Lods       int
	Radius     float32
	Meshes     []ModelMeshInfo
	Materials  []string
	Bones      []string
	Attributes []string
	Shapes     []string
}

func newModelInfo(name string, m *mdl.Model) *ModelInfo {
	info := &ModelInfo{
		Name:       name,
		Summary:    m.Summary(),
		Lods:       m.LodCount(),
		Radius:     m.MeshHeader.Radius,
		Materials:  m.Materials,
		Bones:      m.Bones,
		Attributes: m.Attributes,
	}
	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		mi := ModelMeshInfo{
			Lod:       m.MeshLod(i),
			Vertices:  int(mesh.VertexCount),
			Indices:   int(mesh.IndexCount),
			Submeshes: int(mesh.SubmeshCount),
			Skinned:   mesh.Skinned(),
		}
		if int(mesh.MaterialIndex) < len(m.Materials) {
			mi.Material = m.Materials[mesh.MaterialIndex]
		}
		info.Meshes = append(info.Meshes, mi)
	}
	for _, s := range m.Shapes {
		info.Shapes = append(info.Shapes, s.Name)
	}
	return info
}

func loadModel(file string) (*mdl.Model, error) {
	data, err := vfs.ReadFile(ServerDirectory, file)
	if err != nil {
		return nil, err
	}
	m, err := mdl.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Parsing %q", file)
	}
	return m, nil
}

func HandlerAjaxModels(w http.ResponseWriter, r *http.Request) {
	if files, err := vfs.ListModels(ServerDirectory); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, files)
	}
}

func HandlerAjaxModel(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	m, err := loadModel(file)
	if err != nil {
		log.Printf("Error loading model: %v", err)
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, newModelInfo(file, m))
}

func HandlerDumpModel(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	m, err := loadModel(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	// vertex and index buffers are too big for readable dump
	dump := *m
	dump.VertexData = [mdl.LOD_MAX][]byte{}
	dump.IndexData = [mdl.LOD_MAX][]byte{}
	webutils.WriteText(w, m.Summary()+"\n"+utils.SDump(&dump))
}

func HandlerRawModel(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, err := vfs.ReadFile(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, bytes.NewReader(data), file)
}

func HandlerExportModel(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	format := mux.Vars(r)["format"]
	m, err := loadModel(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	label := convert.Label(file)

	var buf bytes.Buffer
	diag, err := convert.Export(m, label, format, &buf, nil)
	if err != nil {
		status.Error("Export of %s to %s failed: %v", file, format, err)
		webutils.WriteError(w, errors.Wrapf(err, "Exporting %q to %s", file, format))
		return
	}
	for _, d := range diag {
		log.Printf("[web] %s: %s", file, d)
	}
	status.Info("Exported %s to %s", file, format)
	webutils.WriteFile(w, &buf, label+"."+format)
}

type UploadResult struct {
	Model    *ModelInfo
	Warnings []string
}

// HandlerUploadModel builds model from uploaded gltf and stores it under file name
func HandlerUploadModel(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, _, err := webutils.ReadFormFile(w, r, "data")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	status.Progress(0, "Building %s", file)
	res, err := convert.FromGltf(bytes.NewReader(data), nil, ServerProfile, nil)
	if err != nil {
		status.Error("Building %s failed: %v", file, err)
		webutils.WriteError(w, errors.Wrapf(err, "Building %q", file))
		return
	}
	status.Progress(0.5, "Saving %s", file)
	if err := vfs.WriteFile(ServerDirectory, file, res.Data); err != nil {
		status.Error("Saving %s failed: %v", file, err)
		webutils.WriteError(w, err)
		return
	}
	warnings := res.Report.Warnings()
	for _, warn := range warnings {
		log.Printf("[web] %s: %s", file, warn)
	}
	status.Info("Built %s: %d meshes, %d warnings", file, len(res.Model.Meshes), len(warnings))
	webutils.WriteJson(w, &UploadResult{Model: newModelInfo(file, res.Model), Warnings: warnings})
}
