// Package convert joins model codec with interchange formats
package convert

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/mdl_tools/config"
	"github.com/mogaika/mdl_tools/geometry"
	"github.com/mogaika/mdl_tools/mdl"
	"github.com/mogaika/mdl_tools/mdl/exporter"
	"github.com/mogaika/mdl_tools/mdl/importer"
	"github.com/mogaika/mdl_tools/utils"
	"github.com/mogaika/mdl_tools/utils/fbxbuilder"
	"github.com/mogaika/mdl_tools/utils/gltfutils"
)

const (
	FORMAT_GLB = "glb"
	FORMAT_FBX = "fbx"
	FORMAT_MDL = "mdl"
)

// Label is file name without directory and extension, used as mesh identifier label
func Label(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Format guesses interchange format from file extension
func Format(fileName string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")); ext {
	case "glb", "gltf":
		return FORMAT_GLB, nil
	case FORMAT_FBX, FORMAT_MDL:
		return ext, nil
	default:
		return "", errors.Errorf("Unknown format of %q", fileName)
	}
}

// ToGltf writes every submesh of model into binary gltf
func ToGltf(m *mdl.Model, label string, w io.Writer, exlog *utils.Logger) (importer.Diagnostics, error) {
	gw := gltfutils.NewWriter()
	diag, err := importer.Import(m, label, gw, exlog)
	if err != nil {
		return diag, err
	}
	return diag, gltfutils.ExportBinary(w, gw.Doc)
}

// ToFbx writes geometry and materials of model, weights and shapes are not carried
func ToFbx(m *mdl.Model, label string, w io.Writer, exlog *utils.Logger) (importer.Diagnostics, error) {
	f := fbxbuilder.NewFBXBuilder(label+".fbx", exlog)
	diag, err := importer.Import(m, label, fbxbuilder.NewMeshWriter(f), exlog)
	if err != nil {
		return diag, err
	}
	return diag, f.Write(w)
}

// Export writes model in requested interchange format
func Export(m *mdl.Model, label, format string, w io.Writer, exlog *utils.Logger) (importer.Diagnostics, error) {
	switch format {
	case FORMAT_GLB:
		return ToGltf(m, label, w, exlog)
	case FORMAT_FBX:
		return ToFbx(m, label, w, exlog)
	case FORMAT_MDL:
		data, err := m.Marshal()
		if err != nil {
			return nil, err
		}
		_, err = w.Write(data)
		return nil, err
	default:
		return nil, errors.Errorf("Unsupported export format %q", format)
	}
}

// FromGltf builds model from binary or json gltf document
func FromGltf(r io.Reader, skeleton []geometry.BoneSource, profile *config.Profile, exlog *utils.Logger) (*exporter.Result, error) {
	doc, err := gltfutils.Decode(r)
	if err != nil {
		return nil, err
	}
	lods, err := gltfutils.NewReader(doc).Read()
	if err != nil {
		return nil, errors.Wrapf(err, "Reading gltf meshes")
	}
	return exporter.Export(&exporter.Input{
		Lods:     lods,
		Skeleton: skeleton,
		Profile:  profile,
	}, exlog)
}

// Reencode passes every mesh of model through importer and exporter again,
// element ids are carried from source model
func Reencode(data []byte, profile *config.Profile, exlog *utils.Logger) (*exporter.Result, importer.Diagnostics, error) {
	m, err := mdl.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	c := &geometry.Collector{}
	diag, err := importer.Import(m, "mesh", c, exlog)
	if err != nil {
		return nil, diag, err
	}
	in := &exporter.Input{ElementIDs: m.ElementIDs, Profile: profile}
	for lod := range c.Lods {
		in.Lods = append(in.Lods, c.Sources(lod))
	}
	r, err := exporter.Export(in, exlog)
	return r, diag, err
}
