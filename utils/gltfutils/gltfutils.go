package gltfutils

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// extras keys shared by writer and reader
const (
	EXTRAS_LOD          = "lod"
	EXTRAS_ATTRIBUTES   = "attributes"
	EXTRAS_TARGET_NAMES = "targetNames"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// ExportBinary puts every root node into the default scene and writes glb
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	}
	child := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	doc.Scenes[0].Nodes = doc.Scenes[0].Nodes[:0]
	for iNode := range doc.Nodes {
		if !child[uint32(iNode)] {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(iNode))
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

// Decode reads gltf or glb document from r
func Decode(r io.Reader) (*gltf.Document, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrapf(err, "Decoding gltf")
	}
	return doc, nil
}

// Open loads document from file, external buffers are resolved relative to it
func Open(fileName string) (*gltf.Document, error) {
	if _, err := os.Stat(fileName); err != nil {
		return nil, err
	}
	doc, err := gltf.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Opening %q", fileName)
	}
	return doc, nil
}

func stringList(v interface{}) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []interface{}:
		r := make([]string, 0, len(l))
		for _, s := range l {
			if str, ok := s.(string); ok {
				r = append(r, str)
			}
		}
		return r
	}
	return nil
}

func intValue(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func extrasMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return nil
}
