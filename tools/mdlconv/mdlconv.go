package main

import (
	"bytes"
	"flag"
	"io/ioutil"
	"log"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/mdl_tools/config"
	"github.com/mogaika/mdl_tools/convert"
	"github.com/mogaika/mdl_tools/geometry"
	"github.com/mogaika/mdl_tools/mdl"
	"github.com/mogaika/mdl_tools/utils"
)

// skeleton file is yaml mapper record with names and parents lists, root parent is -1
func loadSkeleton(fileName string) ([]geometry.BoneSource, error) {
	if fileName == "" {
		return nil, nil
	}
	data, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read skeleton")
	}
	var rec geometry.MapperRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, "Skeleton %q", fileName)
	}
	return []geometry.BoneSource{geometry.BoneFromMapper(rec)}, nil
}

func loadProfile(fileName, encoding string) (*config.Profile, error) {
	profile := config.DefaultProfile()
	if fileName != "" {
		var err error
		if profile, err = config.LoadProfile(fileName); err != nil {
			return nil, err
		}
	}
	if encoding != "" {
		profile.Encoding = encoding
	}
	return profile, profile.Apply()
}

func writeModel(m *mdl.Model, label, out string, exlog *utils.Logger) error {
	format, err := convert.Format(out)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	diag, err := convert.Export(m, label, format, &buf, exlog)
	if err != nil {
		return err
	}
	for _, d := range diag {
		log.Printf("[mdlconv] skipped %s", d)
	}
	return ioutil.WriteFile(out, buf.Bytes(), 0666)
}

func run(in, out, profileFile, skeletonFile, encoding string, dump bool, exlog *utils.Logger) error {
	profile, err := loadProfile(profileFile, encoding)
	if err != nil {
		return err
	}
	format, err := convert.Format(in)
	if err != nil {
		return err
	}
	label := convert.Label(in)

	var m *mdl.Model
	switch format {
	case convert.FORMAT_MDL:
		data, err := ioutil.ReadFile(in)
		if err != nil {
			return err
		}
		if m, err = mdl.Parse(data); err != nil {
			return errors.Wrapf(err, "Parsing %q", in)
		}
	case convert.FORMAT_GLB:
		skeleton, err := loadSkeleton(skeletonFile)
		if err != nil {
			return err
		}
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()
		res, err := convert.FromGltf(f, skeleton, profile, exlog)
		if err != nil {
			return errors.Wrapf(err, "Building model from %q", in)
		}
		for _, w := range res.Report.Warnings() {
			log.Printf("[mdlconv] warning: %s", w)
		}
		m = res.Model
	default:
		return errors.Errorf("Cannot read %s files", format)
	}

	log.Printf("[mdlconv] %s:\n%s", in, m.Summary())
	if dump {
		os.Stdout.WriteString(utils.SDump(m.Header, m.MeshHeader, m.Lods, m.Meshes, m.Submeshes, m.Declarations))
	}
	if out == "" {
		return nil
	}
	if err := writeModel(m, label, out, exlog); err != nil {
		return errors.Wrapf(err, "Writing %q", out)
	}
	log.Printf("[mdlconv] Written %q", out)
	return nil
}

func main() {
	var in, out, profile, skeleton, encoding string
	var dump, verbose bool
	flag.StringVar(&in, "in", "", "Source file (.mdl, .glb or .gltf)")
	flag.StringVar(&out, "out", "", "Result file (.mdl, .glb or .fbx), summary only if empty")
	flag.StringVar(&profile, "profile", "", "Export profile yaml")
	flag.StringVar(&skeleton, "skeleton", "", "Skeleton yaml with names and parents lists")
	flag.StringVar(&encoding, "encoding", "", "Name table encoding override, for example \"Windows 1252\"")
	flag.BoolVar(&dump, "dump", false, "Dump parsed records")
	flag.BoolVar(&verbose, "v", false, "Trace export and import stages to stderr")
	flag.Parse()

	if in == "" {
		flag.PrintDefaults()
		return
	}

	var exlog *utils.Logger
	if verbose {
		exlog = utils.NewLogger(os.Stderr)
	}
	if err := run(in, out, profile, skeleton, encoding, dump, exlog); err != nil {
		log.Fatalf("[mdlconv] %v", err)
	}
}
