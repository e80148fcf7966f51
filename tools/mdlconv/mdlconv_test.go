package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/mogaika/mdl_tools/config"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := ioutil.WriteFile(p, []byte(content), 0666); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadSkeleton(t *testing.T) {
	dir, err := ioutil.TempDir("", "mdlconv")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	p := writeTemp(t, dir, "skel.yaml", "names: [n_root, j_kosi]\nparents: [-1, 0]\n")
	sources, err := loadSkeleton(p)
	if err != nil {
		t.Fatalf("loadSkeleton: %v", err)
	}
	nodes, err := sources[0].Nodes()
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}
	if len(nodes) != 2 || nodes[1].Name != "j_kosi" || nodes[1].Parent != 0 {
		t.Errorf("nodes %+v", nodes)
	}

	if s, err := loadSkeleton(""); s != nil || err != nil {
		t.Errorf("empty skeleton file name: %v %v", s, err)
	}
}

func TestLoadProfile(t *testing.T) {
	dir, err := ioutil.TempDir("", "mdlconv")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	defer config.SetEncoding(config.EncodingUTF8)

	p := writeTemp(t, dir, "profile.yaml", "bone_limit: 4\n")
	profile, err := loadProfile(p, "")
	if err != nil {
		t.Fatalf("loadProfile: %v", err)
	}
	if profile.BoneLimit != config.BoneLimit4 {
		t.Errorf("bone limit %d", profile.BoneLimit)
	}
	if _, err := loadProfile("", "no such encoding"); err == nil {
		t.Errorf("bad encoding accepted")
	}
}
