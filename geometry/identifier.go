package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mogaika/mdl_tools/mdl"
)

// Identifier places source object into model, object name is "<label> <mesh>.<submesh>"
type Identifier struct {
	Label   string
	Mesh    int
	Submesh int
}

func (id Identifier) String() string {
	return FormatIdentifier(id.Label, id.Mesh, id.Submesh)
}

func FormatIdentifier(label string, mesh, submesh int) string {
	return fmt.Sprintf("%s %d.%d", label, mesh, submesh)
}

func ParseIdentifier(name string) (Identifier, error) {
	fail := func(reason string) (Identifier, error) {
		return Identifier{}, &mdl.MeshIdentifierError{Name: name, Reason: reason}
	}
	sep := strings.LastIndexByte(name, ' ')
	if sep < 0 {
		return fail("no space before mesh number")
	}
	label, tail := name[:sep], name[sep+1:]
	if strings.TrimSpace(label) == "" {
		return fail("empty label")
	}
	dot := strings.IndexByte(tail, '.')
	if dot < 0 {
		return fail("expected <mesh>.<submesh>")
	}
	mesh, err := strconv.ParseUint(tail[:dot], 10, 16)
	if err != nil {
		return fail(fmt.Sprintf("bad mesh number %q", tail[:dot]))
	}
	submesh, err := strconv.ParseUint(tail[dot+1:], 10, 16)
	if err != nil {
		return fail(fmt.Sprintf("bad submesh number %q", tail[dot+1:]))
	}
	return Identifier{Label: label, Mesh: int(mesh), Submesh: int(submesh)}, nil
}
