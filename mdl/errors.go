package mdl

import "fmt"

// FormatError is returned when decoded counts or offsets disagree with buffer contents
type FormatError struct {
	Section string
	Offset  int
	Reason  string
	Err     error
}

func (e *FormatError) Error() string {
	s := fmt.Sprintf("mdl format error in %s: %s", e.Section, e.Reason)
	if e.Offset >= 0 {
		s = fmt.Sprintf("mdl format error in %s at 0x%x: %s", e.Section, e.Offset, e.Reason)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *FormatError) Unwrap() error { return e.Err }

// MeshIdentifierError means object name is not "<label> <mesh>.<submesh>"
type MeshIdentifierError struct {
	Name   string
	Reason string
}

func (e *MeshIdentifierError) Error() string {
	return fmt.Sprintf("mesh %q: cannot parse identifier: %s", e.Name, e.Reason)
}

type MeshVertexLimitError struct {
	Lod   int
	Mesh  int
	Count int
	Limit int
}

func (e *MeshVertexLimitError) Error() string {
	return fmt.Sprintf("lod %d mesh %d: %d vertices exceed limit %d", e.Lod, e.Mesh, e.Count, e.Limit)
}

// MeshIndexLimitError is raised for whole mesh (Submesh == -1) or single submesh
type MeshIndexLimitError struct {
	Lod     int
	Mesh    int
	Submesh int
	Count   int
	Limit   int
}

func (e *MeshIndexLimitError) Error() string {
	if e.Submesh < 0 {
		return fmt.Sprintf("lod %d mesh %d: %d indices exceed limit %d", e.Lod, e.Mesh, e.Count, e.Limit)
	}
	return fmt.Sprintf("lod %d mesh %d submesh %d: %d indices exceed limit %d",
		e.Lod, e.Mesh, e.Submesh, e.Count, e.Limit)
}

type ShapeValueLimitError struct {
	Lod   int
	Mesh  int
	Count int
	Limit int
}

func (e *ShapeValueLimitError) Error() string {
	return fmt.Sprintf("lod %d mesh %d: model shape values %d exceed limit %d", e.Lod, e.Mesh, e.Count, e.Limit)
}

type MissingMaterialError struct {
	Mesh string
}

func (e *MissingMaterialError) Error() string {
	return fmt.Sprintf("mesh %q has no material", e.Mesh)
}

type BoneTableLimitError struct {
	Lod   int
	Count int
	Limit int
}

func (e *BoneTableLimitError) Error() string {
	return fmt.Sprintf("lod %d: %d bones exceed bone table limit %d", e.Lod, e.Count, e.Limit)
}

type AttributeLimitError struct {
	Count int
	Limit int
}

func (e *AttributeLimitError) Error() string {
	return fmt.Sprintf("%d attributes exceed limit %d", e.Count, e.Limit)
}

type LodLimitError struct {
	Count int
	Limit int
}

func (e *LodLimitError) Error() string {
	return fmt.Sprintf("%d lods exceed limit %d", e.Count, e.Limit)
}
