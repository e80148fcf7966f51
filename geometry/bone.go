package geometry

import (
	"github.com/pkg/errors"
)

type BoneSourceKind int

const (
	BONE_FROM_ARMATURE BoneSourceKind = iota
	BONE_FROM_MAPPER
)

// ArmatureBone is bone of live skeleton, parent is referenced by name
type ArmatureBone struct {
	Name   string
	Parent string
}

// MapperRecord is cached bone list with parent table, -1 is root
type MapperRecord struct {
	Names   []string
	Parents []int
}

// BoneSource is either armature or mapper, Nodes is the only place
// that looks at Kind
type BoneSource struct {
	Kind     BoneSourceKind
	Armature []ArmatureBone
	Mapper   MapperRecord
}

func BoneFromArmature(bones []ArmatureBone) BoneSource {
	return BoneSource{Kind: BONE_FROM_ARMATURE, Armature: bones}
}

func BoneFromMapper(m MapperRecord) BoneSource {
	return BoneSource{Kind: BONE_FROM_MAPPER, Mapper: m}
}

type BoneNode struct {
	Name   string
	Parent int
}

func (bs BoneSource) Nodes() ([]BoneNode, error) {
	var nodes []BoneNode
	switch bs.Kind {
	case BONE_FROM_ARMATURE:
		index := make(map[string]int, len(bs.Armature))
		for i, b := range bs.Armature {
			if _, dup := index[b.Name]; dup {
				return nil, errors.Errorf("Duplicated bone %q", b.Name)
			}
			index[b.Name] = i
		}
		nodes = make([]BoneNode, len(bs.Armature))
		for i, b := range bs.Armature {
			parent := -1
			if b.Parent != "" {
				p, ok := index[b.Parent]
				if !ok {
					return nil, errors.Errorf("Bone %q has unknown parent %q", b.Name, b.Parent)
				}
				parent = p
			}
			nodes[i] = BoneNode{Name: b.Name, Parent: parent}
		}
	case BONE_FROM_MAPPER:
		if len(bs.Mapper.Parents) != len(bs.Mapper.Names) {
			return nil, errors.Errorf("Mapper has %d names and %d parents", len(bs.Mapper.Names), len(bs.Mapper.Parents))
		}
		nodes = make([]BoneNode, len(bs.Mapper.Names))
		for i, name := range bs.Mapper.Names {
			p := bs.Mapper.Parents[i]
			if p < -1 || p >= len(nodes) {
				return nil, errors.Errorf("Bone %q parent index %d out of range", name, p)
			}
			nodes[i] = BoneNode{Name: name, Parent: p}
		}
	default:
		return nil, errors.Errorf("Unknown bone source kind %d", bs.Kind)
	}
	return nodes, checkCycles(nodes)
}

func checkCycles(nodes []BoneNode) error {
	for i := range nodes {
		steps := 0
		for p := nodes[i].Parent; p != -1; p = nodes[p].Parent {
			if steps++; steps > len(nodes) {
				return errors.Errorf("Bone %q is its own ancestor", nodes[i].Name)
			}
		}
	}
	return nil
}

// Skeleton merges nodes of several sources, first occurrence of name wins
type Skeleton struct {
	Nodes []BoneNode
	index map[string]int
}

func NewSkeleton(sources []BoneSource) (*Skeleton, error) {
	s := &Skeleton{index: make(map[string]int)}
	for i, src := range sources {
		nodes, err := src.Nodes()
		if err != nil {
			return nil, errors.Wrapf(err, "Bone source %d", i)
		}
		added := make([]int, 0, len(nodes))
		for j, n := range nodes {
			if _, exists := s.index[n.Name]; exists {
				continue
			}
			s.index[n.Name] = len(s.Nodes)
			s.Nodes = append(s.Nodes, BoneNode{Name: n.Name, Parent: -1})
			added = append(added, j)
		}
		for _, j := range added {
			if p := nodes[j].Parent; p >= 0 {
				s.Nodes[s.index[nodes[j].Name]].Parent = s.index[nodes[p].Name]
			}
		}
	}
	return s, nil
}

func (s *Skeleton) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}
