package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	BoneLimitAuto = 0
	BoneLimit4    = 4
	BoneLimit8    = 8
)

type LodRange struct {
	Model   float32 `yaml:"model"`
	Texture float32 `yaml:"texture"`
}

// Profile holds export settings that are not part of the mesh data
type Profile struct {
	LodRanges             []LodRange `yaml:"lod_ranges"`
	BoneLimit             int        `yaml:"bone_limit"`
	WeightEpsilon         float32    `yaml:"weight_epsilon"`
	ShapeTolerance        float32    `yaml:"shape_tolerance"`
	ModelClipOutDistance  float32    `yaml:"model_clip_out_distance"`
	ShadowClipOutDistance float32    `yaml:"shadow_clip_out_distance"`
	Flags1                uint8      `yaml:"flags1"`
	Flags2                uint8      `yaml:"flags2"`
	HalfPositions         bool       `yaml:"half_positions"`
	IndexBufferStreaming  bool       `yaml:"index_buffer_streaming"`
	EdgeGeometry          bool       `yaml:"edge_geometry"`
	Encoding              string     `yaml:"encoding"`
}

func DefaultProfile() *Profile {
	return &Profile{
		LodRanges:      []LodRange{{Model: 0, Texture: 0}},
		BoneLimit:      BoneLimitAuto,
		WeightEpsilon:  0.001,
		ShapeTolerance: 1e-6,
		Encoding:       EncodingUTF8,
	}
}

func (p *Profile) Validate() error {
	switch p.BoneLimit {
	case BoneLimitAuto, BoneLimit4, BoneLimit8:
	default:
		return errors.Errorf("Invalid bone_limit %d, expected 0, 4 or 8", p.BoneLimit)
	}
	if len(p.LodRanges) > 3 {
		return errors.Errorf("Too many lod_ranges: %d > 3", len(p.LodRanges))
	}
	if p.WeightEpsilon < 0 || p.WeightEpsilon >= 1 {
		return errors.Errorf("weight_epsilon %v out of range [0, 1)", p.WeightEpsilon)
	}
	if p.ShapeTolerance < 0 {
		return errors.Errorf("shape_tolerance %v is negative", p.ShapeTolerance)
	}
	return nil
}

// LodRange returns ranges for lod, zero ranges when profile does not list it
func (p *Profile) LodRange(lod int) LodRange {
	if lod < len(p.LodRanges) {
		return p.LodRanges[lod]
	}
	return LodRange{}
}

// ParseProfile overlays yaml data on top of the default profile
func ParseProfile(data []byte) (*Profile, error) {
	p := DefaultProfile()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, errors.Wrapf(err, "Unmarshaling profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func LoadProfile(fileName string) (*Profile, error) {
	data, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read profile %q", fileName)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Profile %q", fileName)
	}
	return p, nil
}

// Apply switches process encoding to the one named by profile
func (p *Profile) Apply() error {
	if p.Encoding == "" {
		return nil
	}
	return SetEncoding(p.Encoding)
}
