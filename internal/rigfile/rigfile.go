// Package rigfile reads YAML rig descriptions (skeleton, clips and skins)
// and builds animated models from them.
package rigfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-rig/internal/logger"
)

var (
	// ErrBadMatrix is returned for a matrix that does not have 16 elements.
	ErrBadMatrix = errors.New("matrix must have 16 elements")
	// ErrUnknownParent is returned for a parent path naming no joint.
	ErrUnknownParent = errors.New("parent joint not found")
	// ErrEmpty is returned for a document with no content.
	ErrEmpty = errors.New("empty rig file")
)

// File is the decoded form of a rig description.
type File struct {
	Name     string   `yaml:"name"`
	Skeleton Skeleton `yaml:"skeleton"`
	Clips    []Clip   `yaml:"clips"`
	Skins    []Skin   `yaml:"skins"`
}

// Skeleton lists joints in order.
type Skeleton struct {
	Joints []Joint `yaml:"joints"`
}

// Joint describes one joint. Rest defaults to the local transform implied by
// the bind poses; Parent defaults to the nearest ancestor path.
type Joint struct {
	Path   string `yaml:"path"`
	Bind   TRS    `yaml:"bind"`
	Rest   *TRS   `yaml:"rest,omitempty"`
	Parent string `yaml:"parent,omitempty"`
}

// TRS is a transform given either as components or as a column-major matrix.
// A matrix takes precedence over components.
type TRS struct {
	Translation *[3]float32 `yaml:"translation,omitempty"`
	Rotation    *[4]float32 `yaml:"rotation,omitempty"`
	Scale       *[3]float32 `yaml:"scale,omitempty"`
	Matrix      []float32   `yaml:"matrix,omitempty,flow"`
}

// Clip describes one animation clip. Speed defaults to 1 and Loop to true.
type Clip struct {
	Name     string           `yaml:"name"`
	Duration float32          `yaml:"duration"`
	Speed    *float32         `yaml:"speed,omitempty"`
	Loop     *bool            `yaml:"loop,omitempty"`
	Tracks   map[string]Track `yaml:"tracks"`
}

// Track holds one joint's channels.
type Track struct {
	Translation []Vec3Key `yaml:"translation,omitempty"`
	Rotation    []QuatKey `yaml:"rotation,omitempty"`
	Scale       []Vec3Key `yaml:"scale,omitempty"`
}

// Vec3Key is a translation or scale keyframe.
type Vec3Key struct {
	Time  float32    `yaml:"time"`
	Value [3]float32 `yaml:"value,flow"`
}

// QuatKey is a rotation keyframe with value [x, y, z, w].
type QuatKey struct {
	Time  float32    `yaml:"time"`
	Value [4]float32 `yaml:"value,flow"`
}

// Skin binds a mesh to skeleton joints by path.
type Skin struct {
	Mesh   string   `yaml:"mesh"`
	Joints []string `yaml:"joints,flow"`
}

// Parse decodes a rig description. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("decoding rig: %w", err)
	}
	return &f, nil
}

// Load reads and parses the rig file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading rig from %s: %w", path, err)
	}

	logger.Named("rigfile").Debug("rig loaded",
		zap.String("path", path),
		zap.String("name", f.Name),
		zap.Int("joints", len(f.Skeleton.Joints)),
		zap.Int("clips", len(f.Clips)),
		zap.Int("skins", len(f.Skins)))
	return f, nil
}
