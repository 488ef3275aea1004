// Package skin maps a mesh's joint ordering onto a shared skeleton and
// produces the per-mesh joint matrix palette for vertex skinning.
package skin

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/engine/skeleton"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

var (
	// ErrUnknownJoint is returned when a mesh references a joint the skeleton lacks.
	ErrUnknownJoint = skeleton.ErrUnknownJoint
	// ErrNotBound is returned when a palette is requested before Bind.
	ErrNotBound = errors.New("skin is not bound to a skeleton")
	// ErrPoseSize is returned when a pose has fewer joints than the skin needs.
	ErrPoseSize = errors.New("pose is smaller than the skin's joint map")
)

// Skin is one mesh's joint list. Construction is two-phase: New records the
// joint paths, Bind resolves them against a skeleton and allocates the palette.
type Skin struct {
	Mesh string

	jointPaths     []string
	skinToSkeleton []int
	palette        []math.Mat4
	// Highest skeleton index in skinToSkeleton, plus one.
	required int
}

// New creates an unbound skin for mesh.
func New(mesh string, jointPaths []string) *Skin {
	return &Skin{
		Mesh:       mesh,
		jointPaths: append([]string(nil), jointPaths...),
	}
}

// Clone returns an unbound copy of s with its own palette.
func (s *Skin) Clone() *Skin {
	return New(s.Mesh, s.jointPaths)
}

// BuildSkinToSkeletonMap returns, for each skin joint path, its index in
// skeletonJointPaths.
func BuildSkinToSkeletonMap(skinJointPaths, skeletonJointPaths []string) ([]int, error) {
	index := make(map[string]int, len(skeletonJointPaths))
	for i, p := range skeletonJointPaths {
		if _, ok := index[p]; !ok {
			index[p] = i
		}
	}

	m := make([]int, len(skinJointPaths))
	for i, p := range skinJointPaths {
		idx, ok := index[p]
		if !ok {
			return nil, fmt.Errorf("skin joint %d %q: %w", i, p, ErrUnknownJoint)
		}
		m[i] = idx
	}
	return m, nil
}

// Bind resolves the skin's joints against skel. Binding again replaces the
// previous mapping.
func (s *Skin) Bind(skel *skeleton.Skeleton) error {
	m, err := skel.MapJointPaths(s.jointPaths)
	if err != nil {
		return fmt.Errorf("mesh %q: %w", s.Mesh, err)
	}

	required := 0
	for _, idx := range m {
		required = max(required, idx+1)
	}

	s.skinToSkeleton = m
	s.required = required
	s.palette = make([]math.Mat4, len(m))
	for i := range s.palette {
		s.palette[i] = math.Identity()
	}

	logger.Named("skin").Debug("skin bound",
		zap.String("mesh", s.Mesh),
		zap.Int("joints", len(m)),
		zap.Int("skeleton_joints", skel.Len()))
	return nil
}

// Bound reports whether Bind has succeeded.
func (s *Skin) Bound() bool { return s.skinToSkeleton != nil }

// UpdatePalette copies the skeleton pose into mesh joint order:
// palette[i] = pose[map[i]]. The returned slice is owned by the skin.
func (s *Skin) UpdatePalette(pose []math.Mat4) ([]math.Mat4, error) {
	if !s.Bound() {
		return nil, fmt.Errorf("mesh %q: %w", s.Mesh, ErrNotBound)
	}
	if len(pose) < s.required {
		return nil, fmt.Errorf("mesh %q needs %d joints, pose has %d: %w", s.Mesh, s.required, len(pose), ErrPoseSize)
	}
	for i, idx := range s.skinToSkeleton {
		s.palette[i] = pose[idx]
	}
	return s.palette, nil
}

// Palette returns the palette from the last UpdatePalette.
func (s *Skin) Palette() []math.Mat4 { return s.palette }

// JointPaths returns a copy of the mesh's joint paths.
func (s *Skin) JointPaths() []string { return append([]string(nil), s.jointPaths...) }

// SkeletonMap returns a copy of the skin-to-skeleton index map.
func (s *Skin) SkeletonMap() []int { return append([]int(nil), s.skinToSkeleton...) }

// Len returns the number of joints the mesh references.
func (s *Skin) Len() int { return len(s.jointPaths) }
