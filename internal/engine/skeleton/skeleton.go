// Package skeleton composes per-joint local poses into world-space joint
// matrices and the bind-relative pose used for skinning.
package skeleton

import (
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

var (
	// ErrNoJoints is returned for a skeleton without joints.
	ErrNoJoints = errors.New("skeleton has no joints")
	// ErrDuplicateJoint is returned when two joints share a path.
	ErrDuplicateJoint = errors.New("duplicate joint path")
	// ErrParentOutOfRange is returned for a parent index outside the joint list.
	ErrParentOutOfRange = errors.New("parent index out of range")
	// ErrParentCycle is returned when following parents revisits a joint.
	ErrParentCycle = errors.New("joint parent cycle")
	// ErrTransformCount is returned when transform arrays do not match the joint count.
	ErrTransformCount = errors.New("transform count does not match joint count")
	// ErrUnknownJoint is returned when a path names no joint of the skeleton.
	ErrUnknownJoint = errors.New("joint not in skeleton")
)

// NoParent marks a root joint in a parent index list.
const NoParent = -1

// PoseSource supplies local joint poses. *animation.Clip implements it.
// A false result means the source does not drive that joint.
type PoseSource interface {
	Pose(jointPath string, t float32) (math.Mat4, bool)
}

// Joint describes one joint at construction time.
type Joint struct {
	// Path is a slash-delimited hierarchical name, e.g. "root/hip/knee".
	Path string
	// Parent is an explicit parent index. Nil derives the parent from Path.
	Parent *int
	// Bind is the world-space transform at rigging time.
	Bind math.Mat4
	// Rest is the local transform used when no clip drives the joint.
	Rest math.Mat4
}

// Skeleton is an ordered joint list with a parent hierarchy. The rig data is
// immutable after New; the pose buffers are rewritten by every UpdatePose.
type Skeleton struct {
	paths       []string
	index       map[string]int
	parents     []int
	bind        []math.Mat4
	inverseBind []math.Mat4
	rest        []math.Mat4
	// Parents-first evaluation order.
	order []int

	localPose   []math.Mat4
	worldPose   []math.Mat4
	currentPose []math.Mat4
}

// New builds a skeleton from joints. Joints without an explicit parent get the
// joint whose path is their nearest existing ancestor path, or none.
func New(joints []Joint) (*Skeleton, error) {
	paths := make([]string, len(joints))
	bind := make([]math.Mat4, len(joints))
	rest := make([]math.Mat4, len(joints))
	for i, j := range joints {
		paths[i] = j.Path
		bind[i] = j.Bind
		rest[i] = j.Rest
	}

	index, err := indexPaths(paths)
	if err != nil {
		return nil, err
	}

	parents := make([]int, len(joints))
	for i, j := range joints {
		if j.Parent != nil {
			parents[i] = *j.Parent
			continue
		}
		parents[i] = deriveParent(paths[i], index)
	}

	return build(paths, index, parents, bind, rest)
}

// FromArrays builds a skeleton from parallel arrays as delivered by an asset
// loader. A nil parents slice derives every parent from the paths; otherwise
// NoParent marks roots.
func FromArrays(paths []string, parents []int, bind, rest []math.Mat4) (*Skeleton, error) {
	n := len(paths)
	if len(bind) != n || len(rest) != n || (parents != nil && len(parents) != n) {
		return nil, fmt.Errorf("%d joints, %d bind, %d rest, %d parents: %w",
			n, len(bind), len(rest), len(parents), ErrTransformCount)
	}

	index, err := indexPaths(paths)
	if err != nil {
		return nil, err
	}
	if parents == nil {
		parents = DeriveParents(paths)
	}

	return build(
		append([]string(nil), paths...),
		index,
		append([]int(nil), parents...),
		append([]math.Mat4(nil), bind...),
		append([]math.Mat4(nil), rest...),
	)
}

func build(paths []string, index map[string]int, parents []int, bind, rest []math.Mat4) (*Skeleton, error) {
	for i, p := range parents {
		switch {
		case p < 0:
			parents[i] = NoParent
		case p >= len(paths):
			return nil, fmt.Errorf("joint %q parent %d of %d: %w", paths[i], p, len(paths), ErrParentOutOfRange)
		case p == i:
			return nil, fmt.Errorf("joint %q is its own parent: %w", paths[i], ErrParentCycle)
		}
	}

	order, err := evaluationOrder(paths, parents)
	if err != nil {
		return nil, err
	}

	inverseBind := make([]math.Mat4, len(bind))
	roots := 0
	for i := range bind {
		inverseBind[i] = bind[i].Inverse()
		if parents[i] == NoParent {
			roots++
		}
	}

	s := &Skeleton{
		paths:       paths,
		index:       index,
		parents:     parents,
		bind:        bind,
		inverseBind: inverseBind,
		rest:        rest,
		order:       order,
	}
	s.allocPose()

	logger.Named("skeleton").Debug("skeleton built",
		zap.Int("joints", len(paths)),
		zap.Int("roots", roots))
	return s, nil
}

func (s *Skeleton) allocPose() {
	n := len(s.paths)
	s.localPose = make([]math.Mat4, n)
	s.worldPose = make([]math.Mat4, n)
	s.currentPose = make([]math.Mat4, n)
	for i := range s.currentPose {
		s.localPose[i] = s.rest[i]
		s.worldPose[i] = math.Identity()
		s.currentPose[i] = math.Identity()
	}
}

// Clone returns a skeleton sharing the immutable rig data with private pose
// buffers, so several models can animate the same rig independently.
func (s *Skeleton) Clone() *Skeleton {
	c := *s
	c.allocPose()
	return &c
}

func indexPaths(paths []string) (map[string]int, error) {
	if len(paths) == 0 {
		return nil, ErrNoJoints
	}
	index := make(map[string]int, len(paths))
	for i, p := range paths {
		if prev, ok := index[p]; ok {
			return nil, fmt.Errorf("joints %d and %d share path %q: %w", prev, i, p, ErrDuplicateJoint)
		}
		index[p] = i
	}
	return index, nil
}

// DeriveParents returns the parent index of every joint, found by walking up
// each path until an existing joint path matches. Roots get NoParent.
func DeriveParents(paths []string) []int {
	index := make(map[string]int, len(paths))
	for i, p := range paths {
		if _, ok := index[p]; !ok {
			index[p] = i
		}
	}
	parents := make([]int, len(paths))
	for i, p := range paths {
		parents[i] = deriveParent(p, index)
	}
	return parents
}

func deriveParent(jointPath string, index map[string]int) int {
	for p := path.Dir(jointPath); p != "." && p != "/" && p != jointPath; p = path.Dir(p) {
		if idx, ok := index[p]; ok {
			return idx
		}
	}
	return NoParent
}

// evaluationOrder sorts joints so every parent precedes its children. Input
// that is already parents-first keeps its index order.
func evaluationOrder(paths []string, parents []int) ([]int, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]uint8, len(parents))
	order := make([]int, 0, len(parents))

	var chain []int
	for i := range parents {
		chain = chain[:0]
		for j := i; j != NoParent && state[j] != done; j = parents[j] {
			if state[j] == visiting {
				return nil, fmt.Errorf("joint %q: %w", paths[j], ErrParentCycle)
			}
			state[j] = visiting
			chain = append(chain, j)
		}
		for k := len(chain) - 1; k >= 0; k-- {
			state[chain[k]] = done
			order = append(order, chain[k])
		}
	}
	return order, nil
}

// RestFromBind derives local rest transforms from world-space bind transforms:
// inverse(bind[parent]) * bind[i], or bind[i] for roots.
func RestFromBind(parents []int, bind []math.Mat4) []math.Mat4 {
	rest := make([]math.Mat4, len(bind))
	for i := range bind {
		if p := parents[i]; p >= 0 && p < len(bind) {
			rest[i] = bind[p].Inverse().Mul(bind[i])
		} else {
			rest[i] = bind[i]
		}
	}
	return rest
}

// UpdatePose evaluates src at playback time t and returns the skinning pose,
// one matrix per joint in joint order:
//
//	local[i]   = src.Pose(path[i], t), or rest[i] when src does not drive it
//	world[i]   = world[parent[i]] * local[i]
//	current[i] = world[i] * inverse(bind[i])
//
// A nil src yields the rest pose. The returned slice is owned by the skeleton
// and overwritten by the next call.
func (s *Skeleton) UpdatePose(src PoseSource, t float32) []math.Mat4 {
	for _, i := range s.order {
		local := s.rest[i]
		if src != nil {
			if pose, ok := src.Pose(s.paths[i], t); ok {
				local = pose
			}
		}
		s.localPose[i] = local

		if p := s.parents[i]; p != NoParent {
			s.worldPose[i] = s.worldPose[p].Mul(local)
		} else {
			s.worldPose[i] = local
		}
		s.currentPose[i] = s.worldPose[i].Mul(s.inverseBind[i])
	}
	return s.currentPose
}

// Len returns the number of joints.
func (s *Skeleton) Len() int { return len(s.paths) }

// Paths returns a copy of the joint paths in joint order.
func (s *Skeleton) Paths() []string { return append([]string(nil), s.paths...) }

// Path returns the path of joint i.
func (s *Skeleton) Path(i int) string { return s.paths[i] }

// Index returns the joint index for a path.
func (s *Skeleton) Index(jointPath string) (int, bool) {
	i, ok := s.index[jointPath]
	return i, ok
}

// MapJointPaths returns the joint index of every path in paths.
func (s *Skeleton) MapJointPaths(paths []string) ([]int, error) {
	m := make([]int, len(paths))
	for i, p := range paths {
		idx, ok := s.index[p]
		if !ok {
			return nil, fmt.Errorf("joint %d %q: %w", i, p, ErrUnknownJoint)
		}
		m[i] = idx
	}
	return m, nil
}

// Parent returns the parent index of joint i, or NoParent.
func (s *Skeleton) Parent(i int) int { return s.parents[i] }

// Parents returns a copy of the parent index list.
func (s *Skeleton) Parents() []int { return append([]int(nil), s.parents...) }

// Bind returns the world-space bind transform of joint i.
func (s *Skeleton) Bind(i int) math.Mat4 { return s.bind[i] }

// Rest returns the local rest transform of joint i.
func (s *Skeleton) Rest(i int) math.Mat4 { return s.rest[i] }

// CurrentPose returns the pose computed by the last UpdatePose.
func (s *Skeleton) CurrentPose() []math.Mat4 { return s.currentPose }

// LocalPose returns the local joint transforms used by the last UpdatePose.
func (s *Skeleton) LocalPose() []math.Mat4 { return s.localPose }

// WorldPose returns the model-space joint transforms from the last UpdatePose.
func (s *Skeleton) WorldPose() []math.Mat4 { return s.worldPose }
