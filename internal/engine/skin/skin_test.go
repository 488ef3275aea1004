package skin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-rig/internal/engine/skeleton"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

func testSkeleton(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	paths := []string{"root", "root/hip", "root/hip/knee", "root/arm"}
	bind := make([]math.Mat4, len(paths))
	for i := range bind {
		bind[i] = math.Translate(0, float32(i), 0)
	}
	parents := skeleton.DeriveParents(paths)
	s, err := skeleton.FromArrays(paths, parents, bind, skeleton.RestFromBind(parents, bind))
	require.NoError(t, err)
	return s
}

func TestBuildSkinToSkeletonMap(t *testing.T) {
	m, err := BuildSkinToSkeletonMap(
		[]string{"root/arm", "root", "root/hip/knee"},
		[]string{"root", "root/hip", "root/hip/knee", "root/arm"},
	)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0, 2}, m)
}

func TestBuildSkinToSkeletonMapUnknownJoint(t *testing.T) {
	_, err := BuildSkinToSkeletonMap([]string{"root", "root/tail"}, []string{"root"})
	assert.ErrorIs(t, err, ErrUnknownJoint)
	assert.Contains(t, err.Error(), "root/tail")
}

func TestBindUnknownJoint(t *testing.T) {
	s := New("body", []string{"root", "root/wing"})
	err := s.Bind(testSkeleton(t))
	assert.ErrorIs(t, err, ErrUnknownJoint)
	assert.False(t, s.Bound())
}

func TestCloneIsUnbound(t *testing.T) {
	s := New("body", []string{"root", "root/arm"})
	require.NoError(t, s.Bind(testSkeleton(t)))

	c := s.Clone()
	assert.False(t, c.Bound())
	assert.Equal(t, s.Mesh, c.Mesh)
	assert.Equal(t, s.JointPaths(), c.JointPaths())
}

func TestUpdatePaletteBeforeBind(t *testing.T) {
	s := New("body", []string{"root"})
	_, err := s.UpdatePalette([]math.Mat4{math.Identity()})
	assert.ErrorIs(t, err, ErrNotBound)
}

func TestUpdatePalettePermutation(t *testing.T) {
	skel := testSkeleton(t)
	s := New("body", []string{"root/hip/knee", "root/arm", "root", "root/hip"})
	require.NoError(t, s.Bind(skel))
	assert.Equal(t, 4, s.Len())

	pose := make([]math.Mat4, skel.Len())
	for i := range pose {
		pose[i] = math.Translate(float32(i), float32(10*i), 0)
	}

	palette, err := s.UpdatePalette(pose)
	require.NoError(t, err)

	m := s.SkeletonMap()
	require.Len(t, palette, 4)
	for i := range palette {
		assert.Equal(t, pose[m[i]], palette[i], "mesh joint %d", i)
	}
	assert.Equal(t, pose[2], palette[0])
}

func TestUpdatePaletteFromSkeleton(t *testing.T) {
	skel := testSkeleton(t)
	s := New("body", []string{"root/arm", "root"})
	require.NoError(t, s.Bind(skel))

	palette, err := s.UpdatePalette(skel.UpdatePose(nil, 0))
	require.NoError(t, err)
	for _, m := range palette {
		assert.True(t, m.ApproxEqual(math.Identity(), 1e-6))
	}
}

func TestUpdatePaletteShortPose(t *testing.T) {
	s := New("body", []string{"root/arm"})
	require.NoError(t, s.Bind(testSkeleton(t)))

	_, err := s.UpdatePalette([]math.Mat4{math.Identity()})
	assert.ErrorIs(t, err, ErrPoseSize)
}

func TestSharedSkeletonTwoMeshes(t *testing.T) {
	skel := testSkeleton(t)
	legs := New("legs", []string{"root/hip", "root/hip/knee"})
	arms := New("arms", []string{"root/arm"})
	require.NoError(t, legs.Bind(skel))
	require.NoError(t, arms.Bind(skel))

	pose := skel.UpdatePose(nil, 0)
	lp, err := legs.UpdatePalette(pose)
	require.NoError(t, err)
	ap, err := arms.UpdatePalette(pose)
	require.NoError(t, err)

	assert.Len(t, lp, 2)
	assert.Len(t, ap, 1)
}

func TestPaletteRing(t *testing.T) {
	r := NewPaletteRing(2, 3)
	assert.Equal(t, 3, r.Len())

	_, ok := r.Slot(0)
	assert.False(t, ok)

	for frame := uint64(0); frame < 5; frame++ {
		p := []math.Mat4{math.Translate(float32(frame), 0, 0), math.Identity()}
		got := r.Write(frame, p)
		assert.Equal(t, p, got)
	}

	// Frames 2, 3 and 4 are in flight; 0 and 1 were overwritten.
	for frame := uint64(2); frame < 5; frame++ {
		slot, ok := r.Slot(frame)
		require.True(t, ok, "frame %d", frame)
		assert.Equal(t, float32(frame), slot[0].Translation().X)
	}
	_, ok = r.Slot(1)
	assert.False(t, ok)
}

func TestPaletteRingSnapshotIsCopy(t *testing.T) {
	r := NewPaletteRing(1, 0)
	assert.Equal(t, 1, r.Len())

	p := []math.Mat4{math.Identity()}
	r.Write(7, p)
	p[0] = math.Translate(1, 1, 1)

	slot, ok := r.Slot(7)
	require.True(t, ok)
	assert.Equal(t, math.Identity(), slot[0])
}
