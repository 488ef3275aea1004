package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-rig/internal/engine/animation"
	"github.com/Faultbox/midgard-rig/internal/engine/skeleton"
	"github.com/Faultbox/midgard-rig/internal/engine/skin"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

const tol = 1e-5

func armSkeleton(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	paths := []string{"root", "root/arm"}
	bind := []math.Mat4{math.Identity(), math.Translate(0, 1, 0)}
	parents := skeleton.DeriveParents(paths)
	s, err := skeleton.FromArrays(paths, parents, bind, skeleton.RestFromBind(parents, bind))
	require.NoError(t, err)
	return s
}

func slideClip(t *testing.T) *animation.Clip {
	t.Helper()
	tr, err := animation.NewVec3Track([]animation.Keyframe[math.Vec3]{
		{Time: 0, Value: math.Vec3{}},
		{Time: 1, Value: math.Vec3{X: 1}},
	})
	require.NoError(t, err)
	return animation.NewClip("slide", 1, map[string]animation.JointTracks{
		"root": {Translation: tr},
	})
}

func newArmModel(t *testing.T, framesInFlight int) (*Model, *animation.Clip) {
	t.Helper()
	clip := slideClip(t)
	m, err := New("arm", armSkeleton(t), []*animation.Clip{clip},
		[]*skin.Skin{skin.New("body", []string{"root/arm", "root"})}, framesInFlight)
	require.NoError(t, err)
	return m, clip
}

func TestUpdateWritesPaletteSnapshot(t *testing.T) {
	m, _ := newArmModel(t, 3)
	require.NoError(t, m.Play("slide"))

	require.NoError(t, m.Update(0.5))
	assert.Equal(t, uint64(1), m.Frame())

	palette, ok := m.Palette("body", 0)
	require.True(t, ok)
	require.Len(t, palette, 2)
	for i, p := range palette {
		assert.True(t, p.ApproxEqual(math.Translate(0.5, 0, 0), tol), "palette %d: %v", i, p)
	}

	_, ok = m.Palette("head", 0)
	assert.False(t, ok)
}

func TestRestPoseWithoutClip(t *testing.T) {
	m, _ := newArmModel(t, 1)

	require.NoError(t, m.Update(0.5))
	palette, ok := m.Palette("body", 0)
	require.True(t, ok)
	for i, p := range palette {
		assert.True(t, p.ApproxEqual(math.Identity(), tol), "palette %d: %v", i, p)
	}
}

func TestFramesInFlight(t *testing.T) {
	m, _ := newArmModel(t, 2)
	require.NoError(t, m.Play("slide"))

	for range 3 {
		require.NoError(t, m.Update(0.25))
	}

	_, ok := m.Palette("body", 0)
	assert.False(t, ok, "frame 0 slot was reused by frame 2")

	p1, ok := m.Palette("body", 1)
	require.True(t, ok)
	p2, ok := m.Palette("body", 2)
	require.True(t, ok)
	assert.InDelta(t, 0.5, p1[0].Translation().X, tol)
	assert.InDelta(t, 0.75, p2[0].Translation().X, tol)
}

func TestPlayUnknownClip(t *testing.T) {
	m, _ := newArmModel(t, 1)

	err := m.Play("run")
	assert.ErrorIs(t, err, animation.ErrClipNotFound)
	assert.Nil(t, m.Player().Clip())
}

func TestSetSpeedUsesPrivateCopy(t *testing.T) {
	m, clip := newArmModel(t, 1)
	require.NoError(t, m.Play("slide"))

	m.SetSpeed(2)
	assert.Equal(t, float32(1), clip.Speed)

	require.NoError(t, m.Update(0.25))
	palette, _ := m.Palette("body", 0)
	assert.InDelta(t, 0.5, palette[1].Translation().X, tol)
}

func TestSetLoopFalseClamps(t *testing.T) {
	m, _ := newArmModel(t, 1)
	require.NoError(t, m.Play("slide"))
	m.SetLoop(false)

	require.NoError(t, m.Update(1.5))
	palette, _ := m.Palette("body", 0)
	assert.InDelta(t, 1, palette[1].Translation().X, tol)
	assert.True(t, m.Player().Finished())
}

func TestStopReturnsToRest(t *testing.T) {
	m, _ := newArmModel(t, 1)
	require.NoError(t, m.Play("slide"))
	require.NoError(t, m.Update(0.5))

	m.Stop()
	require.NoError(t, m.Update(0.5))
	palette, _ := m.Palette("body", 1)
	assert.True(t, palette[0].ApproxEqual(math.Identity(), tol))
}

func TestStaticModel(t *testing.T) {
	m, err := New("rock", nil, nil, nil, 2)
	require.NoError(t, err)

	require.NoError(t, m.Update(0.1))
	assert.Equal(t, uint64(0), m.Frame())
	assert.Nil(t, m.Skeleton())

	_, ok := m.JointBounds()
	assert.False(t, ok)
}

func TestNewErrors(t *testing.T) {
	clip := slideClip(t)

	_, err := New("ghost", nil, nil, []*skin.Skin{skin.New("body", []string{"root"})}, 1)
	assert.ErrorIs(t, err, ErrNoSkeleton)

	_, err = New("dup", armSkeleton(t), []*animation.Clip{clip, clip}, nil, 1)
	assert.ErrorIs(t, err, ErrDuplicateClip)

	_, err = New("tail", armSkeleton(t), nil, []*skin.Skin{skin.New("body", []string{"root/tail"})}, 1)
	assert.ErrorIs(t, err, skin.ErrUnknownJoint)

	_, err = New("twins", armSkeleton(t), nil, []*skin.Skin{
		skin.New("body", []string{"root"}),
		skin.New("body", []string{"root/arm"}),
	}, 1)
	assert.ErrorIs(t, err, ErrDuplicateMesh)
}

func TestNewLeavesInputsUntouched(t *testing.T) {
	skel := armSkeleton(t)
	body := skin.New("body", []string{"root"})

	m, err := New("arm", skel, nil, []*skin.Skin{body}, 1)
	require.NoError(t, err)

	assert.NotSame(t, skel, m.Skeleton())
	assert.NotSame(t, body, m.Skins()[0])
	assert.False(t, body.Bound())
	assert.True(t, m.Skins()[0].Bound())
}

func TestModelsShareSkeletonConcurrently(t *testing.T) {
	skel := armSkeleton(t)
	clip := slideClip(t)
	body := skin.New("body", []string{"root/arm", "root"})

	a, err := New("a", skel, []*animation.Clip{clip}, []*skin.Skin{body}, 1)
	require.NoError(t, err)
	b, err := New("b", skel, []*animation.Clip{clip}, []*skin.Skin{body}, 1)
	require.NoError(t, err)
	require.NoError(t, a.Play("slide"))

	var wg sync.WaitGroup
	for _, m := range []*Model{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				assert.NoError(t, m.Update(0.01))
			}
		}()
	}
	wg.Wait()

	pa, _ := a.Palette("body", a.Frame()-1)
	pb, _ := b.Palette("body", b.Frame()-1)
	assert.InDelta(t, 0.5, pa[0].Translation().X, 1e-4)
	for i, p := range pb {
		assert.True(t, p.ApproxEqual(math.Identity(), tol), "rest palette %d: %v", i, p)
	}
}

func TestModelsAreIndependent(t *testing.T) {
	skel := armSkeleton(t)
	clip := slideClip(t)

	a, err := New("a", skel, []*animation.Clip{clip}, []*skin.Skin{skin.New("body", []string{"root"})}, 1)
	require.NoError(t, err)
	b, err := New("b", skel.Clone(), []*animation.Clip{clip}, []*skin.Skin{skin.New("body", []string{"root"})}, 1)
	require.NoError(t, err)

	require.NoError(t, a.Play("slide"))
	require.NoError(t, a.Update(0.5))
	require.NoError(t, b.Update(0.5))

	pa, _ := a.Palette("body", 0)
	pb, _ := b.Palette("body", 0)
	assert.InDelta(t, 0.5, pa[0].Translation().X, tol)
	assert.True(t, pb[0].ApproxEqual(math.Identity(), tol))
}

func TestJointBounds(t *testing.T) {
	m, _ := newArmModel(t, 1)
	require.NoError(t, m.Play("slide"))

	_, ok := m.JointBounds()
	assert.False(t, ok, "no pose before the first update")

	require.NoError(t, m.Update(0.5))
	b, ok := m.JointBounds()
	require.True(t, ok)
	assert.True(t, b.Min.ApproxEqual(math.Vec3{X: 0.5}, tol), "min %v", b.Min)
	assert.True(t, b.Max.ApproxEqual(math.Vec3{X: 0.5, Y: 1}, tol), "max %v", b.Max)
	assert.True(t, b.Center().ApproxEqual(math.Vec3{X: 0.5, Y: 0.5}, tol))
	assert.True(t, b.Size().ApproxEqual(math.Vec3{Y: 1}, tol))
}

func TestClipLookup(t *testing.T) {
	m, clip := newArmModel(t, 1)

	got, ok := m.Clip("slide")
	require.True(t, ok)
	assert.Same(t, clip, got)
	assert.Equal(t, []string{"slide"}, m.ClipNames())
	assert.Len(t, m.Skins(), 1)
}

func TestBoundsTransform(t *testing.T) {
	b := Bounds{Min: math.Vec3{X: -1, Y: 0, Z: -1}, Max: math.Vec3{X: 1, Y: 2, Z: 1}}

	moved := b.Transform(math.Translate(5, 0, 0))
	assert.True(t, moved.Min.ApproxEqual(math.Vec3{X: 4, Y: 0, Z: -1}, tol))
	assert.True(t, moved.Max.ApproxEqual(math.Vec3{X: 6, Y: 2, Z: 1}, tol))

	// A quarter turn about Z swaps the X and Y extents.
	turned := b.Transform(math.RotateZ(1.5707964))
	assert.True(t, turned.Min.ApproxEqual(math.Vec3{X: -2, Y: -1, Z: -1}, tol), "min %v", turned.Min)
	assert.True(t, turned.Max.ApproxEqual(math.Vec3{X: 0, Y: 1, Z: 1}, tol), "max %v", turned.Max)

	padded := b.Expand(0.5)
	assert.Equal(t, math.Vec3{X: -1.5, Y: -0.5, Z: -1.5}, padded.Min)
	assert.Equal(t, math.Vec3{X: 1.5, Y: 2.5, Z: 1.5}, padded.Max)
}
