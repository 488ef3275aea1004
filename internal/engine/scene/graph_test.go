package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

const tol = 1e-5

func TestAddAndChildren(t *testing.T) {
	g := New(0)
	root := g.NewNode("root", KindEmpty)
	a := g.NewNode("a", KindEmpty)
	b := g.NewNode("b", KindEmpty)

	require.NoError(t, g.Add(root, a))
	require.NoError(t, g.Add(root, b))

	assert.Equal(t, []NodeID{a, b}, g.Children(root))
	assert.Equal(t, root, g.Parent(a))
	assert.Equal(t, []NodeID{root}, g.Roots())
	assert.Equal(t, 3, g.Len())
}

func TestAddReparents(t *testing.T) {
	g := New(0)
	p1 := g.NewNode("p1", KindEmpty)
	p2 := g.NewNode("p2", KindEmpty)
	c := g.NewNode("c", KindEmpty)

	require.NoError(t, g.Add(p1, c))
	require.NoError(t, g.Add(p2, c))
	assert.Empty(t, g.Children(p1))
	assert.Equal(t, []NodeID{c}, g.Children(p2))

	require.NoError(t, g.Add(NoNode, c))
	assert.Equal(t, NoNode, g.Parent(c))
	assert.Empty(t, g.Children(p2))
}

func TestAddRejectsCycles(t *testing.T) {
	g := New(0)
	a := g.NewNode("a", KindEmpty)
	b := g.NewNode("b", KindEmpty)
	c := g.NewNode("c", KindEmpty)
	require.NoError(t, g.Add(a, b))
	require.NoError(t, g.Add(b, c))

	assert.ErrorIs(t, g.Add(a, a), ErrCycle)
	assert.ErrorIs(t, g.Add(c, a), ErrCycle)
	assert.Equal(t, NoNode, g.Parent(a), "failed add leaves the graph unchanged")

	assert.ErrorIs(t, g.Add(a, NodeID(42)), ErrInvalidNode)
	assert.ErrorIs(t, g.Add(NodeID(42), a), ErrInvalidNode)
}

func TestRemoveReparentsChildren(t *testing.T) {
	g := New(0)
	parent := g.NewNode("parent", KindEmpty)
	before := g.NewNode("before", KindEmpty)
	victim := g.NewNode("victim", KindEmpty)
	after := g.NewNode("after", KindEmpty)
	k1 := g.NewNode("k1", KindEmpty)
	k2 := g.NewNode("k2", KindEmpty)

	require.NoError(t, g.Add(parent, before))
	require.NoError(t, g.Add(parent, victim))
	require.NoError(t, g.Add(parent, after))
	require.NoError(t, g.Add(victim, k1))
	require.NoError(t, g.Add(victim, k2))

	require.NoError(t, g.Remove(victim))

	assert.Equal(t, []NodeID{before, k1, k2, after}, g.Children(parent))
	assert.Equal(t, parent, g.Parent(k1))
	assert.Equal(t, parent, g.Parent(k2))
	assert.Empty(t, g.Children(victim))
	assert.False(t, g.Valid(victim))
	assert.ErrorIs(t, g.Remove(victim), ErrInvalidNode)
}

func TestRemoveRootMakesChildrenRoots(t *testing.T) {
	g := New(0)
	root := g.NewNode("root", KindEmpty)
	c := g.NewNode("c", KindEmpty)
	require.NoError(t, g.Add(root, c))

	require.NoError(t, g.Remove(root))
	assert.Equal(t, []NodeID{c}, g.Roots())
}

func TestRemovedSlotIsReused(t *testing.T) {
	g := New(0)
	a := g.NewNode("a", KindEmpty)
	g.NewNode("b", KindEmpty)
	require.NoError(t, g.Remove(a))
	assert.Equal(t, 1, g.Len())

	reused := g.NewNode("c", KindEmpty)
	assert.Equal(t, a, reused)
	assert.Equal(t, "c", g.Name(reused))
	assert.Equal(t, NoNode, g.Parent(reused))
	assert.Equal(t, 2, g.Len())
}

func TestWorldTransform(t *testing.T) {
	g := New(0)
	root := g.NewNode("root", KindEmpty)
	child := g.NewNode("child", KindEmpty)
	require.NoError(t, g.Add(root, child))

	rt := transform.FromPosition(math.Vec3{X: 1})
	rt.Rotation = math.Vec3{Y: 0.5}
	rt.SetUniformScale(2)
	require.NoError(t, g.SetTransform(root, rt))
	require.NoError(t, g.SetTransform(child, transform.FromPosition(math.Vec3{Z: 3})))

	want := rt.ModelMatrix().Mul(math.Translate(0, 0, 3))
	got, ok := g.WorldTransform(child)
	require.True(t, ok)
	assert.True(t, got.ApproxEqual(want, tol))

	// No caching: an ancestor change shows up immediately.
	require.NoError(t, g.SetTransform(root, transform.New()))
	got, _ = g.WorldTransform(child)
	assert.True(t, got.ApproxEqual(math.Translate(0, 0, 3), tol))

	_, ok = g.WorldTransform(NodeID(99))
	assert.False(t, ok)
}

func TestWorldTransformsMatchesWalk(t *testing.T) {
	g := New(0)
	ids := make([]NodeID, 5)
	for i := range ids {
		ids[i] = g.NewNode("n", KindEmpty)
		tr := transform.FromPosition(math.Vec3{X: float32(i), Y: 1})
		tr.Rotation = math.Vec3{Z: 0.1 * float32(i)}
		require.NoError(t, g.SetTransform(ids[i], tr))
	}
	// 0 <- 1 <- 2, 0 <- 3, 4 alone; then 0 is removed.
	require.NoError(t, g.Add(ids[0], ids[1]))
	require.NoError(t, g.Add(ids[1], ids[2]))
	require.NoError(t, g.Add(ids[0], ids[3]))
	require.NoError(t, g.Remove(ids[0]))

	world := g.WorldTransforms()
	require.Len(t, world, 5)
	for _, id := range ids[1:] {
		want, ok := g.WorldTransform(id)
		require.True(t, ok)
		assert.True(t, world[id].ApproxEqual(want, tol), "node %d", id)
	}
	assert.Equal(t, math.Identity(), world[ids[0]])
}

func TestSetTransformInvalid(t *testing.T) {
	g := New(0)
	assert.ErrorIs(t, g.SetTransform(NodeID(0), transform.New()), ErrInvalidNode)

	_, ok := g.Transform(NodeID(0))
	assert.False(t, ok)
	assert.Nil(t, g.Children(NodeID(-3)))
	assert.Equal(t, NoNode, g.Parent(NodeID(7)))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "empty", KindEmpty.String())
	assert.Equal(t, "model", KindModel.String())
	assert.Equal(t, "camera", KindCamera.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
