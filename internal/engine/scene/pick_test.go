package scene

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-rig/internal/engine/camera"
	"github.com/Faultbox/midgard-rig/internal/engine/picking"
	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

func TestPickNearestModel(t *testing.T) {
	g := New(0)
	near := g.NewModelNode("near", slidingModel(t, "near"))
	far := g.NewModelNode("far", slidingModel(t, "far"))
	require.NoError(t, g.SetTransform(near, transform.FromPosition(math.Vec3{Z: -2})))
	require.NoError(t, g.SetTransform(far, transform.FromPosition(math.Vec3{Z: -6})))

	ray := picking.Ray{Origin: math.Vec3{}, Direction: math.Vec3{Z: -1}}

	_, _, ok := g.Pick(ray)
	assert.False(t, ok, "models without a pose are not pickable")

	require.NoError(t, g.Update(context.Background(), 0, camera.Input{}))

	id, dist, ok := g.Pick(ray)
	require.True(t, ok)
	assert.Equal(t, near, id)
	assert.InDelta(t, 2-PickPadding, dist, 1e-4)

	require.NoError(t, g.Remove(near))
	id, _, ok = g.Pick(ray)
	require.True(t, ok)
	assert.Equal(t, far, id)

	_, _, ok = g.Pick(picking.Ray{Direction: math.Vec3{Z: 1}})
	assert.False(t, ok)
}

func TestPickThroughCamera(t *testing.T) {
	g := New(0)
	m := g.NewModelNode("m", slidingModel(t, "m"))
	require.NoError(t, g.SetTransform(m, transform.FromPosition(math.Vec3{Y: 1})))
	cam := camera.NewArcball(math.Vec3{Y: 1}, 4)
	cam.Resize(200, 100)
	g.NewCameraNode("cam", cam)
	require.NoError(t, g.Update(context.Background(), 0, camera.Input{}))

	id, _, ok := g.Pick(picking.ScreenToRay(100, 50, 200, 100, cam))
	require.True(t, ok)
	assert.Equal(t, m, id)

	_, _, ok = g.Pick(picking.ScreenToRay(0, 0, 200, 100, cam))
	assert.False(t, ok, "corner ray misses the model")
}
