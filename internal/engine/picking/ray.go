// Package picking casts rays from the camera into the scene.
package picking

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-rig/internal/engine/camera"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Ray is a half-line in world space. Direction is unit length.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenToRay converts pixel coordinates to a world-space ray through the
// camera's near and far planes. (0, 0) is the top-left corner.
func ScreenToRay(x, y, width, height float32, cam *camera.Camera) Ray {
	ndcX := 2*x/width - 1
	ndcY := 1 - 2*y/height

	invViewProj := cam.ProjectionMatrix().Mul(cam.ViewMatrix()).Inverse()
	near := invViewProj.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: -1})
	far := invViewProj.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: 1})

	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// IntersectPlaneY intersects the ray with the horizontal plane y = planeY.
func (r Ray) IntersectPlaneY(planeY float32) (math.Vec3, bool) {
	if math32.Abs(r.Direction.Y) < 0.001 {
		return math.Vec3{}, false
	}
	t := (planeY - r.Origin.Y) / r.Direction.Y
	if t < 0 {
		return math.Vec3{}, false
	}
	return r.At(t), true
}

// IntersectBounds runs the slab test against an axis-aligned box. It returns
// the entry distance, or the exit distance when the origin is inside.
func (r Ray) IntersectBounds(b model.Bounds) (float32, bool) {
	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo := b.Min.Array()
	hi := b.Max.Array()

	tmin := math32.Inf(-1)
	tmax := math32.Inf(1)
	for axis := range 3 {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}
