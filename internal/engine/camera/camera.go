// Package camera provides the scene camera as a tagged variant over arcball,
// first-person and orthographic behaviour.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Kind selects camera behaviour.
type Kind int

const (
	// Arcball orbits Target at Distance.
	Arcball Kind = iota
	// FirstPerson flies freely from Transform.Position.
	FirstPerson
	// Orthographic projects without perspective from Transform.Position.
	Orthographic
)

func (k Kind) String() string {
	switch k {
	case Arcball:
		return "arcball"
	case FirstPerson:
		return "first-person"
	case Orthographic:
		return "orthographic"
	default:
		return "unknown"
	}
}

// pitchLimit keeps pitch short of straight up/down where LookAt degenerates.
const pitchLimit = math32.Pi/2 - 0.01

// Input is one frame of already-decoded user input.
type Input struct {
	// Drag is the pointer movement in pixels.
	Drag math.Vec2
	// Scroll is the wheel delta; positive zooms in.
	Scroll float32
	// Move holds right, up and forward axes in [-1, 1].
	Move math.Vec3
}

// Camera is a tagged variant; Kind decides which fields apply.
type Camera struct {
	Kind Kind

	// Transform holds position and rotation (X pitch, Y yaw) for
	// FirstPerson and Orthographic. Arcball uses only Rotation.
	Transform transform.Transform

	Aspect float32
	Near   float32
	Far    float32
	// FOV is the vertical field of view in radians.
	FOV float32

	// Arcball
	Target      math.Vec3
	Distance    float32
	MinDistance float32
	MaxDistance float32

	// Orthographic
	ViewSize    float32
	MinViewSize float32
	MaxViewSize float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
	MoveSpeed       float32
}

func base(kind Kind) *Camera {
	return &Camera{
		Kind:            kind,
		Transform:       transform.New(),
		Aspect:          1,
		Near:            0.1,
		Far:             100,
		FOV:             math32.Pi / 3,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		MoveSpeed:       2,
	}
}

// NewArcball creates an arcball camera orbiting target at distance.
func NewArcball(target math.Vec3, distance float32) *Camera {
	c := base(Arcball)
	c.Target = target
	c.Distance = distance
	c.MinDistance = 0.5
	c.MaxDistance = 50
	c.Transform.Rotation = math.Vec3{X: 0.5}
	return c
}

// NewFirstPerson creates a first-person camera at position looking down -Z.
func NewFirstPerson(position math.Vec3) *Camera {
	c := base(FirstPerson)
	c.Transform.Position = position
	return c
}

// NewOrthographic creates an orthographic camera at position showing
// viewSize units vertically.
func NewOrthographic(position math.Vec3, viewSize float32) *Camera {
	c := base(Orthographic)
	c.Transform.Position = position
	c.ViewSize = viewSize
	c.MinViewSize = 0.1
	c.MaxViewSize = 1000
	return c
}

// Resize updates the aspect ratio from a viewport size.
func (c *Camera) Resize(width, height float32) {
	if height > 0 {
		c.Aspect = width / height
	}
}

// Position returns the camera position in world space.
func (c *Camera) Position() math.Vec3 {
	if c.Kind != Arcball {
		return c.Transform.Position
	}
	pitch, yaw := c.Transform.Rotation.X, c.Transform.Rotation.Y
	sp, cp := math32.Sincos(pitch)
	sy, cy := math32.Sincos(yaw)
	return c.Target.Add(math.Vec3{
		X: c.Distance * cp * sy,
		Y: c.Distance * sp,
		Z: c.Distance * cp * cy,
	})
}

// ViewMatrix returns the world-to-view matrix.
func (c *Camera) ViewMatrix() math.Mat4 {
	if c.Kind == Arcball {
		pos := c.Position()
		center := c.Target
		if pos == center {
			center = center.Add(math.Vec3{Z: -1})
		}
		return math.LookAt(pos, center, math.Vec3{Y: 1})
	}
	camera := math.TranslateVec(c.Transform.Position).Mul(math.RotateEuler(c.Transform.Rotation))
	return camera.Inverse()
}

// ProjectionMatrix returns the view-to-clip matrix.
func (c *Camera) ProjectionMatrix() math.Mat4 {
	if c.Kind == Orthographic {
		halfH := c.ViewSize / 2
		halfW := halfH * c.Aspect
		return math.Ortho(-halfW, halfW, -halfH, halfH, c.Near, c.Far)
	}
	return math.Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

// Update applies one frame of input over dt seconds.
func (c *Camera) Update(dt float32, in Input) {
	switch c.Kind {
	case Arcball:
		c.updateArcball(in)
	case FirstPerson:
		c.updateFirstPerson(dt, in)
	case Orthographic:
		c.updateOrthographic(dt, in)
	}
}

func (c *Camera) updateArcball(in Input) {
	r := &c.Transform.Rotation
	r.Y -= in.Drag.X * c.DragSensitivity
	r.X = clamp(r.X+in.Drag.Y*c.DragSensitivity, -pitchLimit, pitchLimit)

	c.Distance -= in.Scroll * c.Distance * c.ZoomSensitivity
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

func (c *Camera) updateFirstPerson(dt float32, in Input) {
	r := &c.Transform.Rotation
	r.Y -= in.Drag.X * c.DragSensitivity
	r.X = clamp(r.X-in.Drag.Y*c.DragSensitivity, -pitchLimit, pitchLimit)

	step := c.MoveSpeed * dt
	move := c.Transform.Right().Scale(in.Move.X).
		Add(math.Vec3{Y: in.Move.Y}).
		Add(c.Transform.Forward().Scale(in.Move.Z))
	c.Transform.Position = c.Transform.Position.Add(move.Scale(step))
}

func (c *Camera) updateOrthographic(dt float32, in Input) {
	c.ViewSize -= in.Scroll * c.ViewSize * c.ZoomSensitivity
	c.ViewSize = clamp(c.ViewSize, c.MinViewSize, c.MaxViewSize)

	// Pan speed scales with the visible area for a consistent feel.
	step := c.MoveSpeed * dt * c.ViewSize
	pan := c.Transform.Right().Scale(in.Move.X).Add(c.Transform.Up().Scale(in.Move.Y))
	c.Transform.Position = c.Transform.Position.Add(pan.Scale(step))
}

// FitToBounds points an arcball camera at the centre of the box and backs
// off far enough to frame it.
func (c *Camera) FitToBounds(lo, hi math.Vec3) {
	c.Target = lo.Add(hi).Scale(0.5)

	radius := hi.Sub(lo).Length() / 2
	distance := radius / math32.Sin(c.FOV/2)
	if distance <= 0 {
		distance = c.MinDistance
	}
	c.Distance = clamp(distance, c.MinDistance, max(c.MaxDistance, distance))
	c.MaxDistance = max(c.MaxDistance, c.Distance)
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
