// Package transform provides the position/rotation/scale transform shared by
// scene nodes, cameras and models.
package transform

import "github.com/Faultbox/midgard-rig/pkg/math"

// Transform is a local TRS transform. Rotation holds Euler angles in radians.
// Derived matrices are computed on every call; nothing is cached, so a
// mutation is always visible on the next read.
type Transform struct {
	Position math.Vec3
	Rotation math.Vec3
	Scale    math.Vec3
}

// New returns an identity transform (zero position and rotation, unit scale).
func New() Transform {
	return Transform{Scale: math.Vec3One()}
}

// FromPosition returns an identity transform moved to position.
func FromPosition(position math.Vec3) Transform {
	t := New()
	t.Position = position
	return t
}

// SetUniformScale sets the same scale on every axis.
func (t *Transform) SetUniformScale(s float32) {
	t.Scale = math.Vec3{X: s, Y: s, Z: s}
}

// ModelMatrix returns Translate(Position) * Rotate(Rotation) * Scale(Scale).
func (t Transform) ModelMatrix() math.Mat4 {
	return math.TranslateVec(t.Position).
		Mul(math.RotateEuler(t.Rotation)).
		Mul(math.ScaleVec(t.Scale))
}

// NormalMatrix returns the inverse-transpose of the model matrix's
// upper-left 3x3 block.
func (t Transform) NormalMatrix() math.Mat3 {
	return t.ModelMatrix().NormalMatrix()
}

// Quaternion returns the rotation as a quaternion.
func (t Transform) Quaternion() math.Quat {
	return math.QuatFromEuler(t.Rotation)
}

// Forward returns the unit -Z axis rotated by Rotation.
func (t Transform) Forward() math.Vec3 {
	return math.RotateEuler(t.Rotation).TransformDirection(math.Vec3{Z: -1}).Normalize()
}

// Right returns the unit +X axis rotated by Rotation.
func (t Transform) Right() math.Vec3 {
	return math.RotateEuler(t.Rotation).TransformDirection(math.Vec3{X: 1}).Normalize()
}

// Up returns the unit +Y axis rotated by Rotation.
func (t Transform) Up() math.Vec3 {
	return math.RotateEuler(t.Rotation).TransformDirection(math.Vec3{Y: 1}).Normalize()
}
