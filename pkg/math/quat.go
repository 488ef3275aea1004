package math

import "github.com/chewxy/math32"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s, c := math32.Sincos(angle / 2)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: c,
	}
}

// QuatFromEuler creates a quaternion from Euler angles in radians.
// The result matches RotateEuler: rotation about Z is applied first,
// then Y, then X.
func QuatFromEuler(r Vec3) Quat {
	qx := QuatFromAxisAngle(Vec3{X: 1}, r.X)
	qy := QuatFromAxisAngle(Vec3{Y: 1}, r.Y)
	qz := QuatFromAxisAngle(Vec3{Z: 1}, r.Z)
	return qx.Mul(qy).Mul(qz)
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Neg returns -q, which encodes the same rotation.
func (q Quat) Neg() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
}

// Slerp performs spherical linear interpolation between two quaternions.
// t should be in range [0, 1]. The shorter arc is always taken.
func (q Quat) Slerp(other Quat, t float32) Quat {
	dot := q.Dot(other)

	if dot < 0 {
		other = other.Neg()
		dot = -dot
	}

	// Nearly parallel: sin(theta0) approaches zero, fall back to nlerp.
	if dot > 0.9995 {
		return Quat{
			X: q.X + t*(other.X-q.X),
			Y: q.Y + t*(other.Y-q.Y),
			Z: q.Z + t*(other.Z-q.Z),
			W: q.W + t*(other.W-q.W),
		}.Normalize()
	}

	theta0 := math32.Acos(dot)
	theta := theta0 * t
	sinTheta := math32.Sin(theta)
	sinTheta0 := math32.Sin(theta0)

	s0 := math32.Cos(theta) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return Quat{
		X: q.X*s0 + other.X*s1,
		Y: q.Y*s0 + other.Y*s1,
		Z: q.Z*s0 + other.Z*s1,
		W: q.W*s0 + other.W*s1,
	}
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// Mul multiplies two quaternions (combines rotations, other applied first).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// SameRotation reports whether q and other encode the same rotation
// within eps, treating q and -q as equal.
func (q Quat) SameRotation(other Quat, eps float32) bool {
	return 1-math32.Abs(q.Normalize().Dot(other.Normalize())) <= eps
}

// Array returns the components as [x, y, z, w].
func (q Quat) Array() [4]float32 {
	return [4]float32{q.X, q.Y, q.Z, q.W}
}

// QuatFromArray builds a quaternion from [x, y, z, w].
func QuatFromArray(a [4]float32) Quat {
	return Quat{X: a[0], Y: a[1], Z: a[2], W: a[3]}
}
