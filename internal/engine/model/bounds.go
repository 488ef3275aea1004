package model

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Bounds is an axis-aligned box in model space.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extents.
func (b Bounds) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// JointBounds returns the box around every joint origin in the last posed
// world transforms. Static models and models that have never been updated
// report false.
func (m *Model) JointBounds() (Bounds, bool) {
	if m.skeleton == nil || m.frame == 0 {
		return Bounds{}, false
	}

	inf := math32.Inf(1)
	b := Bounds{
		Min: math.Vec3{X: inf, Y: inf, Z: inf},
		Max: math.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
	for _, w := range m.skeleton.WorldPose() {
		p := w.Translation()
		b.Min = math.Vec3{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)}
		b.Max = math.Vec3{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)}
	}
	return b, true
}

// Transform returns the box enclosing all eight corners of b under m.
func (b Bounds) Transform(m math.Mat4) Bounds {
	out := Bounds{Min: m.TransformPoint(b.Min), Max: m.TransformPoint(b.Min)}
	for i := 1; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		p := m.TransformPoint(c)
		out.Min = math.Vec3{X: min(out.Min.X, p.X), Y: min(out.Min.Y, p.Y), Z: min(out.Min.Z, p.Z)}
		out.Max = math.Vec3{X: max(out.Max.X, p.X), Y: max(out.Max.Y, p.Y), Z: max(out.Max.Z, p.Z)}
	}
	return out
}

// Expand grows the box by pad on every side.
func (b Bounds) Expand(pad float32) Bounds {
	d := math.Vec3{X: pad, Y: pad, Z: pad}
	return Bounds{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}
