package skin

import "github.com/Faultbox/midgard-rig/pkg/math"

// PaletteRing keeps one palette snapshot per frame in flight, so the update
// pass can write frame N+1 while the renderer still reads frame N.
type PaletteRing struct {
	slots  [][]math.Mat4
	frames []uint64
	filled []bool
}

// NewPaletteRing allocates framesInFlight slots of joints matrices each.
// framesInFlight below 1 is treated as 1.
func NewPaletteRing(joints, framesInFlight int) *PaletteRing {
	framesInFlight = max(framesInFlight, 1)
	r := &PaletteRing{
		slots:  make([][]math.Mat4, framesInFlight),
		frames: make([]uint64, framesInFlight),
		filled: make([]bool, framesInFlight),
	}
	for i := range r.slots {
		r.slots[i] = make([]math.Mat4, joints)
	}
	return r
}

// Len returns the number of slots.
func (r *PaletteRing) Len() int { return len(r.slots) }

// Write copies palette into the slot for frame and returns that slot.
// Extra palette entries beyond the slot size are dropped.
func (r *PaletteRing) Write(frame uint64, palette []math.Mat4) []math.Mat4 {
	i := int(frame % uint64(len(r.slots)))
	copy(r.slots[i], palette)
	r.frames[i] = frame
	r.filled[i] = true
	return r.slots[i]
}

// Slot returns the snapshot written for frame. It reports false if the frame
// was never written or its slot has since been reused.
func (r *PaletteRing) Slot(frame uint64) ([]math.Mat4, bool) {
	i := int(frame % uint64(len(r.slots)))
	if !r.filled[i] || r.frames[i] != frame {
		return nil, false
	}
	return r.slots[i], true
}
