// Package animation provides keyframe tracks, animation clips and a playback
// cursor for skeletal animation.
package animation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-rig/pkg/math"
)

var (
	// ErrUnsortedKeyframes is returned when keyframe times decrease.
	ErrUnsortedKeyframes = errors.New("keyframe times are not sorted")
	// ErrClipNotFound is returned when a clip name is not known.
	ErrClipNotFound = errors.New("animation clip not found")
)

// Keyframe is a single time/value sample. Time is in seconds.
type Keyframe[V any] struct {
	Time  float32
	Value V
}

// Track is an ordered keyframe sequence for one channel. The zero value is
// an empty track; Evaluate on it reports no value.
type Track[V any] struct {
	keys   []Keyframe[V]
	interp func(a, b V, u float32) V
}

// NewVec3Track builds a translation or scale track. Vector values are
// interpolated component-wise.
func NewVec3Track(keys []Keyframe[math.Vec3]) (Track[math.Vec3], error) {
	return newTrack(keys, math.Vec3.Lerp)
}

// NewQuatTrack builds a rotation track. Values are normalized and
// interpolated with slerp.
func NewQuatTrack(keys []Keyframe[math.Quat]) (Track[math.Quat], error) {
	normalized := make([]Keyframe[math.Quat], len(keys))
	for i, k := range keys {
		normalized[i] = Keyframe[math.Quat]{Time: k.Time, Value: k.Value.Normalize()}
	}
	return newTrack(normalized, math.Quat.Slerp)
}

func newTrack[V any](keys []Keyframe[V], interp func(a, b V, u float32) V) (Track[V], error) {
	for i := 1; i < len(keys); i++ {
		if keys[i].Time < keys[i-1].Time {
			return Track[V]{}, fmt.Errorf("key %d at %gs precedes key %d at %gs: %w",
				i, keys[i].Time, i-1, keys[i-1].Time, ErrUnsortedKeyframes)
		}
	}
	return Track[V]{
		keys:   append([]Keyframe[V](nil), keys...),
		interp: interp,
	}, nil
}

// Len returns the number of keyframes.
func (tr Track[V]) Len() int {
	return len(tr.keys)
}

// Keys returns a copy of the keyframes.
func (tr Track[V]) Keys() []Keyframe[V] {
	return append([]Keyframe[V](nil), tr.keys...)
}

// LastTime returns the time of the final keyframe, or 0 for an empty track.
func (tr Track[V]) LastTime() float32 {
	if len(tr.keys) == 0 {
		return 0
	}
	return tr.keys[len(tr.keys)-1].Time
}

// Evaluate samples the track at time t.
//
// Times at or before the first key clamp to the first value. Times at or past
// the last key clamp to the last value, or wrap modulo the last key time when
// loop is set. The boolean is false only for an empty track, in which case
// the caller should fall back to its rest value.
func (tr Track[V]) Evaluate(t float32, loop bool) (V, bool) {
	var zero V
	n := len(tr.keys)
	if n == 0 {
		return zero, false
	}

	first, last := tr.keys[0], tr.keys[n-1]
	if t <= first.Time {
		return first.Value, true
	}
	if t >= last.Time {
		if !loop || last.Time <= 0 {
			return last.Value, true
		}
		t = math32.Mod(t, last.Time)
		if t <= first.Time {
			return first.Value, true
		}
	}

	// First key strictly after t; keys[next-1].Time <= t < keys[next].Time.
	next := sort.Search(n, func(i int) bool { return tr.keys[i].Time > t })
	prev := next - 1
	k0, k1 := tr.keys[prev], tr.keys[next]

	span := k1.Time - k0.Time
	if span <= 0 {
		return k1.Value, true
	}
	return tr.interp(k0.Value, k1.Value, (t-k0.Time)/span), true
}
