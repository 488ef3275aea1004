package animation

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// JointTracks holds the per-channel tracks that drive one joint.
// Any channel may be empty.
type JointTracks struct {
	Translation Track[math.Vec3]
	Rotation    Track[math.Quat]
	Scale       Track[math.Vec3]
}

// Empty reports whether no channel has keyframes.
func (j JointTracks) Empty() bool {
	return j.Translation.Len() == 0 && j.Rotation.Len() == 0 && j.Scale.Len() == 0
}

// LastTime returns the latest keyframe time across all channels.
func (j JointTracks) LastTime() float32 {
	return max(j.Translation.LastTime(), j.Rotation.LastTime(), j.Scale.LastTime())
}

// Clip is a named set of joint tracks keyed by joint path.
// Only Speed and Loop may change after construction.
type Clip struct {
	Name     string
	Duration float32
	Speed    float32
	Loop     bool

	tracks map[string]JointTracks
}

// NewClip creates a looping clip at normal speed. A non-positive duration is
// replaced with the latest keyframe time across all tracks.
func NewClip(name string, duration float32, tracks map[string]JointTracks) *Clip {
	c := &Clip{
		Name:     name,
		Duration: duration,
		Speed:    1,
		Loop:     true,
		tracks:   make(map[string]JointTracks, len(tracks)),
	}
	for path, jt := range tracks {
		if jt.Empty() {
			continue
		}
		c.tracks[path] = jt
		if duration <= 0 {
			c.Duration = max(c.Duration, jt.LastTime())
		}
	}

	logger.Debug("animation clip created",
		zap.String("clip", name),
		zap.Int("joints", len(c.tracks)),
		zap.Float32("duration", c.Duration))
	return c
}

// JointPaths returns the sorted paths of all animated joints.
func (c *Clip) JointPaths() []string {
	paths := make([]string, 0, len(c.tracks))
	for p := range c.tracks {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Tracks returns the tracks for a joint path.
func (c *Clip) Tracks(jointPath string) (JointTracks, bool) {
	jt, ok := c.tracks[jointPath]
	return jt, ok
}

// LocalTime maps playback time to clip time. Wrapping is left to each
// track, which loops on its own last key.
func (c *Clip) LocalTime(t float32) float32 {
	return t * c.Speed
}

// Pose returns Translate * Rotate * Scale for the joint at playback time t.
// Missing channels default to zero translation, identity rotation and unit
// scale. The boolean is false when the clip does not animate the joint;
// the caller then uses the joint's rest transform.
func (c *Clip) Pose(jointPath string, t float32) (math.Mat4, bool) {
	jt, ok := c.tracks[jointPath]
	if !ok {
		return math.Identity(), false
	}
	t = c.LocalTime(t)

	translation, ok := jt.Translation.Evaluate(t, c.Loop)
	if !ok {
		translation = math.Vec3{}
	}
	rotation, ok := jt.Rotation.Evaluate(t, c.Loop)
	if !ok {
		rotation = math.QuatIdentity()
	}
	scale, ok := jt.Scale.Evaluate(t, c.Loop)
	if !ok {
		scale = math.Vec3One()
	}

	return math.TranslateVec(translation).
		Mul(rotation.ToMat4()).
		Mul(math.ScaleVec(scale)), true
}
