package rigfile

import (
	"fmt"

	"github.com/Faultbox/midgard-rig/internal/engine/animation"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/internal/engine/skeleton"
	"github.com/Faultbox/midgard-rig/internal/engine/skin"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Mat4 returns the transform as a matrix. Missing components default to
// identity.
func (t TRS) Mat4() (math.Mat4, error) {
	if t.Matrix != nil {
		if len(t.Matrix) != 16 {
			return math.Mat4{}, fmt.Errorf("got %d: %w", len(t.Matrix), ErrBadMatrix)
		}
		return math.Mat4(t.Matrix), nil
	}

	m := math.Identity()
	if t.Translation != nil {
		m = math.TranslateVec(math.Vec3FromArray(*t.Translation))
	}
	if t.Rotation != nil {
		m = m.Mul(math.QuatFromArray(*t.Rotation).ToMat4())
	}
	if t.Scale != nil {
		m = m.Mul(math.ScaleVec(math.Vec3FromArray(*t.Scale)))
	}
	return m, nil
}

// Build constructs a fresh model from the description. Each call returns a
// model with its own skeleton, clips and skins. A file without joints builds
// a static model.
func (f *File) Build(framesInFlight int) (*model.Model, error) {
	skel, err := f.buildSkeleton()
	if err != nil {
		return nil, fmt.Errorf("rig %q: %w", f.Name, err)
	}

	clips := make([]*animation.Clip, 0, len(f.Clips))
	for _, c := range f.Clips {
		clip, err := c.build()
		if err != nil {
			return nil, fmt.Errorf("rig %q clip %q: %w", f.Name, c.Name, err)
		}
		clips = append(clips, clip)
	}

	skins := make([]*skin.Skin, 0, len(f.Skins))
	for _, s := range f.Skins {
		skins = append(skins, skin.New(s.Mesh, s.Joints))
	}

	return model.New(f.Name, skel, clips, skins, framesInFlight)
}

func (f *File) buildSkeleton() (*skeleton.Skeleton, error) {
	joints := f.Skeleton.Joints
	if len(joints) == 0 {
		return nil, nil
	}

	paths := make([]string, len(joints))
	bind := make([]math.Mat4, len(joints))
	for i, j := range joints {
		paths[i] = j.Path
		m, err := j.Bind.Mat4()
		if err != nil {
			return nil, fmt.Errorf("joint %q bind: %w", j.Path, err)
		}
		bind[i] = m
	}

	parents := skeleton.DeriveParents(paths)
	for i, j := range joints {
		if j.Parent == "" {
			continue
		}
		p := indexOf(paths, j.Parent)
		if p < 0 {
			return nil, fmt.Errorf("joint %q parent %q: %w", j.Path, j.Parent, ErrUnknownParent)
		}
		parents[i] = p
	}

	rest := skeleton.RestFromBind(parents, bind)
	for i, j := range joints {
		if j.Rest == nil {
			continue
		}
		m, err := j.Rest.Mat4()
		if err != nil {
			return nil, fmt.Errorf("joint %q rest: %w", j.Path, err)
		}
		rest[i] = m
	}

	return skeleton.FromArrays(paths, parents, bind, rest)
}

func indexOf(paths []string, p string) int {
	for i, q := range paths {
		if q == p {
			return i
		}
	}
	return -1
}

func (c Clip) build() (*animation.Clip, error) {
	tracks := make(map[string]animation.JointTracks, len(c.Tracks))
	for path, t := range c.Tracks {
		jt, err := t.build()
		if err != nil {
			return nil, fmt.Errorf("joint %q: %w", path, err)
		}
		tracks[path] = jt
	}

	clip := animation.NewClip(c.Name, c.Duration, tracks)
	if c.Speed != nil {
		clip.Speed = *c.Speed
	}
	if c.Loop != nil {
		clip.Loop = *c.Loop
	}
	return clip, nil
}

func (t Track) build() (animation.JointTracks, error) {
	var jt animation.JointTracks
	var err error

	if jt.Translation, err = animation.NewVec3Track(vec3Keys(t.Translation)); err != nil {
		return jt, fmt.Errorf("translation: %w", err)
	}
	if jt.Scale, err = animation.NewVec3Track(vec3Keys(t.Scale)); err != nil {
		return jt, fmt.Errorf("scale: %w", err)
	}

	rot := make([]animation.Keyframe[math.Quat], len(t.Rotation))
	for i, k := range t.Rotation {
		rot[i] = animation.Keyframe[math.Quat]{Time: k.Time, Value: math.QuatFromArray(k.Value)}
	}
	if jt.Rotation, err = animation.NewQuatTrack(rot); err != nil {
		return jt, fmt.Errorf("rotation: %w", err)
	}
	return jt, nil
}

func vec3Keys(keys []Vec3Key) []animation.Keyframe[math.Vec3] {
	out := make([]animation.Keyframe[math.Vec3], len(keys))
	for i, k := range keys {
		out[i] = animation.Keyframe[math.Vec3]{Time: k.Time, Value: math.Vec3FromArray(k.Value)}
	}
	return out
}
