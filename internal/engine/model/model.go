// Package model ties a skeleton, its animation clips and the skinned meshes
// that share it into one animated object.
package model

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/engine/animation"
	"github.com/Faultbox/midgard-rig/internal/engine/skeleton"
	"github.com/Faultbox/midgard-rig/internal/engine/skin"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

var (
	// ErrDuplicateClip is returned when two clips share a name.
	ErrDuplicateClip = errors.New("duplicate clip name")
	// ErrDuplicateMesh is returned when two skins share a mesh name.
	ErrDuplicateMesh = errors.New("duplicate skin mesh")
	// ErrNoSkeleton is returned when skins are given without a skeleton.
	ErrNoSkeleton = errors.New("skins require a skeleton")
)

// Model is one animated object. It owns a clone of its skeleton, copies of
// its skins and their palette rings, so distinct models can be updated
// concurrently even when built from the same rig.
type Model struct {
	Name string

	skeleton *skeleton.Skeleton
	clips    map[string]*animation.Clip
	skins    []*skin.Skin
	rings    []*skin.PaletteRing
	player   animation.Player
	// Next frame index to write.
	frame uint64
}

// New creates a model from a clone of skel and binds a copy of every skin to
// it. skel and skins are left untouched. A nil skel makes a static model that
// has no clips or skins to drive.
func New(name string, skel *skeleton.Skeleton, clips []*animation.Clip, skins []*skin.Skin, framesInFlight int) (*Model, error) {
	if skel == nil && len(skins) > 0 {
		return nil, fmt.Errorf("model %q: %w", name, ErrNoSkeleton)
	}
	if skel != nil {
		skel = skel.Clone()
	}

	m := &Model{
		Name:     name,
		skeleton: skel,
		clips:    make(map[string]*animation.Clip, len(clips)),
		skins:    make([]*skin.Skin, len(skins)),
		rings:    make([]*skin.PaletteRing, len(skins)),
	}
	for _, c := range clips {
		if _, ok := m.clips[c.Name]; ok {
			return nil, fmt.Errorf("model %q clip %q: %w", name, c.Name, ErrDuplicateClip)
		}
		m.clips[c.Name] = c
	}
	meshes := make(map[string]struct{}, len(skins))
	for i, s := range skins {
		if _, ok := meshes[s.Mesh]; ok {
			return nil, fmt.Errorf("model %q mesh %q: %w", name, s.Mesh, ErrDuplicateMesh)
		}
		meshes[s.Mesh] = struct{}{}

		own := s.Clone()
		if err := own.Bind(skel); err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		m.skins[i] = own
		m.rings[i] = skin.NewPaletteRing(own.Len(), framesInFlight)
	}

	joints := 0
	if skel != nil {
		joints = skel.Len()
	}
	logger.Named("model").Debug("model created",
		zap.String("model", name),
		zap.Int("joints", joints),
		zap.Int("clips", len(m.clips)),
		zap.Int("skins", len(skins)))
	return m, nil
}

// Play starts the named clip from the beginning. The model plays a private
// copy, so SetSpeed and SetLoop never touch the clip passed to New.
func (m *Model) Play(name string) error {
	c, ok := m.clips[name]
	if !ok {
		logger.Named("model").Warn("clip not found",
			zap.String("model", m.Name),
			zap.String("clip", name))
		return fmt.Errorf("model %q clip %q: %w", m.Name, name, animation.ErrClipNotFound)
	}
	playing := *c
	m.player.Play(&playing)
	return nil
}

// Stop clears the current clip; the skeleton returns to its rest pose.
func (m *Model) Stop() { m.player.Play(nil) }

// SetSpeed sets the playback speed of the current clip.
func (m *Model) SetSpeed(speed float32) {
	if c := m.player.Clip(); c != nil {
		c.Speed = speed
	}
}

// SetLoop sets whether the current clip loops.
func (m *Model) SetLoop(loop bool) {
	if c := m.player.Clip(); c != nil {
		c.Loop = loop
	}
}

// Update advances playback by dt, poses the skeleton and writes every skin
// palette into its ring at the current frame index. Static models are left
// untouched.
func (m *Model) Update(dt float32) error {
	if m.skeleton == nil {
		return nil
	}

	m.player.Advance(dt)

	var src skeleton.PoseSource
	if c := m.player.Clip(); c != nil {
		src = c
	}
	pose := m.skeleton.UpdatePose(src, m.player.Time())

	for i, s := range m.skins {
		palette, err := s.UpdatePalette(pose)
		if err != nil {
			return fmt.Errorf("model %q: %w", m.Name, err)
		}
		m.rings[i].Write(m.frame, palette)
	}
	m.frame++
	return nil
}

// Palette returns the snapshot written for mesh at frame.
func (m *Model) Palette(mesh string, frame uint64) ([]math.Mat4, bool) {
	for i, s := range m.skins {
		if s.Mesh == mesh {
			return m.rings[i].Slot(frame)
		}
	}
	return nil, false
}

// Frame returns the number of frames written so far. The most recent
// snapshot lives at Frame()-1.
func (m *Model) Frame() uint64 { return m.frame }

// Skeleton returns the model's private skeleton, or nil for a static model.
func (m *Model) Skeleton() *skeleton.Skeleton { return m.skeleton }

// Skins returns the model's bound skin copies.
func (m *Model) Skins() []*skin.Skin { return m.skins }

// Clip returns the named clip as passed to New.
func (m *Model) Clip(name string) (*animation.Clip, bool) {
	c, ok := m.clips[name]
	return c, ok
}

// ClipNames returns the names of all clips in no particular order.
func (m *Model) ClipNames() []string {
	names := make([]string, 0, len(m.clips))
	for name := range m.clips {
		names = append(names, name)
	}
	return names
}

// Player returns the playback cursor.
func (m *Model) Player() *animation.Player { return &m.player }
