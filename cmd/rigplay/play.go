package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/config"
	"github.com/Faultbox/midgard-rig/internal/engine/camera"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/internal/rigfile"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// summary describes one finished playback.
type summary struct {
	Rig      string
	Clip     string
	Frames   int
	Time     float32
	Finished bool
	Bounds   model.Bounds
	Camera   math.Vec3
}

// play loads the configured rig, places it in a scene with an arcball
// camera and steps the scene Frames() times.
func play(ctx context.Context, cfg *config.Config) (summary, error) {
	f, err := rigfile.Load(cfg.Rig.Path)
	if err != nil {
		return summary{}, err
	}
	m, err := f.Build(cfg.Playback.FramesInFlight)
	if err != nil {
		return summary{}, err
	}

	clip := cfg.Playback.Clip
	if clip == "" && len(f.Clips) > 0 {
		clip = f.Clips[0].Name
	}
	if clip != "" {
		if err := m.Play(clip); err != nil {
			return summary{}, err
		}
		if cfg.Playback.Speed != 0 {
			m.SetSpeed(cfg.Playback.Speed)
		}
	}

	g := scene.New(cfg.Playback.Workers)
	node := g.NewModelNode(m.Name, m)
	cam := camera.NewArcball(math.Vec3{}, 5)
	g.NewCameraNode("camera", cam)

	frames := cfg.Playback.Frames()
	dt := cfg.Playback.Step()
	log := logger.Named("rigplay")

	s := summary{Rig: m.Name, Clip: clip}
	for i := range frames {
		if err := g.Update(ctx, dt, camera.Input{}); err != nil {
			return s, fmt.Errorf("frame %d: %w", i, err)
		}
		if i == 0 {
			if b, ok := m.JointBounds(); ok {
				cam.FitToBounds(b.Min, b.Max)
			}
		}
		s.Frames++

		if ce := log.Check(zap.DebugLevel, "frame"); ce != nil {
			world, _ := g.WorldTransform(node)
			ce.Write(
				zap.Int("frame", i),
				zap.Float32("time", m.Player().Time()),
				zap.Int("render_items", len(g.RenderItems())),
				zap.Float32s("origin", floats(world.Translation())))
		}
	}

	s.Time = m.Player().Time()
	s.Finished = m.Player().Finished()
	s.Bounds, _ = m.JointBounds()
	s.Camera = cam.Position()

	log.Info("playback finished",
		zap.String("rig", s.Rig),
		zap.String("clip", s.Clip),
		zap.Int("frames", s.Frames),
		zap.Float32("time", s.Time),
		zap.Bool("finished", s.Finished),
		zap.Float32s("bounds_min", floats(s.Bounds.Min)),
		zap.Float32s("bounds_max", floats(s.Bounds.Max)))
	return s, nil
}

func floats(v math.Vec3) []float32 {
	a := v.Array()
	return a[:]
}
