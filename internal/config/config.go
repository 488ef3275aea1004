// Package config handles rigplay configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is returned by Validate for settings that cannot be used.
var ErrInvalid = errors.New("invalid config")

// Config holds all rigplay settings.
type Config struct {
	Playback PlaybackConfig `yaml:"playback"`
	Rig      RigConfig      `yaml:"rig"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PlaybackConfig holds the fixed-step playback settings.
type PlaybackConfig struct {
	FPS            int           `yaml:"fps"`
	Duration       time.Duration `yaml:"duration"`
	Clip           string        `yaml:"clip"`  // Empty plays the first clip
	Speed          float32       `yaml:"speed"` // Zero keeps the clip's own speed
	FramesInFlight int           `yaml:"frames_in_flight"`
	Workers        int           `yaml:"workers"` // Parallel model updates, 0 = unbounded
}

// RigConfig holds the rig source.
type RigConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"` // Reload and replay when the file changes
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Playback: PlaybackConfig{
			FPS:            60,
			Duration:       2 * time.Second,
			FramesInFlight: 3,
			Workers:        4,
		},
		Rig: RigConfig{
			Path: "rig.yaml",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Frames returns the number of fixed steps covering Duration.
func (p PlaybackConfig) Frames() int {
	if p.FPS <= 0 || p.Duration <= 0 {
		return 0
	}
	return int(p.Duration.Seconds() * float64(p.FPS))
}

// Step returns the fixed time step in seconds.
func (p PlaybackConfig) Step() float32 {
	if p.FPS <= 0 {
		return 0
	}
	return 1 / float32(p.FPS)
}

// Validate reports settings rigplay cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Playback.FPS <= 0:
		return fmt.Errorf("playback.fps %d: %w", c.Playback.FPS, ErrInvalid)
	case c.Playback.Duration < 0:
		return fmt.Errorf("playback.duration %v: %w", c.Playback.Duration, ErrInvalid)
	case c.Playback.FramesInFlight < 1:
		return fmt.Errorf("playback.frames_in_flight %d: %w", c.Playback.FramesInFlight, ErrInvalid)
	case c.Playback.Workers < 0:
		return fmt.Errorf("playback.workers %d: %w", c.Playback.Workers, ErrInvalid)
	case c.Rig.Path == "":
		return fmt.Errorf("rig.path is empty: %w", ErrInvalid)
	}
	return nil
}
