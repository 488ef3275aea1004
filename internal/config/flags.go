package config

import (
	"flag"
	"time"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagRig      = flag.String("rig", "", "Path to rig file")
	flagClip     = flag.String("clip", "", "Clip to play")
	flagFPS      = flag.Int("fps", 0, "Fixed update rate")
	flagDuration = flag.Duration("duration", 0, "Playback length")
	flagWatch    = flag.Bool("watch", false, "Reload the rig file when it changes")
	flagSave     = flag.String("save-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SavePath returns the path given via --save-config, or "".
func SavePath() string {
	return *flagSave
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagRig != "" {
		cfg.Rig.Path = *flagRig
	}
	if *flagClip != "" {
		cfg.Playback.Clip = *flagClip
	}
	if *flagFPS > 0 {
		cfg.Playback.FPS = *flagFPS
	}
	if *flagDuration > time.Duration(0) {
		cfg.Playback.Duration = *flagDuration
	}
	if *flagWatch {
		cfg.Rig.Watch = true
	}
}
