// Package main is the entry point for rigplay, which loads a rig file and
// plays one of its clips at a fixed step without a renderer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/config"
	"github.com/Faultbox/midgard-rig/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== rigplay ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if path := config.SavePath(); path != "" {
		if err := saveConfig(cfg, path); err != nil {
			logger.Error("save config failed", zap.Error(err))
			logger.Sync()
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("rigplay failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// saveConfig writes cfg, after file and flag overrides, so a tuned command
// line can be replayed later with -config.
func saveConfig(cfg *config.Config, path string) error {
	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	logger.Info("config saved", zap.String("path", path))
	return nil
}

func run(ctx context.Context, cfg *config.Config) error {
	if _, err := play(ctx, cfg); err != nil {
		if !cfg.Rig.Watch {
			return err
		}
		// A broken rig is expected while editing; keep watching for a fix.
		logger.Warn("playback failed", zap.Error(err))
	}
	if !cfg.Rig.Watch {
		return nil
	}
	return watch(ctx, cfg)
}
