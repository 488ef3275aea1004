package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/config"
	"github.com/Faultbox/midgard-rig/internal/logger"
)

// watch replays the rig every time its file is written, until ctx ends.
// The parent directory is watched because editors often replace the file
// instead of writing it in place.
func watch(ctx context.Context, cfg *config.Config) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	target, err := filepath.Abs(cfg.Rig.Path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", target, err)
	}

	log := logger.Named("watch")
	log.Info("watching rig", zap.String("path", target))

	for {
		select {
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != target || !e.Op.Has(fsnotify.Write) && !e.Op.Has(fsnotify.Create) {
				continue
			}
			log.Debug("rig changed", zap.String("op", e.Op.String()))
			if _, err := play(ctx, cfg); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Warn("playback failed", zap.Error(err))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", zap.Error(err))

		case <-ctx.Done():
			log.Info("stopped watching")
			return nil
		}
	}
}
