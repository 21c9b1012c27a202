package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/b0bbywan/go-rtkit/logger"
)

const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// Watch reloads the config file at path every time it changes and hands the
// new configuration to onChange. Invalid files are logged and skipped.
// The watcher stops when ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	if path == "" {
		return fmt.Errorf("no config file to watch")
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: editors replace files instead of writing them.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Info("[config] Failed to close watcher: %v", closeErr)
		}
		return err
	}

	logger.Info("[config] watching %s", path)

	go listen(ctx, watcher, path, onChange)

	return nil
}

func listen(ctx context.Context, watcher *fsnotify.Watcher, path string, onChange func(*Config)) {
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warn("[config] Failed to close watcher: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isReload(event, path) {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				logger.Error("[config] reload of %s failed: %v", path, err)
				continue
			}
			logger.Info("[config] %s reloaded", path)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("[config] fsnotify watcher error: %v", err)
		}
	}
}

// isReload reports whether event should trigger a reload of path.
func isReload(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Op&reloadOps != 0
}
