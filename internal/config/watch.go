package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ErrNoConfigFile is returned by Watch when no config file was loaded.
var ErrNoConfigFile = errors.New("no config file in use")

var errEmptyConfig = errors.New("config file is empty")

// Watch re-reads the config file whenever it changes, until ctx is done.
// Reloads take the same lock as Settings, so a reader never sees a file
// half applied. A file that fails to parse leaves the previous values in place.
func (s *Settings) Watch(ctx context.Context, logger *slog.Logger) error {
	s.mu.Lock()
	file := s.v.ConfigFileUsed()
	s.mu.Unlock()
	if file == "" {
		return ErrNoConfigFile
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	// Editors often save by renaming over the file, which drops a watch on
	// the file itself.
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", file, err)
	}

	file = filepath.Clean(file)
	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != file || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				if err := s.reload(); err != nil {
					logger.Warn("Config file changed but could not be read, keeping previous values", "file", file, "error", err)
					continue
				}
				logger.Info("Configuration reloaded", "file", file)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watcher error", "error", err)
			}
		}
	}()

	return nil
}

func (s *Settings) reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A save in progress can show up as a truncated file.
	info, err := os.Stat(s.v.ConfigFileUsed())
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return errEmptyConfig
	}
	return s.v.ReadInConfig()
}
