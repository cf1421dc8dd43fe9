package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// Watch calls onChange with the parsed contents of path every time the
// file is written or replaced. It watches the parent directory so editors
// that save by rename are seen too. Watching stops when ctx is canceled.
func Watch(ctx context.Context, path string, onChange func(values map[string]string)) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				values, err := godotenv.Read(path)
				if err != nil {
					slog.Warn("Failed to reload config file", "file", path, "error", err)
					continue
				}
				onChange(values)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("File system watcher error", "error", err)
			}
		}
	}()

	slog.Debug("Watching config file", "file", path)
	return nil
}
