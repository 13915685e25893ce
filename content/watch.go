package content

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Reload parses the catalog at path and swaps it into s.
func Reload(ctx context.Context, s *Store, path string) error {
	c, err := LoadFile(path)
	if err != nil {
		return err
	}
	return s.Replace(ctx, c)
}

// Watch reloads path into s whenever the file changes, until ctx is done.
// A catalog that fails to parse is logged and the previous one stays active.
func Watch(ctx context.Context, s *Store, path string, log *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// editors often replace the file, so watch the directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		var debounce *time.Timer
		var fire <-chan time.Time
		target := filepath.Clean(path)

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.NewTimer(reloadDebounce)
				fire = debounce.C

			case <-fire:
				fire = nil
				if err := Reload(ctx, s, path); err != nil {
					log.Warn("catalog reload failed", "path", path, "error", err)
					continue
				}
				log.Info("catalog reloaded", "path", path)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("catalog watcher error", "error", err)
			}
		}
	}()
	return nil
}
