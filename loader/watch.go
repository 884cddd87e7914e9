package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gofhir/terminologies/terminology"
)

// Watch reloads dictionary files of dir when they are written or created,
// until ctx is cancelled. Events are debounced and every changed file is
// reloaded once per batch; removing a file does not unload its context.
// Watch returns nil when ctx is cancelled.
func Watch(ctx context.Context, store *terminology.Store, dir string, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	o.log.Info("watching %s for dictionary changes", dir)

	fsys := os.DirFS(dir)
	pending := make(map[string]struct{})
	timer := time.NewTimer(o.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if !isDictionaryFile(name) {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(o.debounce)

		case <-timer.C:
			files := make([]string, 0, len(pending))
			for name := range pending {
				files = append(files, name)
			}
			clear(pending)

			stats, err := loadFiles(ctx, store, fsys, files, o)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				o.log.Error("reload failed: %v", err)
				continue
			}
			o.log.Info("reloaded %d of %d changed files", stats.Loaded(), len(files))
			if o.onReload != nil {
				o.onReload(stats)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.log.Warn("watcher error: %v", err)
		}
	}
}
