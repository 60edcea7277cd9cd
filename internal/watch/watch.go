// Package watch reruns the build when markdown sources change. Bursts
// of filesystem events are coalesced behind a quiet-window debounce so
// an editor save storm triggers one rebuild, not dozens.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/postbuilder/internal/logfields"
)

// DefaultQuietWindow is how long the input tree must stay silent
// before a pending rebuild fires.
const DefaultQuietWindow = 500 * time.Millisecond

// Run watches root recursively and invokes rebuild after each debounced
// burst of changes. Rebuild errors are logged, not fatal: the watcher
// keeps running so the next save can fix the problem. Run returns when
// ctx is cancelled.
func Run(ctx context.Context, root string, quiet time.Duration, rebuild func(context.Context) error) error {
	if quiet <= 0 {
		quiet = DefaultQuietWindow
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, root); err != nil {
		return err
	}
	slog.Info("Watching for changes", logfields.Path(root))

	timer := time.NewTimer(quiet)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			// New directories must be picked up so nested posts are seen.
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, ev.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			if pending {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timer.Reset(quiet)
			pending = true

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := rebuild(ctx); err != nil {
				slog.Error("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(p)
	})
}
