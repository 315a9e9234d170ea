package render

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"arcreactor/internal/circuit"
	"arcreactor/internal/logging"
)

// debounceWindow absorbs the write bursts editors produce when saving.
const debounceWindow = 200 * time.Millisecond

// Watch re-renders outPath whenever the circuit file at inPath changes.
// It renders once up front and then blocks until ctx is cancelled.
func Watch(ctx context.Context, inPath, outPath string, opts Options) error {
	render := func() error {
		c, err := circuit.LoadFile(inPath)
		if err != nil {
			return err
		}
		return WriteFile(c, outPath, opts)
	}

	if err := render(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save
	// and a file-level watch dies with the old inode.
	dir := filepath.Dir(inPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(inPath)
	logging.Render("watching %s for changes", target)

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logging.RenderDebug("change detected: %s %s", event.Op, event.Name)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			if err := render(); err != nil {
				// A half-written file parses poorly; keep watching.
				logging.RenderError("re-render failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.RenderError("watcher error: %v", err)
		}
	}
}
