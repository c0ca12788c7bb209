package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/schemadoc/internal/source"
)

// DefaultDebounce is the quiet period after a change before re-running.
const DefaultDebounce = 200 * time.Millisecond

// ErrNothingToWatch is returned by Watch when every source is a URL.
var ErrNothingToWatch = errors.New("no local sources to watch")

// LocalSources returns the absolute paths of the sources that are files.
func (e *Engine) LocalSources() []string {
	var paths []string
	for _, location := range e.Sources() {
		if location == "" || source.IsURL(location) {
			continue
		}
		abs, err := filepath.Abs(location)
		if err != nil {
			continue
		}
		paths = append(paths, abs)
	}
	return paths
}

// Watch calls fn once, then again after every change to a local source,
// until ctx is cancelled. Errors from fn are logged and do not stop watching.
func (e *Engine) Watch(ctx context.Context, debounce time.Duration, fn func(context.Context) error) error {
	paths := e.LocalSources()
	if len(paths) == 0 {
		return ErrNothingToWatch
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Directories are watched since editors often replace files on save.
	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		watched[p] = true
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	e.logger.Info("watching sources", slog.Int("files", len(paths)))
	e.call(ctx, fn)

	trigger := make(chan string, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !watched[name] {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- name:
				default:
				}
			})

		case name := <-trigger:
			e.logger.Info("source changed", slog.String("file", name))
			e.call(ctx, fn)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

func (e *Engine) call(ctx context.Context, fn func(context.Context) error) {
	if err := fn(ctx); err != nil && ctx.Err() == nil {
		e.logger.Error("run failed", slog.Any("error", err))
	}
}
