package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
	"github.com/custodia-labs/calcmesh/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.ConfigWatcher = (*Watcher)(nil)

// DefaultDebounce collapses the burst of events one save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a ConfigStore when its file changes on disk.
// The parent directory is watched so editors that replace the file are seen.
type Watcher struct {
	store    driven.ConfigStore
	debounce time.Duration
}

// NewWatcher creates a watcher for store's file.
func NewWatcher(store driven.ConfigStore, debounce time.Duration) *Watcher {
	return &Watcher{store: store, debounce: debounce}
}

// Watch reloads the store and calls onChange after each change, until ctx is done.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer fw.Close()

	path := filepath.Clean(w.store.Path())
	if err := fw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config watcher: watch %s: %w", filepath.Dir(path), err)
	}
	logger.Debug("watching %s", path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !isContentChange(ev.Op) {
				continue
			}
			if w.debounce <= 0 {
				w.reload(onChange)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload(onChange)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher: %v", err)
		}
	}
}

func (w *Watcher) reload(onChange func()) {
	if err := w.store.Load(); err != nil {
		logger.Warn("config reload %s: %v", w.store.Path(), err)
		return
	}
	onChange()
}

func isContentChange(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) || op.Has(fsnotify.Rename)
}
