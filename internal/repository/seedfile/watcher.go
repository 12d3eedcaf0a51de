package seedfile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 300 * time.Millisecond

// Watcher calls a handler whenever the seed file changes.
// The parent directory is watched so atomic rename-on-save is seen.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher creates a watcher for path.
func NewWatcher(path string, debounce time.Duration, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{path: filepath.Clean(path), debounce: debounce, logger: logger}
}

// Run blocks until ctx is done, invoking onChange after each debounced change.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("Seed file event", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Seed file watcher error", zap.Error(err))
		case <-timer.C:
			onChange(ctx)
		}
	}
}
