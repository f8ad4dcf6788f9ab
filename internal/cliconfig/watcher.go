package cliconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/bulkd/internal/ports"
)

// DefaultDebounce is how long the watcher waits after the last file event
// before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors the config file via fsnotify and applies bulk_size changes.
// Only the bulk size is reloadable; other keys need a restart.
type Watcher struct {
	path     string
	base     Config
	changed  map[string]bool
	apply    func(bulkSize int) error
	logger   ports.Logger
	debounce time.Duration

	mu        sync.Mutex
	current   int
	debounceT *time.Timer
}

// NewWatcher creates a watcher for path. base is the configuration in effect
// at startup; changed carries explicitly set flags, which file values never
// override.
func NewWatcher(path string, base Config, changed map[string]bool, apply func(int) error, logger ports.Logger) *Watcher {
	return &Watcher{
		path:     path,
		base:     base,
		changed:  changed,
		apply:    apply,
		logger:   logger,
		debounce: DefaultDebounce,
		current:  base.BulkSize,
	}
}

// Run watches the directory containing the config file until ctx is done.
// Watching the directory survives editors that replace the file on save.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching config file", ports.String("path", w.path))

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceT != nil {
		w.debounceT.Stop()
	}
	w.debounceT = time.AfterFunc(w.debounce, func() {
		if err := w.Reload(); err != nil {
			w.logger.Warn("config reload failed", ports.String("path", w.path), ports.Err(err))
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceT != nil {
		w.debounceT.Stop()
	}
}

// Reload re-reads the config file and applies the bulk size when it changed.
func (w *Watcher) Reload() error {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := w.base
	if err := ApplyFileConfig(&cfg, fc, w.changed); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if cfg.BulkSize == w.current {
		return nil
	}
	if err := w.apply(cfg.BulkSize); err != nil {
		return err
	}
	w.logger.Info("config reloaded",
		ports.Int("old_bulk_size", w.current),
		ports.Int("bulk_size", cfg.BulkSize))
	w.current = cfg.BulkSize
	return nil
}

// BulkSize returns the last applied bulk size.
func (w *Watcher) BulkSize() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}
