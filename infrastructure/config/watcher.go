package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ConfigWatcher reloads the overlay file when it changes on disk
type ConfigWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  *Overlay
	mu       sync.RWMutex
	onChange []func(*Overlay)
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	debounce time.Duration
}

// NewConfigWatcher loads the overlay and watches it and its directory
func NewConfigWatcher(path string, logger *zap.Logger) (*ConfigWatcher, error) {
	overlay, err := LoadOverlay(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// The directory catches editors that save by rename
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &ConfigWatcher{
		path:     path,
		watcher:  watcher,
		current:  overlay,
		logger:   logger,
		stopCh:   make(chan struct{}),
		debounce: 100 * time.Millisecond,
	}, nil
}

// OnChange registers a callback for every successful reload
func (w *ConfigWatcher) OnChange(fn func(*Overlay)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Current returns the last loaded overlay
func (w *ConfigWatcher) Current() *Overlay {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching for configuration changes
func (w *ConfigWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching; it is safe to call more than once
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Configuration watcher stopped")
	})
}

func (w *ConfigWatcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *ConfigWatcher) reload() {
	overlay, err := LoadOverlay(w.path)
	if err != nil {
		w.logger.Error("Invalid configuration, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = overlay
	handlers := append([]func(*Overlay){}, w.onChange...)
	w.mu.Unlock()

	for _, handler := range handlers {
		handler(overlay)
	}

	w.logger.Info("Configuration reloaded",
		zap.String("path", w.path),
		zap.Duration("navCacheTTL", overlay.NavCacheTTL),
		zap.Duration("tocCacheTTL", overlay.TOCCacheTTL),
	)
}
