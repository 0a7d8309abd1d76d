// internal/config/watcher.go
package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/valpere/ratdriver/internal/utils"
)

// Watcher reloads a preferences file when it changes on disk
type Watcher struct {
	watcher    *fsnotify.Watcher
	fs         afero.Fs
	configPath string
	logger     utils.Logger
	callbacks  []func(*Preferences)
	mu         sync.RWMutex
	stopped    bool
	done       chan struct{}
}

// NewWatcher creates a new preferences file watcher
func NewWatcher(configPath string, logger utils.Logger) (*Watcher, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	w := &Watcher{
		watcher:    watcher,
		fs:         afero.NewOsFs(),
		configPath: absPath,
		logger:     logger.WithField("config", absPath),
		callbacks:  make([]func(*Preferences), 0),
		done:       make(chan struct{}),
	}

	// Watch the directory (editors replace files through temp copies)
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	go w.watch()

	return w, nil
}

// OnChange registers a callback to be called with the reloaded preferences
func (w *Watcher) OnChange(callback func(*Preferences)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// watch handles file system events
func (w *Watcher) watch() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) == w.configPath && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.handleConfigChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("config watcher error: %v", err)
		}
	}
}

// handleConfigChange reloads the file and notifies callbacks
func (w *Watcher) handleConfigChange() {
	w.mu.RLock()
	if w.stopped {
		w.mu.RUnlock()
		return
	}
	callbacks := make([]func(*Preferences), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	prefs, err := LoadFromFile(w.fs, w.configPath)
	if err != nil {
		// Half-written files are common; keep the previous preferences
		w.logger.Warnf("failed to reload config: %v", err)
		return
	}

	w.logger.Info("preferences reloaded")
	for _, callback := range callbacks {
		callback(prefs)
	}
}

// Close stops the watcher and waits for the event loop to exit
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.done
	return err
}
