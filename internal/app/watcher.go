package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"eve/internal/config"
	"eve/pkg/logging"
)

const configFileName = "config.yaml"

// configWatcher reloads config.yaml when it changes on disk and hands the
// validated result to onChange. Invalid edits are logged and ignored.
type configWatcher struct {
	mu sync.Mutex

	// dir holds config.yaml
	dir string

	// debounce collapses the burst of events editors produce on save
	debounce time.Duration

	onChange func(config.EveConfig)

	watcher *fsnotify.Watcher
	timer   *time.Timer
}

func newConfigWatcher(dir string, debounce time.Duration, onChange func(config.EveConfig)) *configWatcher {
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	return &configWatcher{dir: dir, debounce: debounce, onChange: onChange}
}

// Start watches the configuration directory until ctx is cancelled. The
// directory itself is watched so atomic replace-on-save is seen.
func (w *configWatcher) Start(ctx context.Context) error {
	if err := config.EnsureDir(w.dir); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return err
	}
	w.watcher = watcher

	go w.processEvents(ctx)

	logging.Debug("ConfigWatcher", "Watching %s for changes", filepath.Join(w.dir, configFileName))
	return nil
}

func (w *configWatcher) processEvents(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		_ = w.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "Filesystem watcher error")
		}
	}
}

func (w *configWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *configWatcher) reload() {
	path := filepath.Join(w.dir, configFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logging.Info("ConfigWatcher", "%s was removed, falling back to defaults", path)
	}

	cfg, err := config.LoadConfig(w.dir)
	if err != nil {
		logging.Warn("ConfigWatcher", "Ignoring change to %s: %v", path, err)
		return
	}
	if errs := config.Validate(cfg); errs.HasErrors() {
		logging.Warn("ConfigWatcher", "Ignoring invalid change to %s: %v", path, errs)
		return
	}
	w.onChange(cfg)
}
