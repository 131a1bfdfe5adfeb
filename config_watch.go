package eventhub

import (
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher hot-reloads HubConfig's dynamic fields (DefaultResponseTimeout,
// DefaultBarrier) from a file on every write event, without requiring a hub
// restart. PreprocessorAllowList changes apply only to subsequently
// registered preprocessors.
type ConfigWatcher struct {
	logger Logger
	path   string

	current atomic.Pointer[HubConfig]

	watcher *fsnotify.Watcher
	closeMu sync.Mutex
	closed  bool
}

// WatchConfig loads path once via LoadConfig(NewFileFeeder(path)) and starts
// watching it for changes. Call Close to stop watching.
func WatchConfig(path string, logger Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	cfg, err := LoadConfig(NewFileFeeder(path))
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	cw := &ConfigWatcher{logger: logger, path: path, watcher: fsw}
	cw.current.Store(&cfg)

	go cw.run()
	return cw, nil
}

// Current returns the most recently loaded configuration.
func (w *ConfigWatcher) Current() HubConfig {
	return *w.current.Load()
}

func (w *ConfigWatcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "path", w.path, "err", err)
		}
	}
}

func (w *ConfigWatcher) reload() {
	cfg, err := LoadConfig(NewFileFeeder(w.path))
	if err != nil {
		w.logger.Error("config reload failed, keeping previous config", "path", w.path, "err", err)
		return
	}
	w.current.Store(&cfg)
	w.logger.Info("config reloaded", "path", w.path)
}

// Close stops the underlying filesystem watch. Idempotent.
func (w *ConfigWatcher) Close() error {
	w.closeMu.Lock()
	defer w.closeMu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}
