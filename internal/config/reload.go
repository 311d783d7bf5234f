package config

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/looselab/readfish-go/internal/rflog"
	"github.com/looselab/readfish-go/internal/rfyaml"
)

// Handle holds a hot-reloadable *Conf: the current value is read via
// Current() and swapped atomically on a successful reload — a reload is
// always a full replacement, never a field-by-field merge. Grounded on the
// fsnotifyLoop/atomic-swap pattern in internal/daemon/daemon.go, adapted
// from a multi-directory queue watch to a single config-file watch.
type Handle struct {
	path    string
	current atomic.Pointer[Conf]
	watcher *fsnotify.Watcher
	log     *rflog.Logger
	done    chan struct{}
}

// NewHandle loads path once and returns a Handle ready to Watch.
func NewHandle(path string, log *rflog.Logger) (*Handle, error) {
	conf, err := Load(path)
	if err != nil {
		return nil, err
	}
	h := &Handle{path: path, log: log, done: make(chan struct{})}
	h.current.Store(conf)
	if log != nil && conf.NeedsMigration() {
		log.Warn("config at %s carries schema_version older than this build writes", path)
	}
	return h, nil
}

// Current returns the most recently loaded *Conf. Safe for concurrent use
// with Watch's reload swap.
func (h *Handle) Current() *Conf {
	return h.current.Load()
}

// Watch starts an fsnotify watch on the config file's directory; on a
// write or create event for this exact file, it reloads and atomically
// swaps Current() to the new value. A reload that fails is logged and the
// file is handed to rfyaml.RecoverCorruptedFile (quarantine, then restore
// from .bak or write a skeleton) and loaded once more; that result is
// swapped in only if it loads, otherwise the previous Conf is kept in
// place — never a partial update.
func (h *Handle) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	h.watcher = watcher

	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", h.path, err)
	}

	go h.loop()
	return nil
}

func (h *Handle) loop() {
	for {
		select {
		case <-h.done:
			return
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if event.Name != h.path {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			h.reload()
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			if h.log != nil {
				h.log.Error("fsnotify error=%v", err)
			}
		}
	}
}

func (h *Handle) reload() {
	conf, err := Load(h.path)
	if err != nil {
		if h.log != nil {
			h.log.Warn("config reload rejected: %v — attempting recovery", err)
		}
		if recErr := rfyaml.RecoverCorruptedFile(filepath.Dir(h.path), h.path, "experiment_config"); recErr != nil {
			if h.log != nil {
				h.log.Error("config recovery failed: %v", recErr)
			}
			return
		}
		conf, err = Load(h.path)
		if err != nil {
			if h.log != nil {
				h.log.Error("config still invalid after recovery: %v", err)
			}
			return
		}
	}
	h.current.Store(conf)
	if h.log != nil {
		h.log.Info("config reloaded from %s", h.path)
		if conf.NeedsMigration() {
			h.log.Warn("config at %s carries schema_version older than this build writes", h.path)
		}
	}
}

// Close stops the watch loop and releases the fsnotify watcher.
func (h *Handle) Close() {
	close(h.done)
	if h.watcher != nil {
		h.watcher.Close()
	}
}
