package assets

import (
	"path/filepath"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// Watcher observes a shader directory and raises a dirty flag when a compiled
// shader changes. The render loop polls the flag between frames and rebuilds
// the pipeline; the watcher itself never touches GPU state.
type Watcher struct {
	fs     *fsnotify.Watcher
	dirty  atomic.Bool
	logger *log.Logger
	done   chan struct{}
}

// NewWatcher starts watching dir for SPIR-V changes.
func NewWatcher(dir string, logger *log.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating shader watcher")
	}

	err = fsWatcher.Add(dir)
	if err != nil {
		_ = fsWatcher.Close()
		return nil, errors.Wrapf(err, "watching shader directory %s", dir)
	}

	if logger == nil {
		logger = log.Default()
	}

	w := &Watcher{
		fs:     fsWatcher,
		logger: logger,
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(event.Name) != ".spv" {
				continue
			}
			w.logger.Info("shader changed, scheduling pipeline rebuild", "file", event.Name)
			w.dirty.Store(true)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("shader watcher error", "err", err)
		}
	}
}

// Dirty reports and clears the pending-rebuild flag.
func (w *Watcher) Dirty() bool {
	return w.dirty.Swap(false)
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}
