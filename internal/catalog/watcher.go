package catalog

import (
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher invalidates the loader and task-doc caches when files under the
// local data directory change. Only used when datasets are served from disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *logrus.Logger
	done    chan struct{}
}

// NewWatcher starts watching dir. Invalidation targets are anything with an
// Invalidate method; both the Loader and the TaskDocStore qualify.
func NewWatcher(dir string, logger *logrus.Logger, targets ...interface{ Invalidate() }) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		logger:  logger,
		done:    make(chan struct{}),
	}

	go func() {
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				logger.WithFields(logrus.Fields{
					"file": event.Name,
					"op":   event.Op.String(),
				}).Info("Data directory changed, invalidating caches")
				for _, t := range targets {
					t.Invalidate()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.WithField("error", err.Error()).Warn("Data directory watch error")
			case <-w.done:
				return
			}
		}
	}()

	logger.WithField("dir", dir).Info("Watching data directory")
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
