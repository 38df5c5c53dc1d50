package completion

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watcher flushes a Cache when a watched search-path directory changes.
//
// Value comparison of the search path cannot detect a file added to or
// removed from an existing directory; the watcher closes that gap by
// forcing a recompute on the next completion request after any change.
type Watcher struct {
	cache     *Cache
	fsWatcher *fsnotify.Watcher

	// Errors receives watcher errors.
	Errors chan error

	done chan struct{}
}

// Watch starts watching the given directories for cache-invalidating
// changes. Directories that cannot be watched are skipped.
func Watch(cache *Cache, dirs []string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		cache:     cache,
		fsWatcher: fsWatcher,
		Errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}
	for _, dir := range dirs {
		// A missing directory may appear later; nothing to watch until
		// the search path changes anyway.
		_ = fsWatcher.Add(dir)
	}

	go w.run()
	return w, nil
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// run processes filesystem events.
func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.cache.Flush()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.Errors <- err
		}
	}
}
