package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a family's index file and fires a callback when another
// process rewrites it. A desktop client can run more than one window over
// the same data directory; the watcher lets each window refresh its cached
// index instead of serving stale metadata.
type Watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

// WatchIndex starts watching the family's index file. onChange runs on a
// background goroutine after each external modification, debounced so a
// burst of writes triggers a single refresh.
func (s *FileStore[M, R]) WatchIndex(debounce time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filestore: create watcher: %w", err)
	}
	// Watch the directory, not the file: atomic rename replaces the inode,
	// and a watch on the old file would go silent after the first write.
	if err := fsw.Add(s.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("filestore: watch %s: %w", s.dir, err)
	}

	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	w := &Watcher{fsw: fsw, done: make(chan struct{})}
	indexName := filepath.Base(s.IndexPath())

	go func() {
		timer := time.NewTimer(debounce)
		timer.Stop()
		for {
			select {
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != indexName {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				timer.Reset(debounce)
			case <-timer.C:
				onChange()
			case _, ok := <-fsw.Errors:
				if !ok {
					return
				}
				// Watch errors are non-fatal; the cache simply refreshes less eagerly.
			case <-w.done:
				return
			}
		}
	}()

	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
