package store

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the store when definition files change on disk.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	done    chan struct{}
	// onReload is called after each successful reload.
	onReload func()
	// onError is called when a reload fails. The previous definition
	// set stays active.
	onError func(error)
}

// Watch starts watching the store's agents and workflows directories.
// Missing directories are skipped; the watcher still covers whichever
// exist. Either callback may be nil.
func (s *Store) Watch(onReload func(), onError func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		store:    s,
		watcher:  fw,
		done:     make(chan struct{}),
		onReload: onReload,
		onError:  onError,
	}
	for _, dir := range []string{
		filepath.Join(s.dir, "agents"),
		filepath.Join(s.dir, "workflows"),
	} {
		// Add fails for missing directories; unwatched is fine.
		fw.Add(dir)
	}

	go w.run()
	return w, nil
}

// run consumes filesystem events until Close.
func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			if err := w.store.Reload(); err != nil {
				if w.onError != nil {
					w.onError(err)
				}
				continue
			}
			if w.onReload != nil {
				w.onReload()
			}
		case <-w.watcher.Errors:
			// Keep watching.
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
