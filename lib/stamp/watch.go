package stamp

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Watcher is given a non-positive debounce.
const DefaultDebounce = 200 * time.Millisecond

// Watcher re-stamps selected files when they change.
//
// Rewriting a file produces another change event for it; the second pass
// finds no candidates left and writes nothing, so the loop settles.
type Watcher struct {
	s        *Stamper
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]bool
}

// Watch creates a Watcher with every directory under the root registered.
// Hidden directories are skipped.
func (s *Stamper) Watch(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		s:        s,
		fsw:      fsw,
		debounce: debounce,
		pending:  make(map[string]bool),
	}
	if err := w.addRecursive(s.opts.Root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes change events until ctx is done or the watcher is closed,
// calling onResult for every stamped file. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context, onResult func(Result)) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.s.logger.Error("watcher error", "error", err)

		case <-timer.C:
			w.flush(onResult)
		}
	}
}

// Close stops the watcher. Run returns once its event channel drains.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.s.logger.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		w.s.logger.Debug("watching directory", "path", path)
		return nil
	})
}

// handle records a change and reports whether it is worth a flush.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !isHidden(filepath.Base(event.Name)) {
				if err := w.addRecursive(event.Name); err != nil {
					w.s.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return false
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	rel, ok := w.s.rel(event.Name)
	if !ok || !w.s.Selected(rel) {
		return false
	}

	w.mu.Lock()
	w.pending[rel] = true
	w.mu.Unlock()
	w.s.logger.Debug("change detected", "path", rel, "op", event.Op.String())
	return true
}

func (w *Watcher) flush(onResult func(Result)) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(paths)
	for _, rel := range paths {
		res, err := w.s.File(rel)
		if err != nil {
			w.s.logger.Warn("stamp failed", "path", rel, "error", err)
			continue
		}
		if onResult != nil {
			onResult(res)
		}
	}
}
