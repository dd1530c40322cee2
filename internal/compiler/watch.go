package compiler

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events editors produce for one save.
const watchDebounce = 50 * time.Millisecond

// Watcher re-runs a callback when watched source files change.
type Watcher struct {
	w     *fsnotify.Watcher
	files map[string]bool
}

// NewWatcher watches the directories containing paths and reports changes
// to paths only. Watching the directory survives editors that save by
// renaming a temporary file over the original.
func NewWatcher(paths []string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &Watcher{w: w, files: make(map[string]bool)}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, err
		}
		fw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
	}
	return fw, nil
}

// Run calls onChange with the path of each changed file until ctx is done.
// Events for one file that arrive within the debounce window are merged.
// It returns ctx's error, or the first error fsnotify reports.
func (fw *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !fw.files[abs] {
				continue
			}
			pending[abs] = true
			timer.Reset(watchDebounce)

		case <-timer.C:
			for path := range pending {
				onChange(path)
			}
			pending = make(map[string]bool)

		case err, ok := <-fw.w.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// Close stops watching.
func (fw *Watcher) Close() error { return fw.w.Close() }
