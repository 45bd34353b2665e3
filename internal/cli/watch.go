package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// settle is how long a file must stay quiet before a change is reported.
// Editors often write a file in several steps.
const settle = 100 * time.Millisecond

// fileWatcher reports changes to a set of files. It watches their
// directories so files replaced by rename are still seen.
type fileWatcher struct {
	w      *fsnotify.Watcher
	files  map[string]bool
	logger *log.Logger
}

func newFileWatcher(logger *log.Logger, paths ...string) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	fw := &fileWatcher{w: w, files: make(map[string]bool), logger: logger}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, err
		}
		fw.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return fw, nil
}

// Run calls onChange with the changed file's path until ctx is done.
func (fw *fileWatcher) Run(ctx context.Context, onChange func(path string)) error {
	defer fw.w.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	var changed string
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev, ok := <-fw.w.Events:
			if !ok {
				return nil
			}
			if !fw.files[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			changed = filepath.Clean(ev.Name)
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange(changed)
		case err, ok := <-fw.w.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("watcher error", "err", err)
		}
	}
}
