package main

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	trigger "github.com/netresearch/go-trigger"
)

// watchDebounce absorbs the burst of events editors emit for one save.
const watchDebounce = 250 * time.Millisecond

// watchConfig calls onChange after the file at path is written, created or
// renamed over, until ctx is done. The parent directory is watched so that
// editors replacing the file atomically are noticed.
func watchConfig(ctx context.Context, path string, logger trigger.Logger, onChange func()) error {
	target := filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, onChange)
	}
	defer func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == target && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			// keep watching
			logger.Error(err, "config watch error", "config", target)
		}
	}
}
