package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-pkgz/lgr"
)

const watchDebounce = 250 * time.Millisecond

// Watch invalidates the cache whenever files under dir change. Editors tend to emit bursts of
// events for one save, so invalidation is debounced. Blocks until ctx is canceled.
func Watch(ctx context.Context, dir string, cache *Cache) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// pools live in the root and one directory per language
	dirs := []string{dir}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read content dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	lgr.Printf("[INFO] watching content pools in %s", dir)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	invalidate := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, func() {
			cache.Invalidate()
			lgr.Printf("[INFO] content pools changed, cache invalidated")
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				lgr.Printf("[DEBUG] content event %s", ev)
				invalidate()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			lgr.Printf("[WARN] content watcher error: %v", err)
		}
	}
}
