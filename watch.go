package brewsvc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"vawter.tech/stopper"
)

// DefaultWatchDebounce coalesces bursts of file events into one callback
const DefaultWatchDebounce = 250 * time.Millisecond

// WatchCleanupFunc stops a watch and waits for its goroutine to exit
type WatchCleanupFunc func() error

// DirWatcher calls OnChange after files in Dirs change.
//
// Events are debounced: a burst of writes produces a single callback once
// Debounce has passed without further matching events.
type DirWatcher struct {
	// Dirs are watched non-recursively
	Dirs []string
	// Match filters events by file base name; nil matches everything
	Match func(name string) bool
	// Debounce is the quiet period before OnChange runs
	Debounce time.Duration
	// OnChange runs on a timer goroutine
	OnChange func()
	// Log receives watcher errors
	Log zerolog.Logger
}

// MatchSuffix matches base names ending in suffix, e.g. ".plist"
func MatchSuffix(suffix string) func(string) bool {
	return func(name string) bool {
		return strings.HasSuffix(name, suffix)
	}
}

// MatchName matches one exact base name
func MatchName(base string) func(string) bool {
	return func(name string) bool {
		return name == base
	}
}

// Start begins watching. Directories that do not exist are skipped; it is
// an error only if none can be watched.
func (w *DirWatcher) Start(ctx context.Context) (WatchCleanupFunc, error) {
	if w.OnChange == nil {
		return nil, errors.New("brewsvc: DirWatcher.OnChange is nil")
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	watched := 0
	for _, dir := range w.Dirs {
		if err := watcher.Add(dir); err != nil {
			w.Log.Debug().Err(err).Str("path", dir).Msg("skipping unwatchable dir")
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = watcher.Close()
		return nil, fmt.Errorf("no watchable directories in %v: %w", w.Dirs, os.ErrNotExist)
	}

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
	})

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := func() {
		if sctx.IsStopping() {
			return
		}
		w.OnChange()
	}

	sctx.Go(func(sctx *stopper.Context) error {
		sctx.Defer(func() {
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		})

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if w.Match != nil && !w.Match(filepath.Base(event.Name)) {
					continue
				}
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, fire)
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					w.Log.Warn().Err(err).Msg("file watch error")
				}
			}
		}
		return nil
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}
	return cleanup, nil
}

// Watch reloads the store whenever its file changes
func (s *PreferenceStore) Watch(ctx context.Context) (WatchCleanupFunc, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return nil, fmt.Errorf("creating preference dir: %w", err)
	}
	w := &DirWatcher{
		Dirs:  []string{dir},
		Match: MatchName(filepath.Base(s.path)),
		OnChange: func() {
			_ = s.Reload()
		},
		Log: s.log,
	}
	return w.Start(ctx)
}
