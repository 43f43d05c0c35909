package watch

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"greptide/internal/eventbus"
)

// quietWindow coalesces bursts of filesystem events (save-all, branch
// switch) into a single FilesChanged notification.
const quietWindow = 500 * time.Millisecond

// Watcher observes the search root and publishes FilesChanged events so
// on-screen results stay in step with the working tree. Best effort: any
// watcher failure is logged and the search keeps working without it.
type Watcher struct {
	bus eventbus.EventBus

	mu       sync.Mutex
	cancelFn context.CancelFunc
	wg       sync.WaitGroup
}

// NewWatcher creates a new filesystem watcher
func NewWatcher(bus eventbus.EventBus) *Watcher {
	return &Watcher{bus: bus}
}

// Start begins watching root and all its visible subdirectories
func (w *Watcher) Start(ctx context.Context, root string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := addRecursive(fsw, root); err != nil {
		fsw.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancelFn = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer fsw.Close()
		w.loop(watchCtx, fsw)
	}()

	return nil
}

// Stop ends watching and waits for the event loop to exit
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.cancelFn != nil {
		w.cancelFn()
		w.cancelFn = nil
	}
	w.mu.Unlock()

	w.wg.Wait()
}

// loop drains fsnotify events, accumulating changed paths until the burst
// goes quiet, then publishes one FilesChanged event
func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	var pending []string
	var quiet *time.Timer
	var quietC <-chan time.Time

	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if skipPath(ev.Name) {
				continue
			}

			// New directories need their own watch
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(fsw, ev.Name); err != nil {
						log.Printf("Watcher: failed to watch %s: %v", ev.Name, err)
					}
				}
			}

			pending = append(pending, ev.Name)
			if quiet == nil {
				quiet = time.NewTimer(quietWindow)
			} else {
				if !quiet.Stop() {
					select {
					case <-quiet.C:
					default:
					}
				}
				quiet.Reset(quietWindow)
			}
			quietC = quiet.C

		case <-quietC:
			w.bus.Publish(eventbus.FilesChangedEvent{Paths: dedupe(pending)})
			pending = nil
			quietC = nil

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}

// addRecursive watches dir and every visible subdirectory beneath it
func addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipPath(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			log.Printf("Watcher: cannot watch %s: %v", path, err)
		}
		return nil
	})
}

// skipPath filters dotfile trees, most notably .git, whose churn would
// trigger constant re-searches
func skipPath(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
