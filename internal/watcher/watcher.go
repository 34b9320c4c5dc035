// Package watcher watches a workspace tree and emits one signal per burst of
// changes to element files.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/uuidtrans/internal/log"
)

// Filter selects the files and directories worth watching. Paths are
// relative to the workspace root. *workspace.Filter satisfies it.
type Filter interface {
	Match(rel string) bool
	ExcludesDir(rel string) bool
}

// Config holds watcher configuration options.
type Config struct {
	Root        string
	Filter      Filter
	DebounceDur time.Duration
}

// DefaultDebounce is how long the tree must be quiet before a signal fires.
const DefaultDebounce = 500 * time.Millisecond

// DefaultConfig returns a config for root with the default debounce.
func DefaultConfig(root string, filter Filter) Config {
	return Config{
		Root:        root,
		Filter:      filter,
		DebounceDur: DefaultDebounce,
	}
}

// Watcher monitors a workspace for element file changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	filter    Filter
	debounce  time.Duration
	onChange  chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// New creates a watcher. Nothing is watched until Start.
func New(cfg Config) (*Watcher, error) {
	if cfg.Filter == nil {
		return nil, fmt.Errorf("watcher filter is required")
	}
	debounce := cfg.DebounceDur
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		root:      cfg.Root,
		filter:    cfg.Filter,
		debounce:  debounce,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches every non-excluded directory under the root and returns the
// signal channel. At most one signal is buffered; a slow reader sees one
// signal for many bursts.
func (w *Watcher) Start() (<-chan struct{}, error) {
	if err := w.addTree(w.root); err != nil {
		return nil, err
	}

	w.wg.Add(1)
	go w.loop()

	log.Info(log.CatWatcher, "Watching workspace", "root", w.root, "debounce", w.debounce)
	return w.onChange, nil
}

// Stop terminates the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()
	})
	return err
}

// addTree adds dir and its non-excluded subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel := w.rel(path); rel != "." && w.filter.ExcludesDir(rel) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("watching directory %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return rel
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}

			log.Debug(log.CatWatcher, "Workspace change", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			// drop when a signal is already pending
			select {
			case w.onChange <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watcher error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent reports whether event should trigger a rebuild. New
// directories are added to the watch set and count as a change.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	rel := w.rel(event.Name)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.filter.ExcludesDir(rel) {
				return false
			}
			if err := w.addTree(event.Name); err != nil {
				log.Warn(log.CatWatcher, "Could not watch new directory", "path", event.Name, "error", err)
			}
			return true
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.filter.Match(rel)
}
