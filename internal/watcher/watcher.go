// Package watcher keeps the index in step with Ltd files edited outside the
// editor.
package watcher

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jarredhawkins/ltd-lsp/internal/index"
	"github.com/jarredhawkins/ltd-lsp/internal/parser"
)

// DefaultDebounceMs is used when Options.DebounceMs is zero
const DefaultDebounceMs = 100

// ChangeHandler receives the Ltd files written and deleted since the last call
type ChangeHandler func(changed, removed []string)

// Options configure which directories are watched and how events are batched
type Options struct {
	DebounceMs int
	Exclude    []string
}

// Watcher follows a workspace tree with fsnotify
type Watcher struct {
	fsw       *fsnotify.Watcher
	root      string
	exclude   []string
	debouncer *Debouncer

	done      chan struct{}
	closeOnce sync.Once
}

// New prepares a watcher for root. Nothing is watched until Start.
func New(root string, opts Options, handler ChangeHandler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ms := opts.DebounceMs
	if ms <= 0 {
		ms = DefaultDebounceMs
	}

	w := &Watcher{
		fsw:     fsw,
		root:    root,
		exclude: opts.Exclude,
		done:    make(chan struct{}),
	}
	w.debouncer = NewDebouncer(time.Duration(ms)*time.Millisecond, func(b Batch) {
		log.Printf("file changes: %d changed, %d removed", len(b.Changed), len(b.Removed))
		handler(b.Changed, b.Removed)
	})
	return w, nil
}

// Start watches every non-excluded directory under root and begins
// delivering batches
func (w *Watcher) Start() error {
	if _, err := os.Stat(w.root); err != nil {
		return err
	}
	w.addTree(w.root, false)

	go w.loop()

	log.Printf("file watcher started for %s", w.root)
	return nil
}

// addTree watches dir and its subdirectories. With queue set, Ltd files
// already present are reported too: a directory moved or unpacked into
// the workspace produces no events for its contents.
func (w *Watcher) addTree(dir string, queue bool) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if queue && parser.IsLtdFile(path) {
				w.debouncer.Add(path, fsnotify.Create)
			}
			return nil
		}
		if path != w.root && index.SkipDir(d.Name(), w.exclude) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
			if !index.SkipDir(filepath.Base(ev.Name), w.exclude) {
				w.addTree(ev.Name, true)
			}
			return
		}
	}

	if parser.IsLtdFile(ev.Name) {
		w.debouncer.Add(ev.Name, ev.Op)
	}
}

// Close stops watching and discards any undelivered batch
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.debouncer.Stop()
		err = w.fsw.Close()
	})
	return err
}
