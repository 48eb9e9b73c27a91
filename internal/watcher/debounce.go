package watcher

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Batch is one quiet-period's worth of file events, each list sorted
type Batch struct {
	Changed []string
	Removed []string
}

// Empty reports whether the batch carries nothing to re-index
func (b Batch) Empty() bool {
	return len(b.Changed) == 0 && len(b.Removed) == 0
}

// Debouncer merges events per path and emits them as a single Batch once
// no event has arrived for the quiet period.
type Debouncer struct {
	mu      sync.Mutex
	ops     map[string]fsnotify.Op
	quiet   time.Duration
	timer   *time.Timer
	emit    func(Batch)
	stopped bool

	// exists is consulted for removed paths; stubbed in tests
	exists func(path string) bool
}

// NewDebouncer creates a debouncer that hands each batch to emit
func NewDebouncer(quiet time.Duration, emit func(Batch)) *Debouncer {
	return &Debouncer{
		ops:    make(map[string]fsnotify.Op),
		quiet:  quiet,
		emit:   emit,
		exists: fileExists,
	}
}

// Add records an event and restarts the quiet period
func (d *Debouncer) Add(path string, op fsnotify.Op) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.ops[path] |= op

	if d.timer == nil {
		d.timer = time.AfterFunc(d.quiet, d.fire)
	} else {
		d.timer.Reset(d.quiet)
	}
}

// Stop cancels any pending batch. Later events are dropped.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	clear(d.ops)
}

func (d *Debouncer) fire() {
	b := d.Take()
	if !b.Empty() {
		d.emit(b)
	}
}

// Take drains pending events into a batch without waiting for the timer.
// A path that was removed or renamed but exists again was replaced in
// place, so it counts as changed.
func (d *Debouncer) Take() Batch {
	d.mu.Lock()
	ops := d.ops
	d.ops = make(map[string]fsnotify.Op)
	d.mu.Unlock()

	var b Batch
	for path, op := range ops {
		switch {
		case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
			if d.exists(path) {
				b.Changed = append(b.Changed, path)
			} else {
				b.Removed = append(b.Removed, path)
			}
		case op.Has(fsnotify.Write) || op.Has(fsnotify.Create):
			b.Changed = append(b.Changed, path)
		}
	}
	sort.Strings(b.Changed)
	sort.Strings(b.Removed)
	return b
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
