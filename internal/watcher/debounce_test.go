package watcher

import (
	"reflect"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

type event struct {
	path string
	op   fsnotify.Op
}

func TestDebouncerTake(t *testing.T) {
	onDisk := map[string]bool{"/w/saved.ltd": true}

	tests := []struct {
		name   string
		events []event
		want   Batch
	}{
		{
			name: "writes merge per path",
			events: []event{
				{"/w/b.ltd", fsnotify.Write},
				{"/w/a.ltd", fsnotify.Create},
				{"/w/b.ltd", fsnotify.Write},
			},
			want: Batch{Changed: []string{"/w/a.ltd", "/w/b.ltd"}},
		},
		{
			name: "removal wins over write",
			events: []event{
				{"/w/c.ltd", fsnotify.Write},
				{"/w/c.ltd", fsnotify.Remove},
			},
			want: Batch{Removed: []string{"/w/c.ltd"}},
		},
		{
			name: "replaced file counts as changed",
			events: []event{
				{"/w/saved.ltd", fsnotify.Rename},
				{"/w/saved.ltd", fsnotify.Create},
				{"/w/gone.ltd", fsnotify.Rename},
			},
			want: Batch{Changed: []string{"/w/saved.ltd"}, Removed: []string{"/w/gone.ltd"}},
		},
		{
			name: "chmod alone is ignored",
			events: []event{
				{"/w/a.ltd", fsnotify.Chmod},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(time.Hour, func(Batch) {})
			d.exists = func(path string) bool { return onDisk[path] }
			t.Cleanup(d.Stop)

			for _, ev := range tt.events {
				d.Add(ev.path, ev.op)
			}
			got := d.Take()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
			if again := d.Take(); !again.Empty() {
				t.Errorf("expected pending events to be drained, got %+v", again)
			}
		})
	}
}

func TestDebouncerEmitsOnceAfterQuietPeriod(t *testing.T) {
	got := make(chan Batch, 4)
	d := NewDebouncer(20*time.Millisecond, func(b Batch) { got <- b })
	d.exists = func(string) bool { return false }
	t.Cleanup(d.Stop)

	d.Add("/w/b.ltd", fsnotify.Write)
	d.Add("/w/a.ltd", fsnotify.Create)
	d.Add("/w/c.ltd", fsnotify.Remove)

	select {
	case b := <-got:
		want := Batch{Changed: []string{"/w/a.ltd", "/w/b.ltd"}, Removed: []string{"/w/c.ltd"}}
		if !reflect.DeepEqual(b, want) {
			t.Errorf("expected %+v, got %+v", want, b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch")
	}

	select {
	case b := <-got:
		t.Errorf("expected a single batch, got another: %+v", b)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerStopDropsPending(t *testing.T) {
	got := make(chan Batch, 1)
	d := NewDebouncer(10*time.Millisecond, func(b Batch) { got <- b })

	d.Add("/w/a.ltd", fsnotify.Write)
	d.Stop()
	d.Add("/w/b.ltd", fsnotify.Write)

	select {
	case b := <-got:
		t.Errorf("expected no batch after stop, got %+v", b)
	case <-time.After(100 * time.Millisecond):
	}
}
