// Package listview holds the local record list behind a list view.
//
// Network results arrive asynchronously and may outlive the view or race
// with a delete. List drops what no longer applies instead of failing.
package listview

import (
	"sync"

	"github.com/clinicdesk/clinicdesk-go/internal/resource"
)

// List is the state of one mounted list view. It is safe for concurrent use.
type List struct {
	mu      sync.Mutex
	mounted bool
	records []resource.Record
}

// New returns a mounted, empty list.
func New() *List {
	return &List{mounted: true}
}

// Mount marks the view as showing.
func (l *List) Mount() {
	l.mu.Lock()
	l.mounted = true
	l.mu.Unlock()
}

// Unmount marks the view as gone; later commits are ignored.
func (l *List) Unmount() {
	l.mu.Lock()
	l.mounted = false
	l.mu.Unlock()
}

// Mounted reports whether the view is showing.
func (l *List) Mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mounted
}

// Commit replaces the whole list. It reports false, and changes nothing,
// when the view has been unmounted.
func (l *List) Commit(records []resource.Record) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.mounted {
		return false
	}
	l.records = append([]resource.Record(nil), records...)
	return true
}

// Apply swaps in a newer copy of a tracked record, matched by id. Updates for
// ids no longer in the list, or arriving after unmount, are dropped.
func (l *List) Apply(rec resource.Record) bool {
	id, ok := rec.ID()
	if !ok {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.mounted {
		return false
	}
	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	l.records[i] = rec
	return true
}

// Prepend puts a newly created record at the top of the list.
func (l *List) Prepend(rec resource.Record) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.mounted {
		return false
	}
	l.records = append([]resource.Record{rec}, l.records...)
	return true
}

// Remove drops the record with id. It reports whether one was tracked.
func (l *List) Remove(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	l.records = append(l.records[:i:i], l.records[i+1:]...)
	return true
}

// Records returns a copy of the current list.
func (l *List) Records() []resource.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]resource.Record(nil), l.records...)
}

// Len returns the number of tracked records.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

func (l *List) indexOf(id int64) int {
	for i, rec := range l.records {
		if rid, ok := rec.ID(); ok && rid == id {
			return i
		}
	}
	return -1
}
