// Package store persists snapshots three ways: a bounded in-memory ring,
// a daily JSON-lines file, and a sqlite history archive.
package store

import (
	"sync"
	"time"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

// DefaultCapacity is the stock ring size when none is configured.
const DefaultCapacity = 1000

// Buffer is a bounded FIFO of snapshots. The monitor loop is its only
// writer; the mutex exists so API readers can take consistent copies.
type Buffer struct {
	mu    sync.Mutex
	items []model.Snapshot
	cap   int
}

// NewBuffer creates a buffer holding at most capacity snapshots.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Buffer{cap: capacity}
}

// Add appends a snapshot, evicting the oldest entry when full.
func (b *Buffer) Add(s model.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, s)
	if len(b.items) > b.cap {
		b.items = b.items[1:]
	}
}

// Len returns the current number of buffered snapshots.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Capacity returns the configured maximum.
func (b *Buffer) Capacity() int { return b.cap }

// Snapshots returns a copy of the buffered snapshots, oldest first.
func (b *Buffer) Snapshots() []model.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Snapshot, len(b.items))
	copy(out, b.items)
	return out
}

// Since returns the buffered snapshots taken after t, oldest first.
func (b *Buffer) Since(t time.Time) []model.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.Snapshot
	for _, s := range b.items {
		if s.Timestamp.After(t) {
			out = append(out, s)
		}
	}
	return out
}

// Latest returns the most recent snapshot, if any.
func (b *Buffer) Latest() (model.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return model.Snapshot{}, false
	}
	return b.items[len(b.items)-1], true
}
