// Package activity keeps a bounded in-memory log of task events.
package activity

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 100

// Entry kinds.
const (
	KindCreated = "task_created"
	KindUpdated = "task_updated"
	KindDeleted = "task_deleted"
)

// Entry is one recorded task event.
type Entry struct {
	TaskID    string    `json:"taskId"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed is a fixed-capacity log that drops its oldest entries first.
type Feed struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// NewFeed creates a feed holding at most capacity entries.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Record appends e, evicting the oldest entry when full.
func (f *Feed) Record(e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.entries) == f.capacity {
		copy(f.entries, f.entries[1:])
		f.entries = f.entries[:len(f.entries)-1]
	}
	f.entries = append(f.entries, e)
}

// Recent returns up to limit of the newest entries, oldest first.
// A non-positive limit returns everything.
func (f *Feed) Recent(limit int) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	start := 0
	if limit > 0 && limit < len(f.entries) {
		start = len(f.entries) - limit
	}
	result := make([]Entry, len(f.entries)-start)
	copy(result, f.entries[start:])
	return result
}

// Len returns the number of stored entries.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
