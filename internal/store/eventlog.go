package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultEventLogCapacity bounds the raw event buffer.
const DefaultEventLogCapacity = 1000

// RawEvent is one entry in the raw event log: the payload as received,
// stamped on arrival.
type RawEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// EventLog is an append-only FIFO buffer of recently received payloads.
// Once capacity is exceeded the oldest entries are evicted first. It is
// independent of the aggregate store and only feeds the raw read endpoint.
type EventLog struct {
	mu       sync.Mutex
	capacity int
	entries  []RawEvent
}

// NewEventLog creates an event log. A non-positive capacity falls back
// to DefaultEventLogCapacity.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultEventLogCapacity
	}
	return &EventLog{
		capacity: capacity,
		entries:  make([]RawEvent, 0, capacity),
	}
}

// Append records a received payload and returns the stored entry.
func (l *EventLog) Append(data map[string]any) RawEvent {
	entry := RawEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Data:      data,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= l.capacity {
		evict := len(l.entries) - l.capacity + 1
		l.entries = append(l.entries[:0], l.entries[evict:]...)
	}
	l.entries = append(l.entries, entry)
	return entry
}

// Snapshot returns a copy of all entries, oldest first.
func (l *EventLog) Snapshot() []RawEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]RawEvent, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of buffered entries.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear empties the buffer.
func (l *EventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}
