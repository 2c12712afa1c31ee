package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogAppendAndSnapshot(t *testing.T) {
	l := NewEventLog(10)

	first := l.Append(map[string]any{"eventType": "gtm.pageView"})
	second := l.Append(map[string]any{"eventType": "gtm.buttonClick"})

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.Timestamp.IsZero())

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "gtm.pageView", snap[0].Data["eventType"])
	assert.Equal(t, "gtm.buttonClick", snap[1].Data["eventType"])
}

func TestEventLogEvictsOldestAtCapacity(t *testing.T) {
	l := NewEventLog(1000)

	for i := 0; i < 1001; i++ {
		l.Append(map[string]any{"seq": i})
	}

	snap := l.Snapshot()
	require.Len(t, snap, 1000)

	// First entry was evicted; entries 1..1000 remain in order.
	assert.Equal(t, 1, snap[0].Data["seq"])
	assert.Equal(t, 1000, snap[len(snap)-1].Data["seq"])
	for i, entry := range snap {
		require.Equal(t, i+1, entry.Data["seq"], fmt.Sprintf("entry %d out of order", i))
	}
}

func TestEventLogSnapshotIsACopy(t *testing.T) {
	l := NewEventLog(10)
	l.Append(map[string]any{"eventType": "gtm.pageView"})

	snap := l.Snapshot()
	snap[0].Data = nil

	assert.NotNil(t, l.Snapshot()[0].Data)
}

func TestEventLogClear(t *testing.T) {
	l := NewEventLog(10)
	l.Append(map[string]any{"a": 1})
	l.Append(map[string]any{"b": 2})
	require.Equal(t, 2, l.Len())

	l.Clear()
	assert.Zero(t, l.Len())
	assert.Empty(t, l.Snapshot())
}

func TestEventLogDefaultCapacity(t *testing.T) {
	l := NewEventLog(0)
	assert.Equal(t, DefaultEventLogCapacity, l.capacity)
}
