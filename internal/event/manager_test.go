package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchReachesSubscribers(t *testing.T) {
	m := NewManager(nil)
	var got []Event
	m.Subscribe(TypeDocumentChanged, func(e Event) bool { got = append(got, e); return false })
	id := m.Subscribe(TypeDocumentChanged, func(e Event) bool { got = append(got, e); return false })

	m.Dispatch(TypeDocumentChanged, DocumentChangedData{Op: "type"})
	require.Len(t, got, 2)
	assert.Equal(t, "type", got[0].Data.(DocumentChangedData).Op)

	m.Unsubscribe(id)
	m.Dispatch(TypeDocumentChanged, DocumentChangedData{Op: "enter"})
	assert.Len(t, got, 3)

	m.Dispatch(TypeAppQuit, nil)
	assert.Len(t, got, 3)
}

func TestDebouncedSubscriptionCoalescesBursts(t *testing.T) {
	m := NewManager(nil)
	var mu sync.Mutex
	var ops []string
	m.SubscribeDebounced(TypeDocumentChanged, time.Hour, func(e Event) bool {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, e.Data.(DocumentChangedData).Op)
		return false
	})

	for _, op := range []string{"a", "b", "c"} {
		m.Dispatch(TypeDocumentChanged, DocumentChangedData{Op: op})
	}
	assert.Empty(t, ops)

	assert.Equal(t, 1, m.Flush())
	assert.Equal(t, []string{"c"}, ops)
	assert.Equal(t, 0, m.Flush())
}

func TestDebouncedHandlersRunThroughPoster(t *testing.T) {
	posted := make(chan func(), 1)
	m := NewManager(func(fn func()) { posted <- fn })
	ran := false
	m.SubscribeDebounced(TypeDocumentChanged, time.Millisecond, func(Event) bool { ran = true; return false })

	m.Dispatch(TypeDocumentChanged, DocumentChangedData{})
	select {
	case fn := <-posted:
		assert.False(t, ran)
		fn()
		assert.True(t, ran)
	case <-time.After(time.Second):
		t.Fatal("debounced handler was never posted")
	}
}

func TestUnsubscribeDropsPendingDebouncedCall(t *testing.T) {
	m := NewManager(nil)
	ran := false
	id := m.SubscribeDebounced(TypeDocumentChanged, time.Hour, func(Event) bool { ran = true; return false })
	m.Dispatch(TypeDocumentChanged, nil)
	m.Unsubscribe(id)
	assert.Equal(t, 0, m.Flush())
	assert.False(t, ran)
}
