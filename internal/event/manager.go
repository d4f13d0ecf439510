// internal/event/manager.go
package event

import (
	"sync"
	"time"

	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/utils"
)

// Handler defines the function signature for event subscribers. The return
// value reports whether the event was consumed; dispatch ignores it for now.
type Handler func(e Event) bool

// SubscriptionID identifies a subscription for Unsubscribe.
type SubscriptionID int

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Manager handles event subscriptions and dispatching.
type Manager struct {
	mu       sync.RWMutex
	handlers map[Type][]subscription
	nextID   SubscriptionID
	post     func(func())

	debounced map[SubscriptionID]*debounced
}

type debounced struct {
	delay     time.Duration
	handler   Handler
	debouncer utils.Debouncer

	mu   sync.Mutex
	last *Event
}

// fire runs the handler with the last queued event, if it was not consumed
// by an earlier flush.
func (d *debounced) fire() bool {
	d.mu.Lock()
	e := d.last
	d.last = nil
	d.mu.Unlock()
	if e == nil {
		return false
	}
	d.handler(*e)
	return true
}

// NewManager creates a new event manager. Debounced handlers run through
// post, which hands the call to the owner's event loop; nil runs them on the
// timer goroutine.
func NewManager(post func(func())) *Manager {
	if post == nil {
		post = func(fn func()) { fn() }
	}
	return &Manager{
		handlers:  make(map[Type][]subscription),
		post:      post,
		debounced: make(map[SubscriptionID]*debounced),
	}
}

// Subscribe adds a handler function for a specific event type.
func (m *Manager) Subscribe(eventType Type, handler Handler) SubscriptionID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.handlers[eventType] = append(m.handlers[eventType], subscription{id: id, handler: handler})
	logger.DebugTagf("event", "Handler %d subscribed to %v", id, eventType)
	return id
}

// SubscribeDebounced adds a handler that runs once a burst of events has
// been quiet for delay, with the last event of the burst. A delay <= 0 makes
// it synchronous.
func (m *Manager) SubscribeDebounced(eventType Type, delay time.Duration, handler Handler) SubscriptionID {
	if delay <= 0 {
		return m.Subscribe(eventType, handler)
	}
	d := &debounced{delay: delay, handler: handler}
	id := m.Subscribe(eventType, func(e Event) bool {
		d.mu.Lock()
		d.last = &e
		d.mu.Unlock()
		d.debouncer.Debounce(d.delay, func() {
			m.post(func() { d.fire() })
		})
		return false
	})
	m.mu.Lock()
	m.debounced[id] = d
	m.mu.Unlock()
	return id
}

// Unsubscribe removes a subscription. A pending debounced call is dropped.
func (m *Manager) Unsubscribe(id SubscriptionID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.debounced[id]; ok {
		d.debouncer.Cancel()
		delete(m.debounced, id)
	}
	for t, subs := range m.handlers {
		for i, s := range subs {
			if s.id == id {
				m.handlers[t] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Flush runs every pending debounced handler now, on the caller's goroutine.
// It returns how many ran.
func (m *Manager) Flush() int {
	m.mu.RLock()
	pending := make([]*debounced, 0, len(m.debounced))
	for _, d := range m.debounced {
		pending = append(pending, d)
	}
	m.mu.RUnlock()

	ran := 0
	for _, d := range pending {
		d.debouncer.Cancel()
		if d.fire() {
			ran++
		}
	}
	return ran
}

// Dispatch sends an event to all registered handlers for its type.
// Handlers run synchronously on the caller's goroutine.
func (m *Manager) Dispatch(eventType Type, data interface{}) {
	event := Event{Type: eventType, Data: data}

	m.mu.RLock()
	subs := make([]subscription, len(m.handlers[eventType]))
	copy(subs, m.handlers[eventType])
	m.mu.RUnlock()

	if len(subs) == 0 {
		return
	}
	logger.DebugTagf("event", "Dispatching %v to %d handler(s)", eventType, len(subs))
	for _, s := range subs {
		s.handler(event)
	}
}
