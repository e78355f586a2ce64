// Package network reports connectivity transitions to the offline cache.
package network

import (
	"slices"
	"sync"
)

// Handler receives the new reachability state on every transition.
type Handler func(online bool)

// Monitor is the host environment's connectivity signal.
type Monitor interface {
	// Online returns the current connectivity snapshot.
	Online() bool
	// Subscribe registers h for transitions. The returned function removes it.
	Subscribe(h Handler) (unsubscribe func())
}

// make sure Manual implements the Monitor interface
var _ Monitor = (*Manual)(nil)

// Manual is a push-driven Monitor: the host calls SetOnline whenever it
// observes a connectivity change. Only real transitions reach subscribers.
type Manual struct {
	notifyMu sync.Mutex // orders deliveries of concurrent transitions

	mu       sync.Mutex
	online   bool
	nextID   int
	handlers map[int]Handler
}

// NewManual returns a Manual monitor starting in the given state.
func NewManual(online bool) *Manual {
	return &Manual{
		online:   online,
		handlers: make(map[int]Handler),
	}
}

// Online returns the current state.
func (m *Manual) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.online
}

// Subscribe registers h.
func (m *Manual) Subscribe(h Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	m.handlers[id] = h

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.handlers, id)
	}
}

// Subscribers returns the number of registered handlers.
func (m *Manual) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.handlers)
}

// SetOnline records the new state and notifies subscribers synchronously,
// in registration order, if the state changed. Handlers must not call SetOnline.
func (m *Manual) SetOnline(online bool) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()

		return
	}

	m.online = online

	ids := make([]int, 0, len(m.handlers))
	for id := range m.handlers {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, m.handlers[id])
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(online)
	}
}
