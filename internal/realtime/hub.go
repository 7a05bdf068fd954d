package realtime

import (
	"context"
	"sync"
)

// Hub is an in-process Broker.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan Event]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

func (h *Hub) Publish(_ context.Context, e Event) error {
	h.deliver(e)
	return nil
}

func (h *Hub) deliver(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[e.GroupID] {
		offer(ch, e)
	}
}

// offer puts e in ch, replacing a pending event if the buffer is full.
func offer(ch chan Event, e Event) {
	select {
	case ch <- e:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- e:
	default:
	}
}

func (h *Hub) Subscribe(groupID string) (<-chan Event, func()) {
	ch := make(chan Event, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.subs[groupID] == nil {
		h.subs[groupID] = make(map[chan Event]struct{})
	}
	h.subs[groupID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[groupID][ch]; !ok {
				return
			}
			delete(h.subs[groupID], ch)
			if len(h.subs[groupID]) == 0 {
				delete(h.subs, groupID)
			}
			close(ch)
		})
	}
}

// Subscribers reports the number of live subscriptions for groupID.
func (h *Hub) Subscribers(groupID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[groupID])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for groupID, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, groupID)
	}
}
