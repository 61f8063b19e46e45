package web

import "sync"

// Hub fans frames out to every connected client. Each subscriber holds at
// most one pending frame; a slow reader only ever sees the newest one.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Frame]struct{}
	last *Frame
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Frame]struct{})}
}

// Subscribe registers a new listener. The returned cancel func closes the
// channel and must be called once the listener is done.
func (h *Hub) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.last != nil {
		ch <- *h.last
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish replaces any pending frame of every subscriber with f.
func (h *Hub) Publish(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = &f
	for ch := range h.subs {
		select {
		case ch <- f:
			continue
		default:
		}
		// Drop the stale frame
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- f:
		default:
		}
	}
}

// Last returns the most recently published frame.
func (h *Hub) Last() (Frame, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return Frame{}, false
	}
	return *h.last, true
}

// Subscribers returns the number of connected listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
