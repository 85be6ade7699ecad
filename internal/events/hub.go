// Package events is the best-effort broadcast side channel: every successful
// send+record is announced to in-process SSE subscribers and, optionally, an
// AMQP fanout exchange. Dispatch correctness never depends on it.
package events

import (
	"sync"

	"github.com/unclebandit/mailmerge-backend/internal/model"
)

// Broadcaster announces a freshly appended delivery record. Fire-and-forget:
// implementations must not block dispatch and must swallow their own errors.
type Broadcaster interface {
	Publish(rec model.SentMail)
}

// Hub fans records out to in-process subscribers (the SSE handler). Slow
// subscribers lose events instead of blocking the dispatcher; there is no
// replay for listeners who connect late.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan model.SentMail
	nextID int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan model.SentMail)}
}

// Publish sends the record to every subscriber, dropping it for any whose
// buffer is full.
func (h *Hub) Publish(rec model.SentMail) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- rec:
		default:
		}
	}
}

// Subscribe registers a listener and returns its channel plus a cancel func
// that must be called when the listener goes away.
func (h *Hub) Subscribe() (<-chan model.SentMail, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan model.SentMail, 16)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

var _ Broadcaster = (*Hub)(nil)
