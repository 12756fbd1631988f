// Package changefeed fans committed row changes out to per-owner subscribers.
package changefeed

import (
	"sync"

	"budgetwise/internal/logger"
	"budgetwise/internal/models"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Publisher is implemented by anything that can broadcast change events.
type Publisher interface {
	Publish(event models.ChangeEvent)
}

// Hub delivers each published event to every subscriber of the event's owner.
// Delivery never blocks the publisher: a subscriber whose queue is full misses
// the event and is expected to catch up on its next poll.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]chan models.ChangeEvent
	nextID uint64
	buffer int
}

// NewHub creates a Hub with the given per-subscriber buffer (DefaultBuffer if <= 0).
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[uint64]chan models.ChangeEvent),
		buffer: buffer,
	}
}

// Subscribe registers a subscriber for ownerID. The returned cancel func
// removes the subscription and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(ownerID string) (<-chan models.ChangeEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan models.ChangeEvent, h.buffer)
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[uint64]chan models.ChangeEvent)
	}
	h.subs[ownerID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[ownerID], id)
			if len(h.subs[ownerID]) == 0 {
				delete(h.subs, ownerID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish implements Publisher.
func (h *Hub) Publish(event models.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs[event.OwnerID] {
		select {
		case ch <- event:
		default:
			logger.Get().Warnw("dropping change event for slow subscriber",
				"owner_id", event.OwnerID,
				"subscriber", id,
				"table", event.Table,
				"kind", event.Kind,
			)
		}
	}
}

// Subscribers returns the number of live subscriptions for ownerID.
func (h *Hub) Subscribers(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ownerID])
}
