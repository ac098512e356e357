package events

import (
	"context"
	"log"
	"sync"
)

// Hub fans events out to in-process subscribers, keyed by order id
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint]map[chan Event]struct{}
	buffer int
}

// NewHub creates a hub whose subscriber channels hold buffer events
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[uint]map[chan Event]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers interest in one order. Call the returned function to
// unsubscribe; it closes the channel.
func (h *Hub) Subscribe(orderID uint) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.subs[orderID] == nil {
		h.subs[orderID] = make(map[chan Event]struct{})
	}
	h.subs[orderID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if m := h.subs[orderID]; m != nil {
				delete(m, ch)
				if len(m) == 0 {
					delete(h.subs, orderID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers evt to every subscriber of its order without blocking.
// Subscribers that are not keeping up miss the event.
func (h *Hub) Publish(_ context.Context, evt Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[evt.OrderID] {
		select {
		case ch <- evt:
		default:
			log.Printf("events: subscriber buffer full for order %d, dropping %s", evt.OrderID, evt.Type)
		}
	}
	return nil
}

// Subscribers returns how many subscribers an order has
func (h *Hub) Subscribers(orderID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orderID])
}
