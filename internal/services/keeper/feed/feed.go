// Package feed fans committed log entries out to live viewers.
package feed

import (
	"log"
	"sync"

	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
)

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 64

// Hub broadcasts entries to every subscriber. Publish never blocks: a
// subscriber whose queue is full misses the entry.
type Hub struct {
	mu          sync.Mutex
	buffer      int
	closed      bool
	subscribers map[*Subscription]struct{}
}

// NewHub builds a hub with the given per-subscriber buffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer:      buffer,
		subscribers: make(map[*Subscription]struct{}),
	}
}

// Subscription is one viewer's queue.
type Subscription struct {
	hub     *Hub
	events  chan auditlog.Entry
	once    sync.Once
	mu      sync.Mutex
	dropped int
}

// Subscribe registers a new viewer. On a closed hub the returned
// subscription's channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{hub: h, events: make(chan auditlog.Entry, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(sub.events) })
		return sub
	}
	h.subscribers[sub] = struct{}{}
	return sub
}

// Events returns the receive side of the subscription queue.
func (s *Subscription) Events() <-chan auditlog.Entry {
	return s.events
}

// Dropped reports how many entries were skipped because the queue was full.
func (s *Subscription) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close unsubscribes and closes the queue. It is safe to call twice.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subscribers, s)
	s.hub.mu.Unlock()
	s.once.Do(func() { close(s.events) })
}

// Publish delivers entries, oldest first, to every subscriber.
func (h *Hub) Publish(entries ...auditlog.Entry) {
	if h == nil || len(entries) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for sub := range h.subscribers {
		for _, entry := range entries {
			select {
			case sub.events <- entry:
			default:
				sub.mu.Lock()
				sub.dropped++
				sub.mu.Unlock()
				log.Printf("keeper feed: subscriber queue full, dropped log %d", entry.ID)
			}
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close closes every subscription and rejects further publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.subscribers = map[*Subscription]struct{}{}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() { close(sub.events) })
	}
}
