package server

import (
	"context"
	"encoding/json"
	"sync"

	"mcphost/pkg/logging"

	"github.com/google/uuid"
)

// subscriber is one attached event stream. Its queue is unbounded so a slow
// reader never blocks a broadcast.
type subscriber struct {
	id string

	mu     sync.Mutex
	queue  []json.RawMessage
	wake   chan struct{}
	closed bool
}

func newSubscriber() *subscriber {
	return &subscriber{
		id:   uuid.NewString(),
		wake: make(chan struct{}, 1),
	}
}

func (s *subscriber) push(msg json.RawMessage) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next blocks until messages are queued or ctx is done and returns everything queued.
func (s *subscriber) next(ctx context.Context) ([]json.RawMessage, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			batch := s.queue
			s.queue = nil
			s.mu.Unlock()
			return batch, nil
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.mu.Unlock()
}

// Hub fans JSON-RPC envelopes out to every attached event stream.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
}

// NewHub creates a hub without subscribers.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]*subscriber)}
}

func (h *Hub) subscribe() *subscriber {
	sub := newSubscriber()
	h.mu.Lock()
	h.subscribers[sub.id] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	logging.Debug("Hub", "Subscriber %s attached (%d total)", sub.id, count)
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub.id)
	count := len(h.subscribers)
	h.mu.Unlock()
	sub.close()

	logging.Debug("Hub", "Subscriber %s detached (%d left)", sub.id, count)
}

// Count returns the number of attached subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Broadcast queues envelope on every subscriber. With no subscriber attached
// the envelope is dropped.
func (h *Hub) Broadcast(envelope any) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers {
		sub.push(data)
	}
	logging.Debug("Hub", "Broadcast %d bytes to %d subscriber(s)", len(data), len(h.subscribers))
	return nil
}
