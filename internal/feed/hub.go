// Package feed streams regeneration sweep progress to WebSocket subscribers.
package feed

import (
	"log/slog"
	"sync"

	"github.com/vnishchay/reasoning-game/internal/riddle"
)

const subscriberBuffer = 64

type subscriber struct {
	events chan riddle.SweepEvent
	quit   chan struct{}
}

// Hub fans sweep events out to subscribers. It implements riddle.SweepObserver.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	last   *riddle.SweepEvent
	closed bool
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		logger: logger,
	}
}

// OnSweepEvent delivers ev to every subscriber without blocking.
// A subscriber whose queue is full loses its oldest pending event.
func (h *Hub) OnSweepEvent(ev riddle.SweepEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &ev
	for sub := range h.subs {
		select {
		case sub.events <- ev:
			continue
		default:
		}

		select {
		case <-sub.events:
			h.logger.Debug("Feed subscriber queue full, dropped oldest event")
		default:
		}
		select {
		case sub.events <- ev:
		default:
			h.logger.Warn("Feed subscriber queue full, event dropped", "type", ev.Type)
		}
	}
}

// Last returns the most recent event, if any.
func (h *Hub) Last() (riddle.SweepEvent, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return riddle.SweepEvent{}, false
	}
	return *h.last, true
}

// Subscribers reports the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// subscribe registers a subscriber whose queue starts with the latest event, if any.
func (h *Hub) subscribe() (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	sub := &subscriber{
		events: make(chan riddle.SweepEvent, subscriberBuffer),
		quit:   make(chan struct{}),
	}
	if h.last != nil {
		sub.events <- *h.last
	}
	h.subs[sub] = struct{}{}
	h.logger.Info("Feed subscriber registered", "subscribers", len(h.subs))
	return sub, true
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	h.logger.Info("Feed subscriber unregistered", "subscribers", len(h.subs))
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		close(sub.quit)
		delete(h.subs, sub)
	}
}
