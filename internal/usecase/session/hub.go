package session

import (
	"sync"

	"github.com/google/uuid"
)

// Hub fans session snapshots out to websocket subscribers. Each subscriber holds
// at most one pending snapshot; a newer one replaces it. A snapshot whose revision
// is not above the last one accepted for that subscriber is dropped.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[*subscriber]struct{}
}

type subscriber struct {
	ch chan Snapshot

	mu   sync.Mutex
	last uint64
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[*subscriber]struct{})}
}

// Subscribe registers a listener for a session. The returned function unsubscribes.
// The channel is closed when the session is closed or on unsubscribe.
func (h *Hub) Subscribe(sessionID uuid.UUID) (<-chan Snapshot, func()) {
	sub := &subscriber{ch: make(chan Snapshot, 1)}

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[sessionID]; ok {
				if _, ok := set[sub]; ok {
					delete(set, sub)
					close(sub.ch)
				}
				if len(set) == 0 {
					delete(h.subs, sessionID)
				}
			}
		})
	}
}

// Publish delivers snap to every subscriber of the session without blocking
func (h *Hub) Publish(sessionID uuid.UUID, snap Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[sessionID] {
		sub.offer(snap)
	}
}

// offer queues snap unless a newer revision was already accepted. Revision zero
// marks an unversioned snapshot and is always queued.
func (s *subscriber) offer(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Revision != 0 {
		if snap.Revision <= s.last {
			return
		}
		s.last = snap.Revision
	}

	select {
	case s.ch <- snap:
	default:
		// replace the stale pending snapshot
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- snap:
		default:
		}
	}
}

// CloseSession disconnects every subscriber of a session
func (h *Hub) CloseSession(sessionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		close(sub.ch)
	}
	delete(h.subs, sessionID)
}

// Subscribers returns the number of listeners of a session
func (h *Hub) Subscribers(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
