package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/zeusync/worldmirror/internal/core/models"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
)

// session is one connected client. Frames are queued on send and written by
// the transport-specific pump.
type session struct {
	id     string
	entity models.Entity
	send   chan []byte
}

// Hub fans encoded frames out to every session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
	queue    int
	logger   log.Log
}

// NewHub creates a hub whose sessions buffer up to queue frames.
func NewHub(queue int, logger log.Log) *Hub {
	if queue < 1 {
		queue = 1
	}
	return &Hub{
		sessions: make(map[string]*session),
		queue:    queue,
		logger:   logger,
	}
}

// register adds a session for entity. first is queued before any broadcast
// can reach the session.
func (h *Hub) register(entity models.Entity, first []byte) *session {
	s := &session{
		id:     uuid.NewString(),
		entity: entity,
		send:   make(chan []byte, h.queue),
	}
	s.send <- first

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()

	h.logger.Info("Client connected", log.String("session", s.id), log.Uint32("entity", uint32(entity)))
	return s
}

// unregister removes s and closes its queue. Safe to call more than once.
func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	_, ok := h.sessions[s.id]
	delete(h.sessions, s.id)
	h.mu.Unlock()

	if ok {
		close(s.send)
		h.logger.Info("Client disconnected", log.String("session", s.id))
	}
}

// Broadcast queues frame on every session. A session whose queue is full
// misses the frame.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.sessions {
		select {
		case s.send <- frame:
		default:
			h.logger.Warn("Session queue full, dropping frame", log.String("session", s.id))
		}
	}
}

// Len returns the number of sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close unregisters every session.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*session)
	h.mu.Unlock()

	for _, s := range sessions {
		close(s.send)
	}
}
