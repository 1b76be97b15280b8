// Package gateway hosts interaction engine sessions over WebSocket.
// Each connected client gets its own crosshair controller, coordinator
// and gesture recognizer; drawings are shared through the repository, so
// an edit by one client reaches every session (and every other server
// instance when the Redis backend is configured).
package gateway

import (
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chartkit/internal/gesture"
	"chartkit/internal/interaction"
	"chartkit/internal/logger"
	"chartkit/internal/metrics"
	"chartkit/internal/model"
	"chartkit/internal/series"
	"chartkit/internal/velocity"
)

// HubConfig configures the session hub.
type HubConfig struct {
	// TOTPSecret enables the auth handshake when non-empty.
	TOTPSecret string

	// Variant selects hover behavior for all sessions.
	Variant interaction.Variant

	// Engine tuning forwarded to each session.
	DebounceWindow time.Duration
	EdgeZone       float64
	EdgePanSpeed   float64
	Velocity       velocity.Params
	Gesture        gesture.Params
}

// Hub manages WebSocket sessions and fans drawing mutations out to all
// of them.
type Hub struct {
	cfg  HubConfig
	repo model.DrawingRepository
	data *series.Series

	Metrics *metrics.Metrics // optional

	mu       sync.RWMutex
	sessions map[*Session]bool
	seq      int64

	replay      *ReplayBuffer
	unsubscribe func()
}

// NewHub creates a Hub over the shared repository and chart data.
func NewHub(repo model.DrawingRepository, data *series.Series, cfg HubConfig) *Hub {
	h := &Hub{
		cfg:      cfg,
		repo:     repo,
		data:     data,
		sessions: make(map[*Session]bool),
		replay:   NewReplayBuffer(128),
	}
	if repo != nil {
		h.unsubscribe = repo.Subscribe(h.broadcastDrawings)
	}
	return h
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// HandleWS upgrades an HTTP request and runs a session on it.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] upgrade error: %v", err)
		return
	}

	s := newSession(h, conn)

	h.mu.Lock()
	h.sessions[s] = true
	count := len(h.sessions)
	h.mu.Unlock()

	if h.Metrics != nil {
		h.Metrics.ActiveSessions.Set(float64(count))
	}
	slog.Info("session connected",
		append(logger.LogWithSession(s.ctx), slog.Int("total", count))...)

	go s.writePump()
	go s.readPump()
	go s.forwardSnapshots()
	s.sendInitialState()
}

// removeSession drops a session from the registry.
func (h *Hub) removeSession(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	count := len(h.sessions)
	h.mu.Unlock()

	close(s.send)
	if h.Metrics != nil {
		h.Metrics.ActiveSessions.Set(float64(count))
	}
	slog.Info("session disconnected",
		append(logger.LogWithSession(s.ctx), slog.Int("total", count))...)
}

// currentSeq returns the latest broadcast sequence number.
func (h *Hub) currentSeq() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// broadcastDrawings pushes the current drawing list to every session.
// Runs whenever the repository reports a mutation, regardless of which
// session (or server instance) caused it.
func (h *Hub) broadcastDrawings() {
	items := h.repo.Items()

	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.mu.Unlock()

	data, err := json.Marshal(DrawingsEnvelope{Type: "drawings", Seq: seq, Items: items})
	if err != nil {
		log.Printf("[gateway] marshal drawings: %v", err)
		return
	}
	h.replay.Push(seq, data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		select {
		case s.send <- data:
		default:
			if h.Metrics != nil {
				h.Metrics.SnapshotsDroppedTotal.Inc()
			}
		}
	}
}

// Close tears down the repository subscription and all sessions.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()
	for _, s := range sessions {
		s.conn.Close()
	}
}
