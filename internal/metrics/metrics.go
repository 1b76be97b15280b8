// Package metrics exposes Prometheus metrics and a health endpoint for
// the chart interaction engine hosts.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the chart engine.
type Metrics struct {
	// Gesture pipeline
	PointerEventsTotal *prometheus.CounterVec // labels: kind
	GesturesTotal      *prometheus.CounterVec // labels: gesture

	// Interaction mode machine
	ModeTransitions *prometheus.CounterVec // labels: from, to
	ActiveSessions  prometheus.Gauge

	// Crosshair
	CrosshairShownTotal   prometheus.Counter
	VirtualPointsTotal    prometheus.Counter
	SnapshotsDroppedTotal prometheus.Counter

	// Drawing persistence
	DrawingWritesTotal   *prometheus.CounterVec // labels: op
	DebounceFlushesTotal prometheus.Counter
	DebounceDiscarded    prometheus.Counter

	// Redis circuit breaker
	RedisBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisBreakerTrips prometheus.Counter
}

// New registers and returns all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		PointerEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartkit_pointer_events_total",
			Help: "Raw pointer events received (by kind)",
		}, []string{"kind"}),
		GesturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartkit_gestures_total",
			Help: "Recognized gestures (pan, long_press, tap)",
		}, []string{"gesture"}),
		ModeTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartkit_mode_transitions_total",
			Help: "Interaction mode transitions",
		}, []string{"from", "to"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartkit_active_sessions",
			Help: "Connected chart sessions",
		}),
		CrosshairShownTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartkit_crosshair_shown_total",
			Help: "Crosshair visibility rising edges",
		}),
		VirtualPointsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartkit_virtual_points_total",
			Help: "Virtual points synthesized outside the data range",
		}),
		SnapshotsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartkit_snapshots_dropped_total",
			Help: "State snapshots dropped for slow subscribers",
		}),
		DrawingWritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartkit_drawing_writes_total",
			Help: "Drawing repository writes (add, update, remove)",
		}, []string{"op"}),
		DebounceFlushesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartkit_debounce_flushes_total",
			Help: "Debounced drawing edits flushed to the repository",
		}),
		DebounceDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartkit_debounce_discarded_total",
			Help: "Pending drawing edits discarded at session teardown",
		}),
		RedisBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartkit_redis_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartkit_redis_breaker_trips_total",
			Help: "Redis circuit breaker open transitions",
		}),
	}

	prometheus.MustRegister(
		m.PointerEventsTotal,
		m.GesturesTotal,
		m.ModeTransitions,
		m.ActiveSessions,
		m.CrosshairShownTotal,
		m.VirtualPointsTotal,
		m.SnapshotsDroppedTotal,
		m.DrawingWritesTotal,
		m.DebounceFlushesTotal,
		m.DebounceDiscarded,
		m.RedisBreakerState,
		m.RedisBreakerTrips,
	)

	return m
}

// HealthStatus represents the host's dependency health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool
	SQLiteOK       bool
	Sessions       int

	RedisLatencyMs  float64
	SQLiteLatencyMs float64
	LastCheckAt     time.Time
	StartedAt       time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

// SetSessions records the current session count.
func (h *HealthStatus) SetSessions(n int) {
	h.mu.Lock()
	h.Sessions = n
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the drawing database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Either rdb or db
// may be nil when that backend is not configured.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				if rdb != nil {
					h.CheckRedis(checkCtx, rdb)
				}
				if db != nil {
					h.CheckSQLite(checkCtx, db)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP implements the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	status := struct {
		Uptime          string    `json:"uptime"`
		Sessions        int       `json:"sessions"`
		RedisConnected  bool      `json:"redis_connected"`
		RedisLatencyMs  float64   `json:"redis_latency_ms"`
		SQLiteOK        bool      `json:"sqlite_ok"`
		SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
		LastCheckAt     time.Time `json:"last_check_at"`
	}{
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		Sessions:        h.Sessions,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt,
	}
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
