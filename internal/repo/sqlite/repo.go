// Package sqlite persists drawing configs in a SQLite database. The
// in-process cache mirrors the table so reads never touch the database;
// mutations write through and then notify listeners.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"chartkit/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Config configures the SQLite repository.
type Config struct {
	// DBPath is the database file, e.g. "data/drawings.db".
	DBPath string

	// ChartID scopes drawings to one chart. Defaults to "default".
	ChartID string
}

// Repo is a write-through SQLite drawing repository.
type Repo struct {
	db      *sql.DB
	chartID string

	mu        sync.RWMutex
	items     []model.DrawingConfig
	listeners map[int]func()
	nextLis   int
}

// New opens (creating if needed) the database with WAL mode and loads
// the chart's drawings into the cache.
func New(cfg Config) (*Repo, error) {
	if cfg.ChartID == "" {
		cfg.ChartID = "default"
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer pool, same as every other sqlite consumer here.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	r := &Repo{db: db, chartID: cfg.ChartID, listeners: make(map[int]func())}
	if err := r.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite load: %w", err)
	}

	log.Printf("[sqlite] opened drawing store at %s (%d drawings, chart=%s)",
		cfg.DBPath, len(r.items), cfg.ChartID)
	return r, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS drawings (
			chart_id  TEXT    NOT NULL,
			id        TEXT    NOT NULL,
			position  INTEGER NOT NULL,
			tool      TEXT    NOT NULL,
			data      TEXT    NOT NULL,
			PRIMARY KEY (chart_id, id)
		);
		CREATE INDEX IF NOT EXISTS idx_drawings_order
			ON drawings (chart_id, position);
	`)
	return err
}

func (r *Repo) load() error {
	rows, err := r.db.Query(
		`SELECT data FROM drawings WHERE chart_id = ? ORDER BY position`, r.chartID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var items []model.DrawingConfig
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return err
		}
		var cfg model.DrawingConfig
		if err := json.Unmarshal([]byte(data), &cfg); err != nil {
			log.Printf("[sqlite] skipping unreadable drawing row: %v", err)
			continue
		}
		items = append(items, cfg)
	}
	r.items = items
	return rows.Err()
}

// Items returns a deep-copied snapshot in insertion order.
func (r *Repo) Items() []model.DrawingConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.DrawingConfig, len(r.items))
	for i, cfg := range r.items {
		out[i] = cfg.Clone()
	}
	return out
}

// Add appends cfg and writes it through.
func (r *Repo) Add(cfg model.DrawingConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("sqlite marshal: %w", err)
	}

	r.mu.Lock()
	pos := len(r.items)
	_, err = r.db.Exec(
		`INSERT OR REPLACE INTO drawings (chart_id, id, position, tool, data) VALUES (?, ?, ?, ?, ?)`,
		r.chartID, cfg.ID, pos, cfg.Tool, string(data))
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("sqlite insert: %w", err)
	}
	r.items = append(r.items, cfg.Clone())
	r.mu.Unlock()

	r.notify()
	return nil
}

// UpdateAt replaces the config at index and writes it through.
func (r *Repo) UpdateAt(index int, cfg model.DrawingConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("sqlite marshal: %w", err)
	}

	r.mu.Lock()
	if index < 0 || index >= len(r.items) {
		n := len(r.items)
		r.mu.Unlock()
		return fmt.Errorf("sqlite: update index %d out of range [0,%d)", index, n)
	}
	prevID := r.items[index].ID
	_, err = r.db.Exec(
		`UPDATE drawings SET id = ?, tool = ?, data = ? WHERE chart_id = ? AND id = ?`,
		cfg.ID, cfg.Tool, string(data), r.chartID, prevID)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("sqlite update: %w", err)
	}
	r.items[index] = cfg.Clone()
	r.mu.Unlock()

	r.notify()
	return nil
}

// RemoveAt deletes the config at index and renumbers later positions.
func (r *Repo) RemoveAt(index int) error {
	r.mu.Lock()
	if index < 0 || index >= len(r.items) {
		n := len(r.items)
		r.mu.Unlock()
		return fmt.Errorf("sqlite: remove index %d out of range [0,%d)", index, n)
	}
	id := r.items[index].ID

	tx, err := r.db.Begin()
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("sqlite begin: %w", err)
	}
	if _, err := tx.Exec(
		`DELETE FROM drawings WHERE chart_id = ? AND id = ?`, r.chartID, id); err != nil {
		tx.Rollback()
		r.mu.Unlock()
		return fmt.Errorf("sqlite delete: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE drawings SET position = position - 1 WHERE chart_id = ? AND position > ?`,
		r.chartID, index); err != nil {
		tx.Rollback()
		r.mu.Unlock()
		return fmt.Errorf("sqlite renumber: %w", err)
	}
	if err := tx.Commit(); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("sqlite commit: %w", err)
	}
	r.items = append(r.items[:index], r.items[index+1:]...)
	r.mu.Unlock()

	r.notify()
	return nil
}

// Subscribe registers a mutation listener.
func (r *Repo) Subscribe(fn func()) (cancel func()) {
	r.mu.Lock()
	id := r.nextLis
	r.nextLis++
	r.listeners[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Maintain compacts the database. Called by the host's janitor.
func (r *Repo) Maintain() error {
	if _, err := r.db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("sqlite vacuum: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for health checks.
func (r *Repo) DB() *sql.DB { return r.db }

// Close closes the database.
func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) notify() {
	r.mu.RLock()
	fns := make([]func(), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

var _ model.DrawingRepository = (*Repo)(nil)
