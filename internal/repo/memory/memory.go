// Package memory provides the reference in-memory drawing repository.
// Hosts without persistence use it directly; it also pins down the
// ordering and notification semantics the other backends must match.
package memory

import (
	"fmt"
	"sync"

	"chartkit/internal/model"
)

// Repo is a goroutine-safe, insertion-ordered drawing store.
type Repo struct {
	mu        sync.RWMutex
	items     []model.DrawingConfig
	listeners map[int]func()
	nextLis   int
}

// New creates an empty repository.
func New() *Repo {
	return &Repo{listeners: make(map[int]func())}
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

// Add appends cfg.
func (r *Repo) Add(cfg model.DrawingConfig) error {
	r.mu.Lock()
	r.items = append(r.items, cfg.Clone())
	r.mu.Unlock()
	r.notify()
	return nil
}

// UpdateAt replaces the config at index.
func (r *Repo) UpdateAt(index int, cfg model.DrawingConfig) error {
	r.mu.Lock()
	if index < 0 || index >= len(r.items) {
		n := len(r.items)
		r.mu.Unlock()
		return fmt.Errorf("memory: update index %d out of range [0,%d)", index, n)
	}
	r.items[index] = cfg.Clone()
	r.mu.Unlock()
	r.notify()
	return nil
}

// RemoveAt deletes the config at index.
func (r *Repo) RemoveAt(index int) error {
	r.mu.Lock()
	if index < 0 || index >= len(r.items) {
		n := len(r.items)
		r.mu.Unlock()
		return fmt.Errorf("memory: remove index %d out of range [0,%d)", index, n)
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

// Close is a no-op for the in-memory backend.
func (r *Repo) Close() error { return nil }

// notify fires all listeners outside the lock so a listener may call
// back into the repository.
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
