// Package redis persists drawing configs in Redis so several chart
// server instances can edit the same chart. The full config list is
// stored as one JSON blob per chart (the lists are small — tens of
// drawings, not thousands) and a PubSub channel fans mutation
// notifications out to all instances. Writes go through a circuit
// breaker so a flapping Redis degrades to in-memory behavior instead of
// stalling the interaction loop.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"chartkit/internal/model"
)

const writeTimeout = 2 * time.Second

// Config configures the Redis repository.
type Config struct {
	// ChartID scopes drawings to one chart. Defaults to "default".
	ChartID string

	// BreakerMaxFailures / BreakerResetTimeout tune the circuit breaker.
	// Defaults: 5 failures, 10s.
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration
}

func (c *Config) defaults() {
	if c.ChartID == "" {
		c.ChartID = "default"
	}
	if c.BreakerMaxFailures == 0 {
		c.BreakerMaxFailures = 5
	}
	if c.BreakerResetTimeout == 0 {
		c.BreakerResetTimeout = 10 * time.Second
	}
}

// Repo is a Redis-backed drawing repository with a local cache.
type Repo struct {
	rdb     *goredis.Client
	chartID string
	breaker *CircuitBreaker

	mu        sync.RWMutex
	items     []model.DrawingConfig
	listeners map[int]func()
	nextLis   int

	cancelSub context.CancelFunc
}

// Breaker exposes the write circuit breaker so hosts can observe its
// state transitions.
func (r *Repo) Breaker() *CircuitBreaker { return r.breaker }

func (r *Repo) key() string     { return "chart:drawings:" + r.chartID }
func (r *Repo) channel() string { return "chart:drawings:notify:" + r.chartID }

// New creates a Repo over an existing Redis client, loads the current
// blob, and starts the cross-instance notification subscriber.
func New(rdb *goredis.Client, cfg Config) (*Repo, error) {
	cfg.defaults()
	r := &Repo{
		rdb:       rdb,
		chartID:   cfg.ChartID,
		breaker:   NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout),
		listeners: make(map[int]func()),
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.reload(ctx); err != nil && err != goredis.Nil {
		return nil, fmt.Errorf("redis load drawings: %w", err)
	}

	subCtx, cancelSub := context.WithCancel(context.Background())
	r.cancelSub = cancelSub
	go r.subscribeLoop(subCtx)

	log.Printf("[redisrepo] loaded %d drawings (chart=%s)", len(r.items), r.chartID)
	return r, nil
}

// reload replaces the cache with the blob currently in Redis.
func (r *Repo) reload(ctx context.Context) error {
	data, err := r.rdb.Get(ctx, r.key()).Result()
	if err != nil {
		return err
	}
	var items []model.DrawingConfig
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return fmt.Errorf("redis unmarshal drawings: %w", err)
	}
	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
	return nil
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

// Add appends cfg and stores the new blob.
func (r *Repo) Add(cfg model.DrawingConfig) error {
	return r.mutate(func(items []model.DrawingConfig) ([]model.DrawingConfig, error) {
		return append(items, cfg.Clone()), nil
	})
}

// UpdateAt replaces the config at index and stores the new blob.
func (r *Repo) UpdateAt(index int, cfg model.DrawingConfig) error {
	return r.mutate(func(items []model.DrawingConfig) ([]model.DrawingConfig, error) {
		if index < 0 || index >= len(items) {
			return nil, fmt.Errorf("redis: update index %d out of range [0,%d)", index, len(items))
		}
		items[index] = cfg.Clone()
		return items, nil
	})
}

// RemoveAt deletes the config at index and stores the new blob.
func (r *Repo) RemoveAt(index int) error {
	return r.mutate(func(items []model.DrawingConfig) ([]model.DrawingConfig, error) {
		if index < 0 || index >= len(items) {
			return nil, fmt.Errorf("redis: remove index %d out of range [0,%d)", index, len(items))
		}
		return append(items[:index], items[index+1:]...), nil
	})
}

// mutate applies fn to the cached list, writes the result through the
// breaker, publishes the cross-instance notification, and fires local
// listeners. The cache is updated even when the breaker rejects the
// write so local editing keeps working through an outage.
func (r *Repo) mutate(fn func([]model.DrawingConfig) ([]model.DrawingConfig, error)) error {
	r.mu.Lock()
	next, err := fn(r.items)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.items = next
	data, err := json.Marshal(next)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("redis marshal drawings: %w", err)
	}

	err = r.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := r.rdb.Set(ctx, r.key(), data, 0).Err(); err != nil {
			return err
		}
		return r.rdb.Publish(ctx, r.channel(), "changed").Err()
	})
	if err != nil {
		log.Printf("[redisrepo] WARNING: drawing write not persisted: %v", err)
	}

	r.notify()
	return nil
}

// subscribeLoop refreshes the cache when another instance mutates the
// chart, then fires local listeners.
func (r *Repo) subscribeLoop(ctx context.Context) {
	sub := r.rdb.Subscribe(ctx, r.channel())
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			_ = msg
			reloadCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			if err := r.reload(reloadCtx); err != nil && err != goredis.Nil {
				log.Printf("[redisrepo] reload after notify: %v", err)
			}
			cancel()
			r.notify()
		}
	}
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

// Close stops the notification subscriber. The shared Redis client is
// owned by the caller and stays open.
func (r *Repo) Close() error {
	if r.cancelSub != nil {
		r.cancelSub()
	}
	return nil
}

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
