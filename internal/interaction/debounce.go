package interaction

import (
	"log"
	"time"

	"chartkit/internal/model"
)

// schedulePersistLocked records cfg as the pending write for its drawing
// and (re)starts that drawing's quiescence timer. Each drawing ID owns an
// independent timer, so simultaneous edits to different drawings never
// cancel each other.
func (c *Coordinator) schedulePersistLocked(cfg model.DrawingConfig) {
	if c.repo == nil || cfg.ID == "" || c.closed {
		return
	}

	c.pending[cfg.ID] = cfg
	if timer, ok := c.timers[cfg.ID]; ok {
		timer.Reset(c.params.DebounceWindow)
		return
	}
	id := cfg.ID
	c.timers[id] = time.AfterFunc(c.params.DebounceWindow, func() {
		c.flushPersist(id)
	})
}

// flushPersist writes the latest pending config for id to the repository.
// Runs on the timer goroutine.
func (c *Coordinator) flushPersist(id string) {
	c.mu.Lock()
	cfg, ok := c.pending[id]
	delete(c.pending, id)
	delete(c.timers, id)
	closed := c.closed
	repo := c.repo
	var items []model.DrawingConfig
	if ok && !closed {
		items = repo.Items()
	}
	c.mu.Unlock()

	if !ok || closed {
		return
	}

	for i, item := range items {
		if item.ID == id {
			if err := repo.UpdateAt(i, cfg); err != nil {
				log.Printf("[interaction] persist drawing %s: %v", id, err)
			} else if c.OnPersistFlush != nil {
				c.OnPersistFlush()
			}
			return
		}
	}
	log.Printf("[interaction] persist drawing %s: no longer in repository", id)
}
