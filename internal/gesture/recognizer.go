// Package gesture converts a raw single-pointer event stream (down, move,
// up, leave) into the pan / long-press / tap / hover callbacks the
// interaction coordinator consumes. Classification is deliberately
// minimal: a movement dead zone separates taps from pans, and a hold
// timer separates pans from long-presses.
package gesture

import (
	"sync"
	"time"

	"chartkit/internal/model"
	"chartkit/internal/velocity"
)

const (
	// DefaultHoldDelay is how long a pointer must stay down inside the
	// dead zone before the gesture classifies as a long-press.
	DefaultHoldDelay = 500 * time.Millisecond

	// DefaultDeadZone is the movement radius, in px, inside which a
	// pressed pointer is still a potential tap or long-press.
	DefaultDeadZone = 4.0
)

type phase int

const (
	phaseIdle phase = iota
	phasePressed
	phasePanning
	phaseLongPress
)

// Params tunes the recognizer. Zero values select the defaults.
type Params struct {
	HoldDelay time.Duration
	DeadZone  float64
}

func (p *Params) defaults() {
	if p.HoldDelay == 0 {
		p.HoldDelay = DefaultHoldDelay
	}
	if p.DeadZone == 0 {
		p.DeadZone = DefaultDeadZone
	}
}

// Recognizer classifies one pointer stream. All hooks are optional.
// Mutex-guarded because the hold timer fires off the event loop.
type Recognizer struct {
	OnPanStart  func(pos model.Offset)
	OnPanUpdate func(pos model.Offset)
	OnPanEnd    func(pos model.Offset)
	OnPanCancel func()

	OnLongPressStart  func(pos model.Offset)
	OnLongPressUpdate func(pos model.Offset)
	OnLongPressEnd    func(vx, vy float64)

	OnTap       func(pos model.Offset)
	OnHover     func(pos model.Offset)
	OnHoverExit func()

	mu      sync.Mutex
	params  Params
	phase   phase
	downPos model.Offset
	hold    *time.Timer
	tracker *velocity.Tracker
}

// New creates a Recognizer with the given params.
func New(params Params) *Recognizer {
	params.defaults()
	return &Recognizer{
		params:  params,
		tracker: velocity.New(velocity.Params{}),
	}
}

// PointerDown begins a press at pos.
func (r *Recognizer) PointerDown(pos model.Offset, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelHoldLocked()
	r.phase = phasePressed
	r.downPos = pos
	r.tracker.Reset()
	r.tracker.AddSample(pos, now)

	r.hold = time.AfterFunc(r.params.HoldDelay, r.holdFired)
}

// PointerMove advances the stream. With no press active it is a hover.
func (r *Recognizer) PointerMove(pos model.Offset, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.phase {
	case phaseIdle:
		if r.OnHover != nil {
			r.OnHover(pos)
		}

	case phasePressed:
		r.tracker.AddSample(pos, now)
		if maxDelta(pos, r.downPos) <= r.params.DeadZone {
			return
		}
		// Escaped the dead zone before the hold fired: it's a pan.
		r.cancelHoldLocked()
		r.phase = phasePanning
		if r.OnPanStart != nil {
			r.OnPanStart(r.downPos)
		}
		if r.OnPanUpdate != nil {
			r.OnPanUpdate(pos)
		}

	case phasePanning:
		r.tracker.AddSample(pos, now)
		if r.OnPanUpdate != nil {
			r.OnPanUpdate(pos)
		}

	case phaseLongPress:
		r.tracker.AddSample(pos, now)
		if r.OnLongPressUpdate != nil {
			r.OnLongPressUpdate(pos)
		}
	}
}

// PointerUp releases the press at pos.
func (r *Recognizer) PointerUp(pos model.Offset, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelHoldLocked()
	switch r.phase {
	case phasePressed:
		if r.OnTap != nil {
			r.OnTap(pos)
		}
	case phasePanning:
		if r.OnPanEnd != nil {
			r.OnPanEnd(pos)
		}
	case phaseLongPress:
		vx, vy := r.tracker.Velocity()
		if r.OnLongPressEnd != nil {
			r.OnLongPressEnd(vx, vy)
		}
	}
	r.phase = phaseIdle
	r.tracker.Reset()
}

// PointerLeave handles the pointer leaving the canvas, cancelling any
// in-flight gesture.
func (r *Recognizer) PointerLeave() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelHoldLocked()
	switch r.phase {
	case phasePressed, phasePanning:
		if r.OnPanCancel != nil {
			r.OnPanCancel()
		}
	case phaseLongPress:
		if r.OnLongPressEnd != nil {
			r.OnLongPressEnd(0, 0)
		}
	}
	r.phase = phaseIdle
	r.tracker.Reset()
	if r.OnHoverExit != nil {
		r.OnHoverExit()
	}
}

// holdFired classifies the press as a long-press if it is still inside
// the dead zone when the hold delay elapses.
func (r *Recognizer) holdFired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != phasePressed {
		return
	}
	r.phase = phaseLongPress
	if r.OnLongPressStart != nil {
		r.OnLongPressStart(r.downPos)
	}
}

func (r *Recognizer) cancelHoldLocked() {
	if r.hold != nil {
		r.hold.Stop()
		r.hold = nil
	}
}

// maxDelta is the Chebyshev distance; a square dead zone is
// indistinguishable from a round one at 4 px.
func maxDelta(a, b model.Offset) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
