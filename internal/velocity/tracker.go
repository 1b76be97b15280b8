// Package velocity smooths noisy pointer samples into a stable velocity
// estimate and maps horizontal speed to a crosshair animation duration:
// fast drags get short animations, slow or idle pointers get long ones,
// keeping perceived lag proportional to drag speed.
package velocity

import (
	"time"

	"chartkit/internal/model"
)

const (
	// bufCap is the number of recent samples kept for differencing.
	bufCap = 5

	// DefaultMinSampleInterval throttles AddSample: samples arriving
	// closer together than this are ignored.
	DefaultMinSampleInterval = 8 * time.Millisecond

	// DefaultAlpha is the EMA smoothing factor applied to raw velocity.
	DefaultAlpha = 0.3
)

// Animation duration breakpoints (horizontal speed in px/s → duration in ms).
const (
	fastSpeed   = 2500.0
	mediumSpeed = 1500.0
	slowSpeed   = 800.0

	fastDuration   = 1 * time.Millisecond
	mediumDuration = 3 * time.Millisecond
	slowDuration   = 15 * time.Millisecond
	restDuration   = 25 * time.Millisecond

	// idleDuration applies when the pointer is not moving at all.
	idleDuration = 3 * time.Millisecond
)

type sample struct {
	offset model.Offset
	at     time.Time
}

// Params tunes the tracker. Zero values select the defaults.
type Params struct {
	Alpha             float64
	MinSampleInterval time.Duration
}

func (p *Params) defaults() {
	if p.Alpha == 0 {
		p.Alpha = DefaultAlpha
	}
	if p.MinSampleInterval == 0 {
		p.MinSampleInterval = DefaultMinSampleInterval
	}
}

// Tracker holds the last bufCap pointer samples in a circular buffer and
// maintains an exponentially smoothed velocity in px/s. Not goroutine-safe:
// it is owned by a single interaction session and fed from its event loop.
type Tracker struct {
	params Params

	samples [bufCap]sample
	pos     int
	count   int
	lastAt  time.Time

	smoothedX float64
	smoothedY float64
}

// New creates a Tracker with the given params.
func New(params Params) *Tracker {
	params.defaults()
	return &Tracker{params: params}
}

// AddSample records a pointer position at time now. Samples arriving
// within MinSampleInterval of the previous accepted sample are dropped to
// keep raw differencing out of timer-resolution noise.
func (t *Tracker) AddSample(offset model.Offset, now time.Time) {
	if t.count > 0 && now.Sub(t.lastAt) < t.params.MinSampleInterval {
		return
	}

	t.samples[t.pos] = sample{offset: offset, at: now}
	t.pos = (t.pos + 1) % bufCap
	if t.count < bufCap {
		t.count++
	}
	t.lastAt = now

	rawX, rawY := t.raw()
	a := t.params.Alpha
	t.smoothedX = (1-a)*t.smoothedX + a*rawX
	t.smoothedY = (1-a)*t.smoothedY + a*rawY
}

// raw computes displacement between the oldest and newest buffered
// samples divided by elapsed time. Zero with fewer than 2 samples or
// zero elapsed time.
func (t *Tracker) raw() (vx, vy float64) {
	if t.count < 2 {
		return 0, 0
	}

	newest := t.samples[(t.pos+bufCap-1)%bufCap]
	oldest := t.samples[0]
	if t.count == bufCap {
		// Buffer full: pos points at the oldest entry.
		oldest = t.samples[t.pos]
	}

	elapsed := newest.at.Sub(oldest.at).Seconds()
	if elapsed <= 0 {
		return 0, 0
	}
	vx = (newest.offset.X - oldest.offset.X) / elapsed
	vy = (newest.offset.Y - oldest.offset.Y) / elapsed
	return vx, vy
}

// Velocity returns the smoothed velocity in px/s.
func (t *Tracker) Velocity() (vx, vy float64) {
	return t.smoothedX, t.smoothedY
}

// SetVelocity overrides the smoothed estimate, e.g. with the terminal
// velocity the gesture system reports at long-press end.
func (t *Tracker) SetVelocity(vx, vy float64) {
	t.smoothedX = vx
	t.smoothedY = vy
}

// Reset clears the sample buffer and zeroes the smoothed velocity. Must
// be called when an interaction ends so velocity never leaks into the
// next independent gesture.
func (t *Tracker) Reset() {
	t.pos = 0
	t.count = 0
	t.lastAt = time.Time{}
	t.smoothedX = 0
	t.smoothedY = 0
}

// AnimationDuration maps the current horizontal smoothed speed through
// MapDuration.
func (t *Tracker) AnimationDuration() time.Duration {
	return MapDuration(t.smoothedX)
}

// MapDuration converts a horizontal velocity (px/s, either sign) into a
// crosshair animation duration. Piecewise linear between the documented
// breakpoints; an exactly idle pointer gets a fixed short default.
func MapDuration(vx float64) time.Duration {
	speed := vx
	if speed < 0 {
		speed = -speed
	}

	switch {
	case speed == 0:
		return idleDuration
	case speed >= fastSpeed:
		return fastDuration
	case speed >= mediumSpeed:
		return mediumDuration
	case speed >= slowSpeed:
		// slowSpeed..mediumSpeed: 15ms → 3ms
		frac := (speed - slowSpeed) / (mediumSpeed - slowSpeed)
		return lerp(slowDuration, mediumDuration, frac)
	default:
		// 0..slowSpeed: 25ms → 15ms
		frac := speed / slowSpeed
		return lerp(restDuration, slowDuration, frac)
	}
}

// lerp interpolates from..to by frac in [0,1].
func lerp(from, to time.Duration, frac float64) time.Duration {
	return from + time.Duration(frac*float64(to-from))
}
