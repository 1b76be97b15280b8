// Package crosshair owns crosshair visibility and position state. It
// reacts to long-press and hover gestures, snaps to the nearest real data
// point, synthesizes virtual points outside the data range, and drives
// auto-pan when the pointer approaches a viewport edge. All state changes
// produce a fresh immutable State published to subscribers.
package crosshair

import (
	"time"

	"chartkit/internal/bus"
	"chartkit/internal/model"
	"chartkit/internal/series"
	"chartkit/internal/velocity"
)

const (
	// DefaultEdgeZone is the distance from either canvas edge, in px,
	// inside which auto-pan engages during a long-press drag.
	DefaultEdgeZone = 60.0

	// DefaultEdgePanSpeed is the fixed pan speed, in chart units per
	// tick, applied inside the edge zone.
	DefaultEdgePanSpeed = 0.08
)

// Params tunes the controller. Zero values select the defaults.
type Params struct {
	EdgeZone     float64
	EdgePanSpeed float64

	// Velocity forwards tuning to the embedded tracker.
	Velocity velocity.Params
}

func (p *Params) defaults() {
	if p.EdgeZone == 0 {
		p.EdgeZone = DefaultEdgeZone
	}
	if p.EdgePanSpeed == 0 {
		p.EdgePanSpeed = DefaultEdgePanSpeed
	}
}

// Controller coordinates crosshair state for one chart session.
// Not goroutine-safe: it is driven from a single event loop, matching the
// strictly ordered pointer stream it consumes.
type Controller struct {
	params Params

	vp         model.Viewport
	quoteFromY model.QuoteFromY
	pan        model.PanControl

	data        *series.Series
	canvasWidth float64

	tracker *velocity.Tracker
	state   State
	fan     *bus.Fanout[State]

	// Visibility edge hooks. Fired exactly on transitions, never
	// redundantly.
	OnAppeared    func()
	OnDisappeared func()

	now func() time.Time
}

// Option configures optional collaborators.
type Option func(*Controller)

// WithQuoteFromY supplies the inverse vertical mapping required for
// virtual-point synthesis.
func WithQuoteFromY(fn model.QuoteFromY) Option {
	return func(c *Controller) { c.quoteFromY = fn }
}

// WithPanControl attaches the host's pan control.
func WithPanControl(pan model.PanControl) Option {
	return func(c *Controller) { c.pan = pan }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a Controller over the given viewport mapping.
func New(vp model.Viewport, params Params, opts ...Option) *Controller {
	params.defaults()
	c := &Controller{
		params:  params,
		vp:      vp,
		data:    series.NewLine(nil),
		tracker: velocity.New(params.Velocity),
		state:   initialState(),
		fan:     bus.New[State](16),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSeries swaps the data the crosshair snaps to.
func (c *Controller) SetSeries(s *series.Series) {
	if s == nil {
		s = series.NewLine(nil)
	}
	c.data = s
}

// SetCanvasWidth updates the canvas width used for edge-zone detection.
func (c *Controller) SetCanvasWidth(w float64) { c.canvasWidth = w }

// State returns the current snapshot.
func (c *Controller) State() State { return c.state }

// Subscribe returns a channel receiving every published State snapshot.
func (c *Controller) Subscribe() <-chan State { return c.fan.Subscribe() }

// Tracker exposes the velocity tracker for hosts that want to inspect it.
func (c *Controller) Tracker() *velocity.Tracker { return c.tracker }

// LongPressStart begins a touch inspection gesture at position.
func (c *Controller) LongPressStart(position model.Offset) {
	c.tracker.Reset()
	c.tracker.AddSample(position, c.now())
	if c.pan != nil {
		c.pan.BlockAutoPan(true)
	}
	c.snapToNearest(position)
}

// LongPressUpdate moves an active inspection gesture. Near either canvas
// edge it forwards a fixed pan speed to the host so the user can reach
// off-screen data without releasing.
func (c *Controller) LongPressUpdate(position model.Offset) {
	c.tracker.AddSample(position, c.now())
	c.snapToNearest(position)
	if c.pan != nil {
		c.pan.PanBy(c.edgePanSpeed(position.X))
	}
}

// LongPressEnd finishes the gesture. A non-zero terminal velocity from
// the gesture system overrides the tracker's own estimate so the closing
// animation matches the release speed.
func (c *Controller) LongPressEnd(terminalVX, terminalVY float64) {
	if terminalVX != 0 || terminalVY != 0 {
		c.tracker.SetVelocity(terminalVX, terminalVY)
	}
	if c.pan != nil {
		c.pan.PanBy(0)
		c.pan.BlockAutoPan(false)
	}
	c.hide()
	c.tracker.Reset()
}

// Hover handles a desktop pointer move with no button held. Inside the
// data range it behaves like a long-press snap; outside it synthesizes a
// virtual point at the hovered epoch with the quote read back from the
// cursor's y coordinate.
func (c *Controller) Hover(position model.Offset) {
	if c.data.Len() == 0 {
		return
	}

	epoch := c.vp.EpochFromX(position.X)
	if c.data.WithinRange(epoch) {
		c.snapToNearest(position)
		return
	}

	if c.quoteFromY == nil {
		panic("crosshair: QuoteFromY is required to synthesize a point outside the data range")
	}
	quote := c.quoteFromY(position.Y)
	pt := model.TimePoint{Epoch: epoch, Quote: quote}

	next := State{
		Point:           &pt,
		Cursor:          position,
		Visible:         true,
		ShowDetails:     false,
		WithinDataRange: false,
	}
	if c.data.HasOHLC() {
		candle := model.FlatCandle(epoch, quote)
		next.Candle = &candle
	}
	c.setState(next)
}

// Exit hides the crosshair and clears all interaction state.
func (c *Controller) Exit() {
	if c.pan != nil {
		c.pan.PanBy(0)
		c.pan.BlockAutoPan(false)
	}
	c.hide()
	c.tracker.Reset()
}

// Close tears down the snapshot fanout.
func (c *Controller) Close() { c.fan.Close() }

// snapToNearest shows the crosshair on the real data point closest to the
// cursor's epoch. With no data the crosshair stays hidden.
func (c *Controller) snapToNearest(position model.Offset) {
	epoch := c.vp.EpochFromX(position.X)
	idx, ok := c.data.ClosestTo(epoch)
	if !ok {
		return
	}

	pt := c.data.Point(idx)
	next := State{
		Point:           &pt,
		Cursor:          position,
		Visible:         true,
		ShowDetails:     true,
		WithinDataRange: true,
	}
	if candle, ok := c.data.CandleAt(idx); ok {
		next.Candle = &candle
	}
	c.setState(next)
}

// edgePanSpeed returns the pan speed for a cursor x position: positive
// (toward older data) near the left edge, negative near the right edge,
// zero elsewhere. Zero when the canvas width is unknown.
func (c *Controller) edgePanSpeed(x float64) float64 {
	if c.canvasWidth <= 0 {
		return 0
	}
	switch {
	case x < c.params.EdgeZone:
		return c.params.EdgePanSpeed
	case x > c.canvasWidth-c.params.EdgeZone:
		return -c.params.EdgePanSpeed
	default:
		return 0
	}
}

func (c *Controller) hide() {
	next := c.state
	next.Visible = false
	next.ShowDetails = false
	next.Point = nil
	next.Candle = nil
	c.setState(next)
}

// setState swaps in the next snapshot, publishes it, and fires the
// appeared/disappeared hooks on true visibility edges. The animation
// duration is stamped here, on the event loop, so subscribers never read
// the tracker from their own goroutines.
func (c *Controller) setState(next State) {
	next.Animation = c.tracker.AnimationDuration()
	if next == c.state {
		return
	}
	wasVisible := c.state.Visible
	c.state = next
	c.fan.Publish(next)

	switch {
	case next.Visible && !wasVisible:
		if c.OnAppeared != nil {
			c.OnAppeared()
		}
	case !next.Visible && wasVisible:
		if c.OnDisappeared != nil {
			c.OnDisappeared()
		}
	}
}
