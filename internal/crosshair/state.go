package crosshair

import (
	"time"

	"chartkit/internal/model"
)

// State is an immutable snapshot of the crosshair. Every observable
// change replaces the whole value; observers only ever see complete
// snapshots. Point is non-nil whenever Visible is true.
type State struct {
	// Point is the data point under the crosshair. For candle series
	// Candle additionally carries the full bar.
	Point  *model.TimePoint   `json:"point,omitempty"`
	Candle *model.CandlePoint `json:"candle,omitempty"`

	// Cursor is the raw pointer position on the canvas.
	Cursor model.Offset `json:"cursor"`

	Visible     bool `json:"visible"`
	ShowDetails bool `json:"show_details"`

	// WithinDataRange is false when Point is a virtual point synthesized
	// outside the series' epoch range.
	WithinDataRange bool `json:"within_data_range"`

	// Animation is the movement animation duration derived from the
	// tracker's smoothed velocity at publish time. Carried in the
	// snapshot so observers on other goroutines never touch the tracker.
	Animation time.Duration `json:"-"`
}

// initialState matches the controller's construction defaults: hidden,
// cursor at origin, range flag true.
func initialState() State {
	return State{WithinDataRange: true}
}
