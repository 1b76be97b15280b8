package model

// ── Engine Port Interfaces ──
// These interfaces decouple the interaction engine from its collaborators
// (coordinate transforms, persistence, viewport panning). Hosts supply
// concrete implementations; the engine only calls through these contracts.

// Viewport converts between canvas pixels and chart coordinates.
// The horizontal mapping is always available; the inverse vertical
// mapping (QuoteFromY) is optional and declared separately because not
// every host can invert its price scale.
type Viewport interface {
	// EpochFromX maps a canvas x coordinate to an epoch in ms.
	EpochFromX(x float64) int64

	// XFromEpoch maps an epoch in ms to a canvas x coordinate.
	XFromEpoch(epoch int64) float64

	// YFromQuote maps a quote to a canvas y coordinate.
	YFromQuote(quote float64) float64
}

// QuoteFromY is the inverse vertical mapping: canvas y → quote.
// Required only for virtual-point synthesis outside the data range.
type QuoteFromY func(y float64) float64

// PanControl lets the engine steer the host's horizontal scrolling.
type PanControl interface {
	// BlockAutoPan suspends (true) or resumes (false) the host's own
	// follow-latest auto panning while a crosshair gesture is active.
	BlockAutoPan(blocked bool)

	// PanBy scrolls the viewport by speed chart-units per tick.
	// Zero stops any edge-triggered panning.
	PanBy(speed float64)
}

// DrawingRepository persists drawing configs in insertion order and
// notifies listeners on every mutation.
type DrawingRepository interface {
	// Items returns a snapshot of all configs in insertion order.
	Items() []DrawingConfig

	// Add appends a new config.
	Add(cfg DrawingConfig) error

	// UpdateAt replaces the config at index.
	UpdateAt(index int, cfg DrawingConfig) error

	// RemoveAt deletes the config at index.
	RemoveAt(index int) error

	// Subscribe registers a mutation listener and returns its cancel func.
	Subscribe(fn func()) (cancel func())

	// Close releases underlying resources.
	Close() error
}
