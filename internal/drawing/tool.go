// Package drawing defines the interactive state contract for chart
// drawings and two concrete tools (trend line, horizontal line). Tools own
// their geometry in chart coordinates and answer pixel-space hit-tests
// through the viewport mapping; they never render anything themselves.
package drawing

import (
	"fmt"
	"math"

	"chartkit/internal/model"
)

// State is the per-tool interactive state.
type State int

const (
	// StateNormal: idle, not selected.
	StateNormal State = iota
	// StateAdding: creation gesture in progress.
	StateAdding
	// StateSelected: highlighted, handles shown.
	StateSelected
	// StateDragging: an active drag is editing geometry.
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateAdding:
		return "adding"
	case StateSelected:
		return "selected"
	case StateDragging:
		return "dragging"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Converter bundles the full pixel↔chart mapping drawings need to edit
// geometry. QuoteFromY may be nil for hosts that only hit-test.
type Converter struct {
	model.Viewport
	QuoteFromY model.QuoteFromY
}

// PointAt converts a canvas position into a chart point. Panics if the
// inverse vertical mapping is missing: geometry editing without it is a
// host wiring error, not a runtime condition.
func (cv Converter) PointAt(pos model.Offset) model.TimePoint {
	if cv.QuoteFromY == nil {
		panic("drawing: QuoteFromY is required to edit drawing geometry")
	}
	return model.TimePoint{Epoch: cv.EpochFromX(pos.X), Quote: cv.QuoteFromY(pos.Y)}
}

// Tool is the interactive contract the coordinator delegates gesture
// callbacks to. Implementations keep geometry in chart coordinates so
// drawings stay pinned to data while the viewport scrolls.
type Tool interface {
	// Name identifies the tool kind, e.g. "trend_line".
	Name() string

	// Config returns the persistable form of the drawing.
	Config() model.DrawingConfig

	// State returns the current interactive state.
	State() State

	// SetState transitions the interactive state. Tools treat this as
	// authoritative; the coordinator owns the transition rules.
	SetState(s State)

	// HitTest reports whether pos intersects the drawing's geometry.
	HitTest(pos model.Offset, cv Converter) bool

	// DragStart anchors a drag at pos. Returns false when pos grabs
	// nothing (the coordinator then treats the gesture as a chart pan).
	DragStart(pos model.Offset, cv Converter) bool

	// DragUpdate moves the grabbed geometry to follow pos.
	DragUpdate(pos model.Offset, cv Converter)

	// DragEnd releases the grab.
	DragEnd()

	// CreateTap advances a creation gesture by one tap. done reports
	// that the drawing is complete and ready to persist.
	CreateTap(pos model.Offset, cv Converter) (done bool)
}

// hitTolerance is the pixel distance within which a line counts as hit.
const hitTolerance = 8.0

// distToSegment returns the distance from p to segment ab in pixels.
func distToSegment(p, a, b model.Offset) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	apx, apy := p.X-a.X, p.Y-a.Y

	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return dist(p, a)
	}

	t := (apx*abx + apy*aby) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	proj := model.Offset{X: a.X + t*abx, Y: a.Y + t*aby}
	return dist(p, proj)
}

func dist(a, b model.Offset) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
