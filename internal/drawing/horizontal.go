package drawing

import (
	"math"

	"chartkit/internal/model"
)

// HorizontalLine is a full-width level pinned to a single quote.
// Creation completes in one tap.
type HorizontalLine struct {
	id    string
	quote float64
	state State
	held  bool
}

// NewHorizontalLine builds an empty horizontal line in adding state.
func NewHorizontalLine(id string) *HorizontalLine {
	return &HorizontalLine{id: id, state: StateAdding}
}

// HorizontalLineFromConfig restores a persisted horizontal line.
func HorizontalLineFromConfig(cfg model.DrawingConfig) *HorizontalLine {
	h := &HorizontalLine{id: cfg.ID, state: StateNormal}
	if len(cfg.Points) > 0 {
		h.quote = cfg.Points[0].Quote
	}
	return h
}

func (h *HorizontalLine) Name() string { return ToolHorizontalLine }

func (h *HorizontalLine) Config() model.DrawingConfig {
	return model.DrawingConfig{
		ID:     h.id,
		Tool:   h.Name(),
		Points: []model.TimePoint{{Quote: h.quote}},
	}
}

func (h *HorizontalLine) State() State     { return h.state }
func (h *HorizontalLine) SetState(s State) { h.state = s }

// Quote returns the level's quote value.
func (h *HorizontalLine) Quote() float64 { return h.quote }

// HitTest reports whether pos is within tolerance of the level's y.
func (h *HorizontalLine) HitTest(pos model.Offset, cv Converter) bool {
	if h.state == StateAdding {
		return false
	}
	return math.Abs(pos.Y-cv.YFromQuote(h.quote)) <= hitTolerance
}

func (h *HorizontalLine) DragStart(pos model.Offset, cv Converter) bool {
	if !h.HitTest(pos, cv) {
		return false
	}
	h.held = true
	h.state = StateDragging
	return true
}

func (h *HorizontalLine) DragUpdate(pos model.Offset, cv Converter) {
	if !h.held {
		return
	}
	h.quote = cv.PointAt(pos).Quote
}

func (h *HorizontalLine) DragEnd() {
	h.held = false
	if h.state == StateDragging {
		h.state = StateSelected
	}
}

// CreateTap pins the level at the tapped quote and completes immediately.
func (h *HorizontalLine) CreateTap(pos model.Offset, cv Converter) bool {
	h.quote = cv.PointAt(pos).Quote
	h.state = StateNormal
	return true
}

var _ Tool = (*HorizontalLine)(nil)
