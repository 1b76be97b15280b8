package drawing

import (
	"chartkit/internal/model"
)

// grab identifies what part of a trend line a drag holds.
type grab int

const (
	grabNone grab = iota
	grabStart
	grabEnd
	grabBody
)

// TrendLine is a two-anchor segment pinned to chart coordinates.
// Creation takes two taps: the first places both anchors, the second
// releases the end anchor and completes the drawing.
type TrendLine struct {
	id    string
	start model.TimePoint
	end   model.TimePoint
	state State

	held grab
	// body-drag bookkeeping: chart-space offsets from the grab point to
	// each anchor, captured at DragStart.
	dStartEpoch, dEndEpoch int64
	dStartQuote, dEndQuote float64

	tapped bool // first creation tap placed
}

// NewTrendLine builds an empty trend line in adding state.
func NewTrendLine(id string) *TrendLine {
	return &TrendLine{id: id, state: StateAdding}
}

// TrendLineFromConfig restores a persisted trend line.
func TrendLineFromConfig(cfg model.DrawingConfig) *TrendLine {
	t := &TrendLine{id: cfg.ID, state: StateNormal}
	if len(cfg.Points) > 0 {
		t.start = cfg.Points[0]
	}
	if len(cfg.Points) > 1 {
		t.end = cfg.Points[1]
	}
	return t
}

func (t *TrendLine) Name() string { return ToolTrendLine }

func (t *TrendLine) Config() model.DrawingConfig {
	return model.DrawingConfig{
		ID:     t.id,
		Tool:   t.Name(),
		Points: []model.TimePoint{t.start, t.end},
	}
}

func (t *TrendLine) State() State     { return t.state }
func (t *TrendLine) SetState(s State) { t.state = s }

// HitTest reports whether pos lies within tolerance of the segment.
func (t *TrendLine) HitTest(pos model.Offset, cv Converter) bool {
	if t.state == StateAdding {
		return false
	}
	a, b := t.anchors(cv)
	return distToSegment(pos, a, b) <= hitTolerance
}

// DragStart grabs an endpoint when pos is on one, otherwise the whole
// body when pos is on the segment.
func (t *TrendLine) DragStart(pos model.Offset, cv Converter) bool {
	a, b := t.anchors(cv)
	switch {
	case dist(pos, a) <= hitTolerance:
		t.held = grabStart
	case dist(pos, b) <= hitTolerance:
		t.held = grabEnd
	case distToSegment(pos, a, b) <= hitTolerance:
		t.held = grabBody
		at := cv.PointAt(pos)
		t.dStartEpoch = t.start.Epoch - at.Epoch
		t.dEndEpoch = t.end.Epoch - at.Epoch
		t.dStartQuote = t.start.Quote - at.Quote
		t.dEndQuote = t.end.Quote - at.Quote
	default:
		t.held = grabNone
		return false
	}
	t.state = StateDragging
	return true
}

func (t *TrendLine) DragUpdate(pos model.Offset, cv Converter) {
	at := cv.PointAt(pos)
	switch t.held {
	case grabStart:
		t.start = at
	case grabEnd:
		t.end = at
	case grabBody:
		t.start = model.TimePoint{Epoch: at.Epoch + t.dStartEpoch, Quote: at.Quote + t.dStartQuote}
		t.end = model.TimePoint{Epoch: at.Epoch + t.dEndEpoch, Quote: at.Quote + t.dEndQuote}
	}
}

func (t *TrendLine) DragEnd() {
	t.held = grabNone
	if t.state == StateDragging {
		t.state = StateSelected
	}
}

// CreateTap places the start anchor on the first tap and completes the
// line on the second.
func (t *TrendLine) CreateTap(pos model.Offset, cv Converter) bool {
	at := cv.PointAt(pos)
	if !t.tapped {
		t.start = at
		t.end = at
		t.tapped = true
		return false
	}
	t.end = at
	t.state = StateNormal
	return true
}

func (t *TrendLine) anchors(cv Converter) (a, b model.Offset) {
	a = model.Offset{X: cv.XFromEpoch(t.start.Epoch), Y: cv.YFromQuote(t.start.Quote)}
	b = model.Offset{X: cv.XFromEpoch(t.end.Epoch), Y: cv.YFromQuote(t.end.Quote)}
	return a, b
}

var _ Tool = (*TrendLine)(nil)
