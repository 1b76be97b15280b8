// Package series provides the read-only view of chart data the
// interaction engine operates on: an epoch-ordered sequence of points,
// nearest-neighbor lookup, and inclusive range checks. The engine never
// mutates series data; it is owned by the host's data layer.
package series

import (
	"sort"

	"chartkit/internal/model"
)

// Kind tags the variant a Series carries. A candle series answers
// HasOHLC() true and exposes full bars through CandleAt.
type Kind int

const (
	KindLine Kind = iota
	KindCandle
)

// Series is an immutable, epoch-ascending sequence of data points.
// Epoch uniqueness and ordering are the data layer's responsibility;
// lookup results are undefined if either is violated.
type Series struct {
	kind    Kind
	points  []model.TimePoint
	candles []model.CandlePoint
}

// NewLine wraps tick/line points. The slice is not copied.
func NewLine(points []model.TimePoint) *Series {
	return &Series{kind: KindLine, points: points}
}

// NewCandle wraps OHLC bars. The slice is not copied.
func NewCandle(candles []model.CandlePoint) *Series {
	return &Series{kind: KindCandle, candles: candles}
}

// Kind returns the series variant.
func (s *Series) Kind() Kind { return s.kind }

// HasOHLC reports whether points carry full OHLC bars.
func (s *Series) HasOHLC() bool { return s.kind == KindCandle }

// Len returns the number of points.
func (s *Series) Len() int {
	if s.kind == KindCandle {
		return len(s.candles)
	}
	return len(s.points)
}

// Epoch returns the epoch of point i.
func (s *Series) Epoch(i int) int64 {
	if s.kind == KindCandle {
		return s.candles[i].Epoch
	}
	return s.points[i].Epoch
}

// Point returns point i collapsed to (epoch, quote); candles collapse to
// their close.
func (s *Series) Point(i int) model.TimePoint {
	if s.kind == KindCandle {
		return s.candles[i].TimePoint()
	}
	return s.points[i]
}

// CandleAt returns the full bar at i. ok is false on a line series.
func (s *Series) CandleAt(i int) (model.CandlePoint, bool) {
	if s.kind != KindCandle {
		return model.CandlePoint{}, false
	}
	return s.candles[i], true
}

// First returns the earliest point. ok is false on an empty series.
func (s *Series) First() (model.TimePoint, bool) {
	if s.Len() == 0 {
		return model.TimePoint{}, false
	}
	return s.Point(0), true
}

// Last returns the latest point. ok is false on an empty series.
func (s *Series) Last() (model.TimePoint, bool) {
	if s.Len() == 0 {
		return model.TimePoint{}, false
	}
	return s.Point(s.Len() - 1), true
}

// WithinRange reports whether epoch falls inside the inclusive
// [first.Epoch, last.Epoch] interval. False on an empty series.
func (s *Series) WithinRange(epoch int64) bool {
	if s.Len() == 0 {
		return false
	}
	return epoch >= s.Epoch(0) && epoch <= s.Epoch(s.Len()-1)
}

// ClosestTo returns the index of the point whose epoch is nearest to
// target. When two neighbors are exactly equidistant the earlier point
// wins — a fixed policy so lookups are deterministic on evenly spaced
// data. ok is false on an empty series.
func (s *Series) ClosestTo(target int64) (int, bool) {
	n := s.Len()
	if n == 0 {
		return 0, false
	}

	// First index with epoch >= target.
	idx := sort.Search(n, func(i int) bool { return s.Epoch(i) >= target })

	if idx == 0 {
		return 0, true
	}
	if idx == n {
		return n - 1, true
	}

	// Earlier point wins on an exact tie (<=, not <).
	if target-s.Epoch(idx-1) <= s.Epoch(idx)-target {
		return idx - 1, true
	}
	return idx, true
}

// FindClosest returns the point in points nearest to target, or ok=false
// on empty input. points must be epoch-ascending.
func FindClosest(target int64, points []model.TimePoint) (model.TimePoint, bool) {
	s := NewLine(points)
	idx, ok := s.ClosestTo(target)
	if !ok {
		return model.TimePoint{}, false
	}
	return points[idx], true
}
