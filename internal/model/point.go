package model

import "encoding/json"

// TimePoint is a single value on the chart's time axis.
// Epoch is a UTC timestamp in milliseconds; Quote is the price/value.
type TimePoint struct {
	Epoch int64   `json:"epoch"`
	Quote float64 `json:"quote"`
}

// CandlePoint widens TimePoint to a full OHLC bar sharing the same epoch.
type CandlePoint struct {
	Epoch int64   `json:"epoch"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// TimePoint collapses the candle to its closing value.
func (c CandlePoint) TimePoint() TimePoint {
	return TimePoint{Epoch: c.Epoch, Quote: c.Close}
}

// FlatCandle builds a candle whose four OHLC fields all carry the same
// quote. Used when a crosshair value must be displayed outside the real
// data range on a candle series.
func FlatCandle(epoch int64, quote float64) CandlePoint {
	return CandlePoint{Epoch: epoch, Open: quote, High: quote, Low: quote, Close: quote}
}

// Offset is a position on the chart canvas in logical pixels.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// JSON returns the JSON-encoded point (ignoring errors for hot-path usage).
func (p *TimePoint) JSON() []byte {
	b, _ := json.Marshal(p)
	return b
}
