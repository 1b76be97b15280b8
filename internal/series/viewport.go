package series

import "chartkit/internal/model"

// LinearViewport is a straight-line pixel↔chart mapping. Demo hosts and
// tests use it directly; production hosts with log scales or variable
// candle widths supply their own model.Viewport instead.
type LinearViewport struct {
	// LeftEpoch/RightEpoch are the epochs at the canvas edges.
	LeftEpoch  int64
	RightEpoch int64

	// TopQuote/BottomQuote are the quotes at the canvas edges.
	TopQuote    float64
	BottomQuote float64

	// Width/Height are the canvas dimensions in logical pixels.
	Width  float64
	Height float64
}

// EpochFromX maps a canvas x coordinate to an epoch in ms.
func (v *LinearViewport) EpochFromX(x float64) int64 {
	if v.Width <= 0 {
		return v.LeftEpoch
	}
	span := float64(v.RightEpoch - v.LeftEpoch)
	return v.LeftEpoch + int64(x/v.Width*span)
}

// XFromEpoch maps an epoch in ms to a canvas x coordinate.
func (v *LinearViewport) XFromEpoch(epoch int64) float64 {
	span := float64(v.RightEpoch - v.LeftEpoch)
	if span == 0 {
		return 0
	}
	return float64(epoch-v.LeftEpoch) / span * v.Width
}

// YFromQuote maps a quote to a canvas y coordinate (y grows downward).
func (v *LinearViewport) YFromQuote(quote float64) float64 {
	span := v.TopQuote - v.BottomQuote
	if span == 0 {
		return 0
	}
	return (v.TopQuote - quote) / span * v.Height
}

// QuoteFromY is the inverse vertical mapping.
func (v *LinearViewport) QuoteFromY(y float64) float64 {
	if v.Height <= 0 {
		return v.BottomQuote
	}
	return v.TopQuote - y/v.Height*(v.TopQuote-v.BottomQuote)
}

var _ model.Viewport = (*LinearViewport)(nil)
