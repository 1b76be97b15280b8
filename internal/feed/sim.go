// Package feed generates a simulated OHLC series for the demo hosts so
// the interaction engine can be exercised without a live market feed.
package feed

import (
	"math/rand"
	"time"

	"chartkit/internal/model"
	"chartkit/internal/series"
)

// SimConfig configures the random-walk generator.
type SimConfig struct {
	// StartQuote is the opening quote. Defaults to 1000.
	StartQuote float64

	// Interval between candles. Defaults to 1 minute.
	Interval time.Duration

	// Seed for deterministic output; 0 seeds from the clock.
	Seed int64
}

func (c *SimConfig) defaults() {
	if c.StartQuote == 0 {
		c.StartQuote = 1000
	}
	if c.Interval == 0 {
		c.Interval = time.Minute
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
}

// Candles produces n random-walk candles ending at end.
func Candles(n int, end time.Time, cfg SimConfig) []model.CandlePoint {
	cfg.defaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	out := make([]model.CandlePoint, n)
	quote := cfg.StartQuote
	start := end.Add(-time.Duration(n) * cfg.Interval)

	for i := 0; i < n; i++ {
		open := quote
		high, low := open, open
		// Four intra-candle steps of ±0.1% each.
		for s := 0; s < 4; s++ {
			quote = walk(rng, quote)
			if quote > high {
				high = quote
			}
			if quote < low {
				low = quote
			}
		}
		out[i] = model.CandlePoint{
			Epoch: start.Add(time.Duration(i) * cfg.Interval).UnixMilli(),
			Open:  open,
			High:  high,
			Low:   low,
			Close: quote,
		}
	}
	return out
}

// Series wraps Candles into a candle series.
func Series(n int, end time.Time, cfg SimConfig) *series.Series {
	return series.NewCandle(Candles(n, end, cfg))
}

// walk applies a ±0.1% random step with a floor at 1.
func walk(rng *rand.Rand, quote float64) float64 {
	pct := (rng.Float64()*0.2 - 0.1) / 100.0
	next := quote * (1 + pct)
	if next < 1 {
		next = 1
	}
	return next
}
