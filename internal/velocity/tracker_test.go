package velocity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chartkit/internal/model"
)

var t0 = time.Unix(1700000000, 0)

// feed pushes samples at a fixed interval along a straight horizontal path.
func feed(tr *Tracker, n int, stepPx float64, interval time.Duration) {
	for i := 0; i < n; i++ {
		tr.AddSample(model.Offset{X: float64(i) * stepPx, Y: 0}, t0.Add(time.Duration(i)*interval))
	}
}

func TestTracker_StationaryPointerIsZero(t *testing.T) {
	tr := New(Params{})
	for i := 0; i < 10; i++ {
		tr.AddSample(model.Offset{X: 50, Y: 50}, t0.Add(time.Duration(i)*20*time.Millisecond))
	}
	vx, vy := tr.Velocity()
	assert.Zero(t, vx)
	assert.Zero(t, vy)
}

func TestTracker_ConvergesOnConstantVelocity(t *testing.T) {
	tr := New(Params{})
	// 10 px per 10 ms = 1000 px/s, long enough for the EMA to settle.
	feed(tr, 50, 10, 10*time.Millisecond)

	vx, vy := tr.Velocity()
	assert.InDelta(t, 1000, vx, 50)
	assert.Zero(t, vy)
}

func TestTracker_ThrottleDropsDenseSamples(t *testing.T) {
	tr := New(Params{MinSampleInterval: 8 * time.Millisecond})

	tr.AddSample(model.Offset{X: 0}, t0)
	// 1 ms later: inside the throttle window, must be ignored.
	tr.AddSample(model.Offset{X: 1000}, t0.Add(time.Millisecond))

	vx, _ := tr.Velocity()
	assert.Zero(t, vx, "throttled sample must not contribute")
}

func TestTracker_Reset(t *testing.T) {
	tr := New(Params{})
	feed(tr, 10, 10, 10*time.Millisecond)

	tr.Reset()
	vx, vy := tr.Velocity()
	assert.Zero(t, vx)
	assert.Zero(t, vy)
	assert.Equal(t, idleDuration, tr.AnimationDuration())
}

func TestTracker_SetVelocityOverrides(t *testing.T) {
	tr := New(Params{})
	tr.SetVelocity(-3000, 12)

	vx, vy := tr.Velocity()
	assert.Equal(t, -3000.0, vx)
	assert.Equal(t, 12.0, vy)
	assert.Equal(t, 1*time.Millisecond, tr.AnimationDuration())
}

func TestMapDuration_Breakpoints(t *testing.T) {
	cases := []struct {
		vx   float64
		want time.Duration
	}{
		{0, 3 * time.Millisecond}, // idle default
		{3000, 1 * time.Millisecond},
		{2500, 1 * time.Millisecond},
		{2000, 3 * time.Millisecond},
		{1500, 3 * time.Millisecond},
		{800, 15 * time.Millisecond},
		{-800, 15 * time.Millisecond}, // sign is irrelevant
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MapDuration(c.vx), "vx=%v", c.vx)
	}
}

func TestMapDuration_InterpolatesSlowBand(t *testing.T) {
	// Midpoint of 800..1500 maps to the midpoint of 15ms..3ms.
	assert.Equal(t, 9*time.Millisecond, MapDuration(1150))
	// Midpoint of 0..800 maps to the midpoint of 25ms..15ms.
	assert.Equal(t, 20*time.Millisecond, MapDuration(400))
}

func TestMapDuration_MonotoneNonIncreasing(t *testing.T) {
	prev := MapDuration(1) // skip the idle special case at exactly 0
	for vx := 2.0; vx <= 3000; vx++ {
		d := MapDuration(vx)
		assert.LessOrEqual(t, d, prev, "duration must not grow with speed (vx=%v)", vx)
		prev = d
	}
}
