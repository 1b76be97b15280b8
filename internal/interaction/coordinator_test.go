package interaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chartkit/internal/crosshair"
	"chartkit/internal/drawing"
	"chartkit/internal/model"
	"chartkit/internal/repo/memory"
	"chartkit/internal/series"
)

func testViewport() *series.LinearViewport {
	return &series.LinearViewport{
		LeftEpoch: 0, RightEpoch: 400,
		TopQuote: 100, BottomQuote: 0,
		Width: 400, Height: 100,
	}
}

func testData() *series.Series {
	return series.NewLine([]model.TimePoint{
		{Epoch: 100, Quote: 40}, {Epoch: 200, Quote: 50}, {Epoch: 300, Quote: 60},
	})
}

// harness bundles a coordinator with its collaborators and a seeded
// trend line from (100,40) to (300,60) — on screen, (100,60) to (300,40).
type harness struct {
	coord *Coordinator
	cross *crosshair.Controller
	repo  *memory.Repo
}

func newHarness(t *testing.T, params Params) *harness {
	t.Helper()
	vp := testViewport()

	cross := crosshair.New(vp, crosshair.Params{}, crosshair.WithQuoteFromY(vp.QuoteFromY))
	cross.SetSeries(testData())
	cross.SetCanvasWidth(vp.Width)
	t.Cleanup(cross.Close)

	repo := memory.New()
	require.NoError(t, repo.Add(model.DrawingConfig{
		ID:   "d1",
		Tool: drawing.ToolTrendLine,
		Points: []model.TimePoint{
			{Epoch: 100, Quote: 40}, {Epoch: 300, Quote: 60},
		},
	}))

	if params.Variant == 0 {
		params.Variant = VariantDesktop
	}
	conv := drawing.Converter{Viewport: vp, QuoteFromY: vp.QuoteFromY}
	coord := New(cross, conv, repo, params)
	t.Cleanup(coord.Close)

	return &harness{coord: coord, cross: cross, repo: repo}
}

// onLine is a canvas position on the seeded trend line's midpoint.
var onLine = model.Offset{X: 200, Y: 50}

// offLine is empty chart, far from the seeded trend line.
var offLine = model.Offset{X: 50, Y: 10}

func TestModes_StartInNone(t *testing.T) {
	h := newHarness(t, Params{})
	assert.Equal(t, ModeNone, h.coord.Mode())
}

func TestPanStart_OnDrawingEntersDrawingMode(t *testing.T) {
	h := newHarness(t, Params{})

	h.coord.PanStart(onLine)
	assert.Equal(t, ModeDrawingTool, h.coord.Mode())

	h.coord.PanEnd(onLine)
	assert.Equal(t, ModeNone, h.coord.Mode())
}

func TestPanStart_OnEmptyChartIsIgnored(t *testing.T) {
	h := newHarness(t, Params{})

	h.coord.PanStart(offLine)
	assert.Equal(t, ModeNone, h.coord.Mode(), "chart panning stays with the host")
}

func TestLongPress_EntersCrosshairMode(t *testing.T) {
	h := newHarness(t, Params{})

	h.coord.LongPressStart(offLine)
	assert.Equal(t, ModeCrosshair, h.coord.Mode())
	assert.True(t, h.cross.State().Visible)

	h.coord.LongPressEnd(0, 0)
	assert.Equal(t, ModeNone, h.coord.Mode())
	assert.False(t, h.cross.State().Visible)
}

func TestLongPress_IgnoredDuringDrawingDrag(t *testing.T) {
	h := newHarness(t, Params{})

	h.coord.PanStart(onLine)
	h.coord.LongPressStart(offLine)

	assert.Equal(t, ModeDrawingTool, h.coord.Mode(), "active modes never transition directly")
	assert.False(t, h.cross.State().Visible)
}

func TestPanStart_IgnoredDuringCrosshair(t *testing.T) {
	h := newHarness(t, Params{})

	h.coord.LongPressStart(offLine)
	h.coord.PanStart(onLine)

	assert.Equal(t, ModeCrosshair, h.coord.Mode())
}

func TestDrawingEntry_HidesCrosshair(t *testing.T) {
	h := newHarness(t, Params{})

	// Hover shows the crosshair, then proximity to the drawing takes over.
	h.coord.Hover(offLine)
	require.True(t, h.cross.State().Visible)

	h.coord.Hover(onLine)
	assert.Equal(t, ModeDrawingTool, h.coord.Mode())
	assert.False(t, h.cross.State().Visible, "drawing mode entry must hide the crosshair")
}

func TestHover_CompactVariantIsInert(t *testing.T) {
	h := newHarness(t, Params{Variant: VariantCompact})

	h.coord.Hover(onLine)
	assert.Equal(t, ModeNone, h.coord.Mode())
	assert.False(t, h.cross.State().Visible)
}

func TestModeChange_Hook(t *testing.T) {
	h := newHarness(t, Params{})

	var transitions [][2]Mode
	h.coord.OnModeChange = func(from, to Mode) {
		transitions = append(transitions, [2]Mode{from, to})
	}

	h.coord.LongPressStart(offLine)
	h.coord.LongPressEnd(0, 0)

	require.Len(t, transitions, 2)
	assert.Equal(t, [2]Mode{ModeNone, ModeCrosshair}, transitions[0])
	assert.Equal(t, [2]Mode{ModeCrosshair, ModeNone}, transitions[1])
}

func TestTap_SelectsAndDeselects(t *testing.T) {
	h := newHarness(t, Params{})

	hit := h.coord.Tap(onLine)
	require.NotNil(t, hit)
	assert.Equal(t, drawing.StateSelected, hit.State())
	assert.Equal(t, hit, h.coord.Selected())

	miss := h.coord.Tap(offLine)
	assert.Nil(t, miss)
	assert.Nil(t, h.coord.Selected())
	assert.Equal(t, drawing.StateNormal, hit.State())
}

func TestCreation_TwoTapTrendLine(t *testing.T) {
	h := newHarness(t, Params{})

	require.NoError(t, h.coord.StartAdding(drawing.ToolTrendLine))
	require.NotNil(t, h.coord.Adding())

	h.coord.Tap(model.Offset{X: 50, Y: 80})
	require.NotNil(t, h.coord.Adding(), "one tap does not finish a trend line")

	h.coord.Tap(model.Offset{X: 150, Y: 20})
	assert.Nil(t, h.coord.Adding())

	items := h.repo.Items()
	require.Len(t, items, 2) // seeded line + new one
	created := items[1]
	assert.NotEmpty(t, created.ID, "completed drawings get a fresh identifier")
	assert.Equal(t, drawing.ToolTrendLine, created.Tool)
	require.Len(t, created.Points, 2)
	assert.Equal(t, int64(50), created.Points[0].Epoch)
	assert.Equal(t, 20.0, created.Points[0].Quote)
	assert.Equal(t, int64(150), created.Points[1].Epoch)
	assert.Equal(t, 80.0, created.Points[1].Quote)
}

func TestCreation_OneTapHorizontalLine(t *testing.T) {
	h := newHarness(t, Params{})

	require.NoError(t, h.coord.StartAdding(drawing.ToolHorizontalLine))
	h.coord.Tap(model.Offset{X: 120, Y: 30})

	assert.Nil(t, h.coord.Adding())
	items := h.repo.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 70.0, items[1].Points[0].Quote)
}

func TestStartAdding_UnknownTool(t *testing.T) {
	h := newHarness(t, Params{})
	assert.Error(t, h.coord.StartAdding("fib_fan"))
}

// Repositories fire change listeners synchronously from Add, and the
// coordinator's own reload listener takes the mutex. Completing a
// creation must therefore release the lock before writing.
func TestCreation_CompletionRunsRepoListeners(t *testing.T) {
	h := newHarness(t, Params{})

	reentered := make(chan Mode, 1)
	unsub := h.repo.Subscribe(func() {
		reentered <- h.coord.Mode()
	})
	defer unsub()

	require.NoError(t, h.coord.StartAdding(drawing.ToolHorizontalLine))

	done := make(chan struct{})
	go func() {
		h.coord.Tap(model.Offset{X: 120, Y: 30})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("creation completion blocked on the repository listener")
	}
	select {
	case <-reentered:
	default:
		t.Fatal("repository listener did not run")
	}
	require.Len(t, h.repo.Items(), 2)
}

func TestDrag_MovesGeometry(t *testing.T) {
	h := newHarness(t, Params{})

	h.coord.PanStart(onLine)
	h.coord.PanUpdate(model.Offset{X: 210, Y: 40})
	h.coord.PanEnd(model.Offset{X: 210, Y: 40})

	// Body drag by (+10 epoch, +10 quote) shifts both anchors.
	tools := h.coord.Tools()
	require.Len(t, tools, 1)
	cfg := tools[0].Config()
	assert.Equal(t, int64(110), cfg.Points[0].Epoch)
	assert.Equal(t, 50.0, cfg.Points[0].Quote)
	assert.Equal(t, int64(310), cfg.Points[1].Epoch)
	assert.Equal(t, 70.0, cfg.Points[1].Quote)
}

func TestDebounce_CoalescesDragWrites(t *testing.T) {
	h := newHarness(t, Params{DebounceWindow: 30 * time.Millisecond})

	var writes int
	cancel := h.repo.Subscribe(func() { writes++ })
	defer cancel()

	h.coord.PanStart(onLine)
	for i := 0; i < 10; i++ {
		h.coord.PanUpdate(model.Offset{X: 200 + float64(i), Y: 50})
	}
	h.coord.PanEnd(model.Offset{X: 209, Y: 50})

	assert.Zero(t, writes, "no write inside the quiescence window")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, writes, "a burst of edits coalesces into one write")

	cfg := h.repo.Items()[0]
	assert.Equal(t, int64(109), cfg.Points[0].Epoch, "the write carries the final geometry")
}

func TestDebounce_PerDrawingTimersAreIndependent(t *testing.T) {
	h := newHarness(t, Params{DebounceWindow: 40 * time.Millisecond})
	require.NoError(t, h.repo.Add(model.DrawingConfig{
		ID:     "d2",
		Tool:   drawing.ToolHorizontalLine,
		Points: []model.TimePoint{{Quote: 90}},
	}))

	// Edit d2 first, then keep d1 busy past d2's window.
	h.coord.PanStart(model.Offset{X: 200, Y: 10}) // y=10 => quote 90, the horizontal line
	h.coord.PanUpdate(model.Offset{X: 200, Y: 15})
	h.coord.PanEnd(model.Offset{X: 200, Y: 15})

	h.coord.PanStart(onLine)
	for i := 0; i < 6; i++ {
		h.coord.PanUpdate(model.Offset{X: 200 + float64(i), Y: 50})
		time.Sleep(10 * time.Millisecond)
	}

	// d2 has been quiet for 60ms: its write must have landed even though
	// d1 is still inside its own window.
	assert.Equal(t, 85.0, h.repo.Items()[1].Points[0].Quote)

	h.coord.PanEnd(model.Offset{X: 205, Y: 50})
	time.Sleep(80 * time.Millisecond)
}

func TestClose_CancelsPendingWithoutFlush(t *testing.T) {
	h := newHarness(t, Params{DebounceWindow: 30 * time.Millisecond})

	h.coord.PanStart(onLine)
	h.coord.PanUpdate(model.Offset{X: 250, Y: 50})
	h.coord.PanEnd(model.Offset{X: 250, Y: 50})

	h.coord.Close()
	time.Sleep(60 * time.Millisecond)

	cfg := h.repo.Items()[0]
	assert.Equal(t, int64(100), cfg.Points[0].Epoch, "close discards pending edits instead of flushing")
}

func TestRepoChange_RematerializesTools(t *testing.T) {
	h := newHarness(t, Params{})

	require.NoError(t, h.repo.Add(model.DrawingConfig{
		ID:     "d2",
		Tool:   drawing.ToolHorizontalLine,
		Points: []model.TimePoint{{Quote: 90}},
	}))
	assert.Len(t, h.coord.Tools(), 2)

	require.NoError(t, h.repo.RemoveAt(0))
	tools := h.coord.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, drawing.ToolHorizontalLine, tools[0].Name())
}

func TestCursor_ReflectsState(t *testing.T) {
	h := newHarness(t, Params{CanvasWidth: 400, CanvasHeight: 100})

	assert.Equal(t, CursorDefault, h.coord.CursorShape())

	h.coord.Hover(onLine)
	assert.Equal(t, CursorPointer, h.coord.CursorShape())

	h.coord.PanStart(onLine)
	assert.Equal(t, CursorGrabbing, h.coord.CursorShape())
	h.coord.PanEnd(onLine)
}

func TestCursor_AxisEdges(t *testing.T) {
	h := newHarness(t, Params{CanvasWidth: 400, CanvasHeight: 100})

	// Right edge is the price axis: vertical scale drag.
	h.coord.Hover(model.Offset{X: 395, Y: 10})
	assert.Equal(t, CursorNSResize, h.coord.CursorShape())

	// Bottom edge is the time axis: horizontal scale drag.
	h.coord.Hover(model.Offset{X: 50, Y: 95})
	assert.Equal(t, CursorEWResize, h.coord.CursorShape())
}
