package drawing

import (
	"testing"

	"chartkit/internal/model"
	"chartkit/internal/series"
)

// testConverter maps 1 px to 1 epoch ms and 1 px to 1 inverted quote
// unit, so positions read directly as chart values.
func testConverter() Converter {
	vp := &series.LinearViewport{
		LeftEpoch: 0, RightEpoch: 400,
		TopQuote: 100, BottomQuote: 0,
		Width: 400, Height: 100,
	}
	return Converter{Viewport: vp, QuoteFromY: vp.QuoteFromY}
}

func seededTrendLine() *TrendLine {
	// On screen: (100,60) to (300,40).
	return TrendLineFromConfig(model.DrawingConfig{
		ID:   "t1",
		Tool: ToolTrendLine,
		Points: []model.TimePoint{
			{Epoch: 100, Quote: 40}, {Epoch: 300, Quote: 60},
		},
	})
}

func TestTrendLine_HitTest(t *testing.T) {
	cv := testConverter()
	tl := seededTrendLine()

	cases := []struct {
		name string
		pos  model.Offset
		want bool
	}{
		{"midpoint", model.Offset{X: 200, Y: 50}, true},
		{"near segment", model.Offset{X: 200, Y: 56}, true},
		{"too far", model.Offset{X: 200, Y: 70}, false},
		{"start anchor", model.Offset{X: 100, Y: 60}, true},
		{"beyond the end anchor", model.Offset{X: 340, Y: 36}, false},
	}
	for _, c := range cases {
		if got := tl.HitTest(c.pos, cv); got != c.want {
			t.Errorf("%s: HitTest(%v) = %v, want %v", c.name, c.pos, got, c.want)
		}
	}
}

func TestTrendLine_HitTestIgnoredWhileAdding(t *testing.T) {
	cv := testConverter()
	tl := NewTrendLine("t2")
	if tl.HitTest(model.Offset{X: 0, Y: 100}, cv) {
		t.Error("an unfinished drawing must not be hittable")
	}
}

func TestTrendLine_EndpointDrag(t *testing.T) {
	cv := testConverter()
	tl := seededTrendLine()

	if !tl.DragStart(model.Offset{X: 300, Y: 40}, cv) {
		t.Fatal("expected grab on the end anchor")
	}
	if tl.State() != StateDragging {
		t.Errorf("expected dragging state, got %v", tl.State())
	}

	tl.DragUpdate(model.Offset{X: 350, Y: 20}, cv)
	tl.DragEnd()

	cfg := tl.Config()
	if cfg.Points[0].Epoch != 100 || cfg.Points[0].Quote != 40 {
		t.Errorf("start anchor must not move, got %+v", cfg.Points[0])
	}
	if cfg.Points[1].Epoch != 350 || cfg.Points[1].Quote != 80 {
		t.Errorf("end anchor should follow the pointer, got %+v", cfg.Points[1])
	}
	if tl.State() != StateSelected {
		t.Errorf("released drawing stays selected, got %v", tl.State())
	}
}

func TestTrendLine_BodyDragPreservesShape(t *testing.T) {
	cv := testConverter()
	tl := seededTrendLine()

	if !tl.DragStart(model.Offset{X: 200, Y: 50}, cv) {
		t.Fatal("expected body grab on the midpoint")
	}
	tl.DragUpdate(model.Offset{X: 220, Y: 45}, cv)

	cfg := tl.Config()
	// Shifted by (+20 epoch, +5 quote); the segment's span is unchanged.
	if cfg.Points[0].Epoch != 120 || cfg.Points[0].Quote != 45 {
		t.Errorf("start = %+v, want (120, 45)", cfg.Points[0])
	}
	if cfg.Points[1].Epoch != 320 || cfg.Points[1].Quote != 65 {
		t.Errorf("end = %+v, want (320, 65)", cfg.Points[1])
	}
}

func TestTrendLine_DragStartMissesEmptySpace(t *testing.T) {
	cv := testConverter()
	tl := seededTrendLine()

	if tl.DragStart(model.Offset{X: 50, Y: 10}, cv) {
		t.Error("empty space must not start a drag")
	}
	if tl.State() != StateNormal {
		t.Errorf("missed grab must not change state, got %v", tl.State())
	}
}

func TestTrendLine_CreationTwoTaps(t *testing.T) {
	cv := testConverter()
	tl := NewTrendLine("t3")

	if done := tl.CreateTap(model.Offset{X: 50, Y: 80}, cv); done {
		t.Fatal("first tap must not complete the line")
	}
	if done := tl.CreateTap(model.Offset{X: 150, Y: 20}, cv); !done {
		t.Fatal("second tap completes the line")
	}

	cfg := tl.Config()
	if cfg.Points[0] != (model.TimePoint{Epoch: 50, Quote: 20}) {
		t.Errorf("start = %+v", cfg.Points[0])
	}
	if cfg.Points[1] != (model.TimePoint{Epoch: 150, Quote: 80}) {
		t.Errorf("end = %+v", cfg.Points[1])
	}
	if tl.State() != StateNormal {
		t.Errorf("completed drawing starts in normal state, got %v", tl.State())
	}
}

func TestHorizontalLine_HitAndDrag(t *testing.T) {
	cv := testConverter()
	hl := HorizontalLineFromConfig(model.DrawingConfig{
		ID:     "h1",
		Tool:   ToolHorizontalLine,
		Points: []model.TimePoint{{Quote: 60}},
	})

	// Level at quote 60 renders at y=40; any x along it hits.
	if !hl.HitTest(model.Offset{X: 10, Y: 44}, cv) {
		t.Error("expected hit within tolerance of the level")
	}
	if hl.HitTest(model.Offset{X: 10, Y: 60}, cv) {
		t.Error("expected miss 20 px away")
	}

	if !hl.DragStart(model.Offset{X: 200, Y: 40}, cv) {
		t.Fatal("expected grab on the level")
	}
	hl.DragUpdate(model.Offset{X: 200, Y: 25}, cv)
	hl.DragEnd()

	if hl.Quote() != 75 {
		t.Errorf("level should follow the pointer's quote, got %v", hl.Quote())
	}
}

func TestHorizontalLine_CreationOneTap(t *testing.T) {
	cv := testConverter()
	hl := NewHorizontalLine("h2")

	if done := hl.CreateTap(model.Offset{X: 77, Y: 30}, cv); !done {
		t.Fatal("horizontal line completes on the first tap")
	}
	if hl.Quote() != 70 {
		t.Errorf("quote = %v, want 70", hl.Quote())
	}
}

func TestConverter_PointAtPanicsWithoutQuoteFromY(t *testing.T) {
	cv := testConverter()
	cv.QuoteFromY = nil

	defer func() {
		if recover() == nil {
			t.Error("expected panic without the inverse vertical mapping")
		}
	}()
	cv.PointAt(model.Offset{X: 10, Y: 10})
}

func TestRegistry_RoundTrip(t *testing.T) {
	cfg := seededTrendLine().Config()
	tool, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if tool.Name() != ToolTrendLine {
		t.Errorf("round-tripped tool kind = %s", tool.Name())
	}

	if _, err := FromConfig(model.DrawingConfig{Tool: "gann_box"}); err == nil {
		t.Error("unknown tool kinds must be rejected")
	}
	if _, err := NewTool("gann_box", "x"); err == nil {
		t.Error("unknown tool kinds must be rejected")
	}
}
