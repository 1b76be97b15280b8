// cmd/termchart — Terminal chart host for the interaction engine.
// Renders a simulated candle series in a tcell screen and drives the
// full gesture → coordinator → crosshair/drawing pipeline from terminal
// mouse events. Useful for poking the engine without a browser.
//
// Keys:
//
//	t — start drawing a trend line (two clicks)
//	h — start drawing a horizontal line (one click)
//	q / Esc / Ctrl-C — quit
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"chartkit/internal/crosshair"
	"chartkit/internal/drawing"
	"chartkit/internal/feed"
	"chartkit/internal/gesture"
	"chartkit/internal/interaction"
	"chartkit/internal/model"
	"chartkit/internal/repo/memory"
	"chartkit/internal/series"
)

// app owns the screen and the engine for one terminal session.
type app struct {
	screen tcell.Screen
	data   *series.Series
	vp     *series.LinearViewport

	cross *crosshair.Controller
	coord *interaction.Coordinator
	recog *gesture.Recognizer

	mouseDown bool
	status    string
}

func main() {
	log.SetOutput(os.Stderr)

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("termchart: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("termchart: %v", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	a := newApp(screen)
	a.run()
}

func newApp(screen tcell.Screen) *app {
	data := feed.Series(120, time.Now(), feed.SimConfig{})
	w, h := screen.Size()

	vp := &series.LinearViewport{Width: float64(w), Height: float64(h - 1)}
	fitViewport(vp, data)

	a := &app{screen: screen, data: data, vp: vp}

	a.cross = crosshair.New(vp, crosshair.Params{},
		crosshair.WithQuoteFromY(vp.QuoteFromY),
	)
	a.cross.SetSeries(data)
	a.cross.SetCanvasWidth(vp.Width)

	conv := drawing.Converter{Viewport: vp, QuoteFromY: vp.QuoteFromY}
	a.coord = interaction.New(a.cross, conv, memory.New(), interaction.Params{
		Variant:      interaction.VariantDesktop,
		CanvasWidth:  vp.Width,
		CanvasHeight: vp.Height,
	})

	// Terminal mice report no hover stream worth classifying; a short
	// hold delay keeps long-press usable with a held button.
	a.recog = gesture.New(gesture.Params{HoldDelay: 400 * time.Millisecond, DeadZone: 1})
	a.recog.OnPanStart = a.coord.PanStart
	a.recog.OnPanUpdate = a.coord.PanUpdate
	a.recog.OnPanEnd = a.coord.PanEnd
	a.recog.OnPanCancel = a.coord.PanCancel
	a.recog.OnLongPressStart = a.coord.LongPressStart
	a.recog.OnLongPressUpdate = a.coord.LongPressUpdate
	a.recog.OnLongPressEnd = a.coord.LongPressEnd
	a.recog.OnTap = func(pos model.Offset) { a.coord.Tap(pos) }
	a.recog.OnHover = a.coord.Hover
	a.recog.OnHoverExit = a.coord.HoverExit

	return a
}

// fitViewport spans the viewport over the whole series with 5% vertical
// headroom.
func fitViewport(vp *series.LinearViewport, data *series.Series) {
	first, ok := data.First()
	if !ok {
		return
	}
	last, _ := data.Last()
	vp.LeftEpoch, vp.RightEpoch = first.Epoch, last.Epoch

	lo, hi := first.Quote, first.Quote
	for i := 0; i < data.Len(); i++ {
		c, _ := data.CandleAt(i)
		if c.Low < lo {
			lo = c.Low
		}
		if c.High > hi {
			hi = c.High
		}
	}
	pad := (hi - lo) * 0.05
	vp.TopQuote, vp.BottomQuote = hi+pad, lo-pad
}

func (a *app) run() {
	defer a.coord.Close()
	defer a.cross.Close()

	a.draw()
	for {
		ev := a.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if !a.handleKey(ev) {
				return
			}

		case *tcell.EventMouse:
			a.handleMouse(ev)

		case *tcell.EventResize:
			w, h := a.screen.Size()
			a.vp.Width, a.vp.Height = float64(w), float64(h-1)
			a.cross.SetCanvasWidth(a.vp.Width)
			a.coord.SetCanvas(a.vp.Width, a.vp.Height)
			a.screen.Sync()
		}
		a.draw()
	}
}

func (a *app) handleKey(ev *tcell.EventKey) bool {
	switch {
	case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
		return false
	case ev.Rune() == 'q':
		return false
	case ev.Rune() == 't':
		a.coord.StartAdding(drawing.ToolTrendLine)
		a.status = "trend line: click start, then end"
	case ev.Rune() == 'h':
		a.coord.StartAdding(drawing.ToolHorizontalLine)
		a.status = "horizontal line: click the level"
	}
	return true
}

func (a *app) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	pos := model.Offset{X: float64(x), Y: float64(y)}
	now := time.Now()

	pressed := ev.Buttons()&tcell.Button1 != 0
	switch {
	case pressed && !a.mouseDown:
		a.mouseDown = true
		a.recog.PointerDown(pos, now)
	case pressed && a.mouseDown:
		a.recog.PointerMove(pos, now)
	case !pressed && a.mouseDown:
		a.mouseDown = false
		a.recog.PointerUp(pos, now)
	default:
		a.recog.PointerMove(pos, now)
	}
}

// ── Rendering ──

func (a *app) draw() {
	a.screen.Clear()
	a.drawCandles()
	a.drawDrawings()
	a.drawCrosshair()
	a.drawStatus()
	a.screen.Show()
}

func (a *app) drawCandles() {
	styleUp := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleDown := tcell.StyleDefault.Foreground(tcell.ColorRed)

	for i := 0; i < a.data.Len(); i++ {
		c, _ := a.data.CandleAt(i)
		x := int(a.vp.XFromEpoch(c.Epoch))
		if x < 0 || x >= int(a.vp.Width) {
			continue
		}

		style := styleUp
		if c.Close < c.Open {
			style = styleDown
		}

		yHigh := int(a.vp.YFromQuote(c.High))
		yLow := int(a.vp.YFromQuote(c.Low))
		yOpen := int(a.vp.YFromQuote(c.Open))
		yClose := int(a.vp.YFromQuote(c.Close))
		if yOpen > yClose {
			yOpen, yClose = yClose, yOpen
		}

		for y := yHigh; y <= yLow; y++ {
			r := '│'
			if y >= yOpen && y <= yClose {
				r = '█'
			}
			a.screen.SetContent(x, y, r, nil, style)
		}
	}
}

func (a *app) drawDrawings() {
	style := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	selStyle := style.Bold(true)

	for _, tool := range a.coord.Tools() {
		st := style
		if tool.State() == drawing.StateSelected || tool.State() == drawing.StateDragging {
			st = selStyle
		}

		cfg := tool.Config()
		switch {
		case tool.Name() == drawing.ToolHorizontalLine && len(cfg.Points) >= 1:
			y := int(a.vp.YFromQuote(cfg.Points[0].Quote))
			for x := 0; x < int(a.vp.Width); x++ {
				a.screen.SetContent(x, y, '─', nil, st)
			}

		case len(cfg.Points) >= 2:
			x0 := a.vp.XFromEpoch(cfg.Points[0].Epoch)
			y0 := a.vp.YFromQuote(cfg.Points[0].Quote)
			x1 := a.vp.XFromEpoch(cfg.Points[1].Epoch)
			y1 := a.vp.YFromQuote(cfg.Points[1].Quote)
			drawSegment(a.screen, x0, y0, x1, y1, st)
		}
	}
}

// drawSegment rasterizes a segment by stepping its longer axis.
func drawSegment(screen tcell.Screen, x0, y0, x1, y1 float64, style tcell.Style) {
	dx, dy := x1-x0, y1-y0
	steps := dx
	if steps < 0 {
		steps = -steps
	}
	if d := dy; d < 0 && -d > steps {
		steps = -d
	} else if d > steps {
		steps = d
	}
	if steps < 1 {
		steps = 1
	}
	for i := 0.0; i <= steps; i++ {
		t := i / steps
		screen.SetContent(int(x0+dx*t), int(y0+dy*t), '·', nil, style)
	}
}

func (a *app) drawCrosshair() {
	state := a.cross.State()
	if !state.Visible || state.Point == nil {
		return
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorAqua)
	cx := int(a.vp.XFromEpoch(state.Point.Epoch))
	cy := int(a.vp.YFromQuote(state.Point.Quote))
	w, h := int(a.vp.Width), int(a.vp.Height)

	for y := 0; y < h; y++ {
		a.screen.SetContent(cx, y, '┊', nil, style)
	}
	for x := 0; x < w; x++ {
		a.screen.SetContent(x, cy, '┈', nil, style)
	}
	a.screen.SetContent(cx, cy, '┼', nil, style.Bold(true))
}

func (a *app) drawStatus() {
	_, h := a.screen.Size()
	style := tcell.StyleDefault.Reverse(true)

	line := fmt.Sprintf(" mode:%s  cursor:%s  drawings:%d  %s",
		a.coord.Mode(), a.coord.CursorShape(), len(a.coord.Tools()), a.status)
	if state := a.cross.State(); state.Visible && state.Point != nil {
		line += fmt.Sprintf("  [%d @ %.2f]", state.Point.Epoch, state.Point.Quote)
	}

	for x, r := range line {
		a.screen.SetContent(x, h-1, r, nil, style)
	}
}
