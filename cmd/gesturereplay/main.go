// cmd/gesturereplay — Replays a recorded pointer-event log through the
// interaction engine and prints the resulting mode transitions, crosshair
// snapshots and drawing mutations. Handy for turning a bug report's event
// trace into a deterministic reproduction.
//
// Input is JSON lines on stdin or a file argument:
//
//	{"kind":"down","x":120,"y":80,"ts_ms":0}
//	{"kind":"move","x":140,"y":82,"ts_ms":16}
//	{"kind":"up","x":140,"y":82,"ts_ms":32}
//
// ts_ms is milliseconds from the start of the recording; kinds are
// "down", "move", "up" and "leave".
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"chartkit/internal/crosshair"
	"chartkit/internal/drawing"
	"chartkit/internal/feed"
	"chartkit/internal/gesture"
	"chartkit/internal/interaction"
	"chartkit/internal/model"
	"chartkit/internal/repo/memory"
	"chartkit/internal/series"
)

type event struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	TSMs int64   `json:"ts_ms"`
}

func main() {
	width := flag.Float64("width", 800, "canvas width in px")
	height := flag.Float64("height", 600, "canvas height in px")
	candles := flag.Int("candles", 240, "simulated candle count")
	seed := flag.Int64("seed", 1, "simulation seed")
	tool := flag.String("tool", "", "start a creation gesture for this tool kind before replaying")
	flag.Parse()

	in := io.Reader(os.Stdin)
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatalf("gesturereplay: %v", err)
		}
		defer f.Close()
		in = f
	}

	data := feed.Series(*candles, time.Unix(1700000000, 0), feed.SimConfig{Seed: *seed})
	vp := &series.LinearViewport{Width: *width, Height: *height}
	if first, ok := data.First(); ok {
		last, _ := data.Last()
		vp.LeftEpoch, vp.RightEpoch = first.Epoch, last.Epoch
		vp.TopQuote, vp.BottomQuote = first.Quote*1.05, first.Quote*0.95
	}

	cross := crosshair.New(vp, crosshair.Params{}, crosshair.WithQuoteFromY(vp.QuoteFromY))
	cross.SetSeries(data)
	cross.SetCanvasWidth(vp.Width)
	defer cross.Close()

	repo := memory.New()
	repo.Subscribe(func() {
		fmt.Printf("drawings: %d persisted\n", len(repo.Items()))
	})

	conv := drawing.Converter{Viewport: vp, QuoteFromY: vp.QuoteFromY}
	coord := interaction.New(cross, conv, repo, interaction.Params{
		Variant:        interaction.VariantDesktop,
		DebounceWindow: 10 * time.Millisecond, // flush fast so the replay sees the writes
		CanvasWidth:    vp.Width,
		CanvasHeight:   vp.Height,
	})
	defer coord.Close()
	coord.OnModeChange = func(from, to interaction.Mode) {
		fmt.Printf("mode: %s -> %s\n", from, to)
	}
	cross.OnAppeared = func() { fmt.Println("crosshair: appeared") }
	cross.OnDisappeared = func() { fmt.Println("crosshair: disappeared") }

	recog := gesture.New(gesture.Params{})
	recog.OnPanStart = coord.PanStart
	recog.OnPanUpdate = coord.PanUpdate
	recog.OnPanEnd = coord.PanEnd
	recog.OnPanCancel = coord.PanCancel
	recog.OnLongPressStart = coord.LongPressStart
	recog.OnLongPressUpdate = coord.LongPressUpdate
	recog.OnLongPressEnd = coord.LongPressEnd
	recog.OnTap = func(pos model.Offset) { coord.Tap(pos) }
	recog.OnHover = coord.Hover
	recog.OnHoverExit = coord.HoverExit

	if *tool != "" {
		if err := coord.StartAdding(*tool); err != nil {
			log.Fatalf("gesturereplay: %v", err)
		}
	}

	// Replay against a fixed origin so recordings are deterministic.
	origin := time.Unix(1700000000, 0)
	lastTS := int64(0)

	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Fatalf("gesturereplay: line %d: %v", lineNo, err)
		}

		// Hold timers fire on the wall clock, so honor recorded gaps.
		if gap := ev.TSMs - lastTS; gap > 0 {
			time.Sleep(time.Duration(gap) * time.Millisecond)
		}
		lastTS = ev.TSMs

		pos := model.Offset{X: ev.X, Y: ev.Y}
		at := origin.Add(time.Duration(ev.TSMs) * time.Millisecond)
		switch ev.Kind {
		case "down":
			recog.PointerDown(pos, at)
		case "move":
			recog.PointerMove(pos, at)
		case "up":
			recog.PointerUp(pos, at)
		case "leave":
			recog.PointerLeave()
		default:
			log.Fatalf("gesturereplay: line %d: unknown kind %q", lineNo, ev.Kind)
		}

		if state := cross.State(); state.Visible && state.Point != nil {
			fmt.Printf("crosshair: epoch=%d quote=%.2f details=%v in_range=%v anim=%s\n",
				state.Point.Epoch, state.Point.Quote,
				state.ShowDetails, state.WithinDataRange, state.Animation)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("gesturereplay: %v", err)
	}

	// Let trailing debounce flushes land before summarizing.
	time.Sleep(50 * time.Millisecond)
	fmt.Printf("final: mode=%s drawings=%d\n", coord.Mode(), len(repo.Items()))
}
