package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"chartkit/internal/crosshair"
	"chartkit/internal/drawing"
	"chartkit/internal/gesture"
	"chartkit/internal/interaction"
	"chartkit/internal/logger"
	"chartkit/internal/model"
	"chartkit/internal/series"
)

// Session is one connected client: a WebSocket peer plus its private
// interaction engine instance. Drawings flow through the hub's shared
// repository; crosshair and mode state are per-session.
type Session struct {
	id   string
	ctx  context.Context
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	vp    *series.LinearViewport
	cross *crosshair.Controller
	coord *interaction.Coordinator
	recog *gesture.Recognizer

	authed bool
}

// remotePan forwards engine pan directives to the client, which owns the
// actual viewport scrolling.
type remotePan struct{ s *Session }

// PanEnvelope carries a pan directive to the client.
type PanEnvelope struct {
	Type         string  `json:"type"` // "pan"
	Speed        float64 `json:"speed"`
	BlockAutoPan bool    `json:"block_auto_pan"`
}

func (p remotePan) BlockAutoPan(blocked bool) {
	sendJSON(p.s, PanEnvelope{Type: "pan", BlockAutoPan: blocked})
}

func (p remotePan) PanBy(speed float64) {
	sendJSON(p.s, PanEnvelope{Type: "pan", Speed: speed})
}

func newSession(h *Hub, conn *websocket.Conn) *Session {
	id := logger.GenerateSessionID(conn.RemoteAddr().String(), time.Now())
	s := &Session{
		id:     id,
		ctx:    logger.WithSessionID(context.Background(), id),
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		authed: h.cfg.TOTPSecret == "",
	}

	// Default viewport until the client reports its real geometry.
	s.vp = &series.LinearViewport{Width: 800, Height: 600}
	if first, ok := h.data.First(); ok {
		last, _ := h.data.Last()
		s.vp.LeftEpoch, s.vp.RightEpoch = first.Epoch, last.Epoch
	}

	s.cross = crosshair.New(s.vp,
		crosshair.Params{
			EdgeZone:     h.cfg.EdgeZone,
			EdgePanSpeed: h.cfg.EdgePanSpeed,
			Velocity:     h.cfg.Velocity,
		},
		crosshair.WithQuoteFromY(s.vp.QuoteFromY),
		crosshair.WithPanControl(remotePan{s}),
	)
	s.cross.SetSeries(h.data)
	s.cross.SetCanvasWidth(s.vp.Width)
	if h.Metrics != nil {
		m := h.Metrics
		s.cross.OnAppeared = func() { m.CrosshairShownTotal.Inc() }
	}

	conv := drawing.Converter{Viewport: s.vp, QuoteFromY: s.vp.QuoteFromY}
	s.coord = interaction.New(s.cross, conv, h.repo, interaction.Params{
		Variant:        h.cfg.Variant,
		DebounceWindow: h.cfg.DebounceWindow,
		CanvasWidth:    s.vp.Width,
		CanvasHeight:   s.vp.Height,
	})
	s.coord.OnModeChange = func(from, to interaction.Mode) {
		if h.Metrics != nil {
			h.Metrics.ModeTransitions.WithLabelValues(from.String(), to.String()).Inc()
		}
		s.sendMode()
	}
	s.coord.OnCursorChange = func(interaction.Cursor) { s.sendMode() }

	if h.Metrics != nil {
		m := h.Metrics
		s.coord.OnPersistFlush = func() {
			m.DebounceFlushesTotal.Inc()
			m.DrawingWritesTotal.WithLabelValues("update").Inc()
		}
		s.coord.OnPersistDiscard = m.DebounceDiscarded.Inc
		s.coord.OnDrawingAdded = func(string) {
			m.DrawingWritesTotal.WithLabelValues("add").Inc()
		}
	}

	s.recog = gesture.New(h.cfg.Gesture)
	s.recog.OnPanStart = s.coord.PanStart
	s.recog.OnPanUpdate = s.coord.PanUpdate
	s.recog.OnPanEnd = s.coord.PanEnd
	s.recog.OnPanCancel = s.coord.PanCancel
	s.recog.OnLongPressStart = s.coord.LongPressStart
	s.recog.OnLongPressUpdate = s.coord.LongPressUpdate
	s.recog.OnLongPressEnd = s.coord.LongPressEnd
	s.recog.OnTap = func(pos model.Offset) { s.coord.Tap(pos) }
	s.recog.OnHover = s.coord.Hover
	s.recog.OnHoverExit = s.coord.HoverExit

	if h.Metrics != nil {
		m := h.Metrics
		prevPan, prevPress, prevTap := s.recog.OnPanStart, s.recog.OnLongPressStart, s.recog.OnTap
		s.recog.OnPanStart = func(pos model.Offset) {
			m.GesturesTotal.WithLabelValues("pan").Inc()
			prevPan(pos)
		}
		s.recog.OnLongPressStart = func(pos model.Offset) {
			m.GesturesTotal.WithLabelValues("long_press").Inc()
			prevPress(pos)
		}
		s.recog.OnTap = func(pos model.Offset) {
			m.GesturesTotal.WithLabelValues("tap").Inc()
			prevTap(pos)
		}
	}

	return s
}

// sendInitialState pushes the candle series and current drawings so the
// client can render before the first gesture.
func (s *Session) sendInitialState() {
	if s.hub.data.HasOHLC() {
		candles := make([]model.CandlePoint, s.hub.data.Len())
		for i := range candles {
			candles[i], _ = s.hub.data.CandleAt(i)
		}
		sendJSON(s, CandlesEnvelope{Type: "candles", Items: candles})
	}
	if s.hub.repo != nil {
		sendJSON(s, DrawingsEnvelope{Type: "drawings", Seq: s.hub.currentSeq(), Items: s.hub.repo.Items()})
	}
	s.sendMode()
}

func (s *Session) sendMode() {
	sendJSON(s, ModeEnvelope{
		Type:   "mode",
		Mode:   s.coord.Mode().String(),
		Cursor: s.coord.CursorShape().String(),
	})
}

// forwardSnapshots relays crosshair state snapshots to the client until
// the controller closes.
func (s *Session) forwardSnapshots() {
	for state := range s.cross.Subscribe() {
		sendJSON(s, CrosshairEnvelope{
			Type:            "crosshair",
			Point:           state.Point,
			Candle:          state.Candle,
			Cursor:          state.Cursor,
			Visible:         state.Visible,
			ShowDetails:     state.ShowDetails,
			WithinDataRange: state.WithinDataRange,
			AnimationMs:     state.Animation.Milliseconds(),
		})
		if s.hub.Metrics != nil && state.Visible && !state.WithinDataRange {
			s.hub.Metrics.VirtualPointsTotal.Inc()
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

			// Write coalescing: batch queued envelopes into a single
			// frame with newline separators.
			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)
			n := len(s.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-s.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) readPump() {
	defer func() {
		s.teardown()
		s.conn.Close()
	}()

	s.conn.SetReadLimit(4096)
	if !s.authed {
		// Unauthenticated peers get a short window to present a code.
		s.conn.SetReadDeadline(time.Now().Add(authWindow))
	} else {
		s.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg InboundMsg
		if json.Unmarshal(data, &msg) != nil {
			continue
		}

		if !s.authed {
			if msg.Type != "auth" || !validateTOTP(s.hub.cfg.TOTPSecret, msg.Code) {
				sendError(s, "authentication required")
				return
			}
			s.authed = true
			s.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			continue
		}

		s.handleMessage(msg)
	}
}

func (s *Session) handleMessage(msg InboundMsg) {
	switch msg.Type {
	case "pointer":
		s.handlePointer(msg)

	case "view":
		s.handleView(msg)

	case "add_drawing":
		if err := s.coord.StartAdding(msg.Tool); err != nil {
			sendError(s, err.Error())
		}

	case "remove_drawing":
		if s.hub.repo == nil {
			sendError(s, "no drawing repository configured")
			return
		}
		if err := s.hub.repo.RemoveAt(msg.Index); err != nil {
			sendError(s, err.Error())
		} else if s.hub.Metrics != nil {
			s.hub.Metrics.DrawingWritesTotal.WithLabelValues("remove").Inc()
		}

	case "resume":
		// Reconnecting clients catch up from the replay ring instead of
		// waiting for the next mutation.
		for _, data := range s.hub.replay.Since(msg.Seq) {
			select {
			case s.send <- data:
			default:
			}
		}

	case "ping":
		sendJSON(s, PongEnvelope{Type: "pong", Ping: msg.Ping, ServerTS: time.Now().UnixMilli()})

	default:
		sendError(s, "unknown message type: "+msg.Type)
	}
}

func (s *Session) handlePointer(msg InboundMsg) {
	if s.hub.Metrics != nil {
		s.hub.Metrics.PointerEventsTotal.WithLabelValues(msg.Kind).Inc()
	}

	pos := model.Offset{X: msg.X, Y: msg.Y}
	now := time.Now()
	switch msg.Kind {
	case "down":
		s.recog.PointerDown(pos, now)
	case "move":
		s.recog.PointerMove(pos, now)
	case "up":
		s.recog.PointerUp(pos, now)
	case "leave":
		s.recog.PointerLeave()
	default:
		sendError(s, "unknown pointer kind: "+msg.Kind)
	}
}

// handleView applies the client's reported viewport geometry.
func (s *Session) handleView(msg InboundMsg) {
	if msg.Width <= 0 || msg.Height <= 0 {
		sendError(s, "view: width and height must be positive")
		return
	}
	s.vp.Width = msg.Width
	s.vp.Height = msg.Height
	s.vp.LeftEpoch = msg.LeftEpoch
	s.vp.RightEpoch = msg.RightEpoch
	s.vp.TopQuote = msg.TopQuote
	s.vp.BottomQuote = msg.BottomQuote
	s.cross.SetCanvasWidth(msg.Width)
	s.coord.SetCanvas(msg.Width, msg.Height)
}

// teardown releases the session's engine. Pending debounced edits are
// cancelled without flushing.
func (s *Session) teardown() {
	s.coord.Close()
	s.cross.Close()
	s.hub.removeSession(s)
	slog.Info("session torn down", logger.LogWithSession(s.ctx)...)
}
