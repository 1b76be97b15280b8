package gateway

import (
	"encoding/json"
	"log"

	"chartkit/internal/model"
)

// ── Inbound messages ──

// InboundMsg is the tagged union of everything a client may send.
type InboundMsg struct {
	Type string `json:"type"`

	// type == "auth"
	Code string `json:"code,omitempty"`

	// type == "pointer": kind is "down", "move", "up" or "leave".
	Kind string  `json:"kind,omitempty"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
	TS   int64   `json:"ts,omitempty"` // client epoch ms, informational

	// type == "view": viewport geometry after a client resize/scroll.
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	LeftEpoch   int64   `json:"left_epoch,omitempty"`
	RightEpoch  int64   `json:"right_epoch,omitempty"`
	TopQuote    float64 `json:"top_quote,omitempty"`
	BottomQuote float64 `json:"bottom_quote,omitempty"`

	// type == "add_drawing"
	Tool string `json:"tool,omitempty"`

	// type == "remove_drawing"
	Index int `json:"index,omitempty"`

	// type == "ping"
	Ping int64 `json:"ping,omitempty"`

	// type == "resume": last drawings seq the client has seen.
	Seq int64 `json:"seq,omitempty"`
}

// ── Outbound envelopes ──

// CrosshairEnvelope carries one crosshair state snapshot.
type CrosshairEnvelope struct {
	Type            string             `json:"type"` // "crosshair"
	Point           *model.TimePoint   `json:"point,omitempty"`
	Candle          *model.CandlePoint `json:"candle,omitempty"`
	Cursor          model.Offset       `json:"cursor"`
	Visible         bool               `json:"visible"`
	ShowDetails     bool               `json:"show_details"`
	WithinDataRange bool               `json:"within_data_range"`
	AnimationMs     int64              `json:"animation_ms"`
}

// ModeEnvelope reports an interaction mode or cursor change.
type ModeEnvelope struct {
	Type   string `json:"type"` // "mode"
	Mode   string `json:"mode"`
	Cursor string `json:"cursor"`
}

// DrawingsEnvelope carries the full drawing list after a mutation.
type DrawingsEnvelope struct {
	Type  string                `json:"type"` // "drawings"
	Seq   int64                 `json:"seq"`
	Items []model.DrawingConfig `json:"items"`
}

// CandlesEnvelope carries the chart series on connect.
type CandlesEnvelope struct {
	Type  string              `json:"type"` // "candles"
	Items []model.CandlePoint `json:"items"`
}

// ErrorEnvelope reports a request-level failure.
type ErrorEnvelope struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// PongEnvelope answers an application-level ping.
type PongEnvelope struct {
	Type     string `json:"type"` // "pong"
	Ping     int64  `json:"ping"`
	ServerTS int64  `json:"server_ts"`
}

// sendJSON marshals v onto the session's send channel, dropping on a
// full queue so a slow client never stalls the engine.
func sendJSON(s *Session, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[gateway] marshal %T: %v", v, err)
		return
	}
	select {
	case s.send <- data:
	default:
	}
}

// sendError reports a failure to the client.
func sendError(s *Session, msg string) {
	sendJSON(s, ErrorEnvelope{Type: "error", Message: msg})
}
