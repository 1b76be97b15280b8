package model

import "encoding/json"

// DrawingConfig is the persisted form of one interactive drawing.
// The engine treats it as an identifier-bearing blob: geometry lives in
// Points, tool-specific extras ride along untouched in Raw.
type DrawingConfig struct {
	ID     string          `json:"id"`
	Tool   string          `json:"tool"`
	Points []TimePoint     `json:"points"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// Clone returns a deep copy so repository snapshots cannot alias the
// caller's point slice.
func (d DrawingConfig) Clone() DrawingConfig {
	cp := d
	if d.Points != nil {
		cp.Points = make([]TimePoint, len(d.Points))
		copy(cp.Points, d.Points)
	}
	if d.Raw != nil {
		cp.Raw = make(json.RawMessage, len(d.Raw))
		copy(cp.Raw, d.Raw)
	}
	return cp
}
