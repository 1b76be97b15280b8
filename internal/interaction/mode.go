package interaction

import "fmt"

// Mode is the single piece of shared interaction state: which subsystem
// owns the active pointer gesture. Exactly one mode is active at a time
// and every completed interaction returns to ModeNone.
type Mode int

const (
	ModeNone Mode = iota
	ModeDrawingTool
	ModeCrosshair
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeDrawingTool:
		return "drawing_tool"
	case ModeCrosshair:
		return "crosshair"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Cursor is the desktop cursor shape derived from the current mode, the
// latest hit-test result and axis-edge proximity.
type Cursor int

const (
	CursorDefault Cursor = iota
	// CursorPointer: hovering an interactive drawing.
	CursorPointer
	// CursorGrabbing: actively dragging a drawing.
	CursorGrabbing
	// CursorEWResize: near the bottom time-axis edge (horizontal scale drag).
	CursorEWResize
	// CursorNSResize: near the right price-axis edge (vertical scale drag).
	CursorNSResize
)

func (c Cursor) String() string {
	switch c {
	case CursorDefault:
		return "default"
	case CursorPointer:
		return "pointer"
	case CursorGrabbing:
		return "grabbing"
	case CursorEWResize:
		return "ew-resize"
	case CursorNSResize:
		return "ns-resize"
	default:
		return fmt.Sprintf("cursor(%d)", int(c))
	}
}

// Variant selects the interaction profile of the host surface.
type Variant int

const (
	// VariantDesktop: large screen with a hover-capable pointer. Hover
	// drives the crosshair and drawing proximity.
	VariantDesktop Variant = iota
	// VariantCompact: touch surface. Hover events are ignored; the
	// crosshair is long-press only.
	VariantCompact
)
