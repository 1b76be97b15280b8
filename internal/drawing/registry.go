package drawing

import (
	"fmt"

	"chartkit/internal/model"
)

// Tool kind names as persisted in DrawingConfig.Tool.
const (
	ToolTrendLine      = "trend_line"
	ToolHorizontalLine = "horizontal_line"
)

// FromConfig materializes a Tool from its persisted config.
func FromConfig(cfg model.DrawingConfig) (Tool, error) {
	switch cfg.Tool {
	case ToolTrendLine:
		return TrendLineFromConfig(cfg), nil
	case ToolHorizontalLine:
		return HorizontalLineFromConfig(cfg), nil
	default:
		return nil, fmt.Errorf("drawing: unknown tool %q", cfg.Tool)
	}
}

// NewTool starts a fresh drawing of the named kind in adding state.
func NewTool(name, id string) (Tool, error) {
	switch name {
	case ToolTrendLine:
		return NewTrendLine(id), nil
	case ToolHorizontalLine:
		return NewHorizontalLine(id), nil
	default:
		return nil, fmt.Errorf("drawing: unknown tool %q", name)
	}
}
