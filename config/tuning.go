package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "350ms" or "2s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Tuning carries the engine knobs operators most often adjust. All
// fields are optional; zero values mean "use the built-in default".
type Tuning struct {
	// Crosshair
	EdgeZonePx   float64 `yaml:"edge_zone_px"`
	EdgePanSpeed float64 `yaml:"edge_pan_speed"`

	// Velocity smoothing
	VelocityAlpha     float64  `yaml:"velocity_alpha"`
	MinSampleInterval Duration `yaml:"min_sample_interval"`

	// Gesture classification
	LongPressDelay Duration `yaml:"long_press_delay"`
	DeadZonePx     float64  `yaml:"dead_zone_px"`

	// Persistence
	DebounceWindow Duration `yaml:"debounce_window"`
}

// LoadTuning reads a YAML tuning file. An empty path returns zero
// Tuning (all defaults) without touching the filesystem.
func LoadTuning(path string) (Tuning, error) {
	var t Tuning
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("tuning read: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("tuning parse %s: %w", path, err)
	}
	return t, nil
}
