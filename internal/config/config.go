package config

import (
	"fmt"
	"strings"
	"time"
)

// MetricKind identifies a telemetry value rendered in a bar slot.
type MetricKind string

const (
	MetricClock       MetricKind = "clock"        // HH:MM
	MetricDate        MetricKind = "date"         // DD-MM-YYYY
	MetricBattery     MetricKind = "battery"      // Capacity percentage.
	MetricCPU         MetricKind = "cpu"          // Busy percentage since the previous tick.
	MetricRAM         MetricKind = "ram"          // Used memory percentage.
	MetricDisk        MetricKind = "disk"         // Used space percentage on DiskPath.
	MetricVolume      MetricKind = "volume"       // Output volume (stub).
	MetricWorkspace   MetricKind = "workspace"    // 1-based current desktop.
	MetricWindowTitle MetricKind = "window_title" // Active window name.
)

// MetricKinds lists every known metric in a stable order.
func MetricKinds() []MetricKind {
	return []MetricKind{
		MetricClock,
		MetricDate,
		MetricBattery,
		MetricCPU,
		MetricRAM,
		MetricDisk,
		MetricVolume,
		MetricWorkspace,
		MetricWindowTitle,
	}
}

// Valid reports whether k is a known metric kind.
func (k MetricKind) Valid() bool {
	for _, known := range MetricKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// DefaultLabel returns the prefix drawn before a metric value.
func (k MetricKind) DefaultLabel() string {
	switch k {
	case MetricBattery:
		return "BAT"
	case MetricCPU:
		return "CPU"
	case MetricRAM:
		return "RAM"
	case MetricDisk:
		return "DISK"
	case MetricVolume:
		return "VOL"
	case MetricWorkspace:
		return "WS"
	default:
		return ""
	}
}

// Slot places one metric at a fixed x offset. Slots are fixed width: the
// space up to the next slot's offset belongs to this one and longer strings
// simply overlap their neighbour.
type Slot struct {
	Metric MetricKind `yaml:"metric"`
	X      int        `yaml:"x"`
	// Label overrides the metric's default prefix. An explicit empty string
	// removes the prefix.
	Label *string `yaml:"label,omitempty"`
}

// Prefix returns the effective label prefix for the slot.
func (s Slot) Prefix() string {
	if s.Label != nil {
		return *s.Label
	}
	return s.Metric.DefaultLabel()
}

// BatteryConfig selects the battery capacity source.
type BatteryConfig struct {
	// Name is the power_supply entry, e.g. BAT0.
	Name string `yaml:"name"`
	// SysfsRoot is the power_supply class directory.
	SysfsRoot string `yaml:"sysfs_root"`
	// UPower enables the UPower D-Bus display device as a fallback when the
	// sysfs file is missing.
	UPower bool `yaml:"upower"`
}

// CapacityPath returns the capacity pseudo-file for the configured battery.
func (b BatteryConfig) CapacityPath() string {
	return strings.TrimRight(b.SysfsRoot, "/") + "/" + b.Name + "/capacity"
}

// Theme holds the compiled-in colours as 0xRRGGBB pixels.
type Theme struct {
	Background uint32
	Text       uint32
	Separator  uint32
	// Metric overrides Text for individual metrics.
	Metric map[MetricKind]uint32
}

// ColorFor returns the text colour for a metric.
func (t Theme) ColorFor(kind MetricKind) uint32 {
	if c, ok := t.Metric[kind]; ok {
		return c
	}
	return t.Text
}

// Config is the bar configuration. It is built once at startup and never
// mutated afterwards.
type Config struct {
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	Baseline       int           `yaml:"baseline"`
	Font           string        `yaml:"font"`
	FontFallbacks  []string      `yaml:"font_fallbacks"`
	Interval       time.Duration `yaml:"interval"`
	Separator      string        `yaml:"separator"`
	SeparatorInset int           `yaml:"separator_inset"`
	TitleMaxRunes  int           `yaml:"title_max_runes"`
	DiskPath       string        `yaml:"disk_path"`
	Battery        BatteryConfig `yaml:"battery"`
	Slots          []Slot        `yaml:"slots"`
	LogLevel       string        `yaml:"log_level"`

	Theme Theme `yaml:"-"`
}

const (
	DefaultWidth    = 1920
	DefaultHeight   = 30
	DefaultBaseline = 20
	DefaultInterval = time.Second
)

// DefaultConfig returns the built-in bar layout.
func DefaultConfig() *Config {
	return &Config{
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		Baseline:       DefaultBaseline,
		Font:           "-misc-fixed-medium-r-normal--13-120-75-75-c-70-iso10646-1",
		FontFallbacks:  []string{"fixed", "9x15", "8x13", "6x13"},
		Interval:       DefaultInterval,
		Separator:      "|",
		SeparatorInset: 12,
		TitleMaxRunes:  60,
		DiskPath:       "/",
		Battery: BatteryConfig{
			Name:      "BAT0",
			SysfsRoot: "/sys/class/power_supply",
		},
		Slots: []Slot{
			{Metric: MetricWorkspace, X: 10},
			{Metric: MetricWindowTitle, X: 70},
			{Metric: MetricDate, X: DefaultWidth/2 - 110},
			{Metric: MetricClock, X: DefaultWidth / 2},
			{Metric: MetricCPU, X: 1300},
			{Metric: MetricRAM, X: 1390},
			{Metric: MetricDisk, X: 1480},
			{Metric: MetricVolume, X: 1580},
			{Metric: MetricBattery, X: 1670},
		},
		LogLevel: "info",
		Theme: Theme{
			Background: 0x212026,
			Text:       0xffffff,
			Separator:  0x6c6f85,
			Metric: map[MetricKind]uint32{
				MetricClock: 0xf5f7fa,
			},
		},
	}
}

// FontNames returns the primary font followed by its fallbacks.
func (c *Config) FontNames() []string {
	names := make([]string, 0, 1+len(c.FontFallbacks))
	if strings.TrimSpace(c.Font) != "" {
		names = append(names, c.Font)
	}
	for _, name := range c.FontFallbacks {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	return names
}

// HasMetric reports whether any slot renders the given metric.
func (c *Config) HasMetric(kind MetricKind) bool {
	for _, slot := range c.Slots {
		if slot.Metric == kind {
			return true
		}
	}
	return false
}

// ValidationError reports an invalid config value and where it came from.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Validate checks geometry, timing and the slot table.
func (c *Config) Validate() error {
	if c.Width <= 0 {
		return &ValidationError{Path: "width", Err: fmt.Errorf("width must be > 0")}
	}
	if c.Height <= 0 {
		return &ValidationError{Path: "height", Err: fmt.Errorf("height must be > 0")}
	}
	if c.Baseline <= 0 || c.Baseline > c.Height {
		return &ValidationError{Path: "baseline", Err: fmt.Errorf("baseline must be within (0, height]")}
	}
	if c.Interval <= 0 {
		return &ValidationError{Path: "interval", Err: fmt.Errorf("interval must be > 0")}
	}
	if len(c.FontNames()) == 0 {
		return &ValidationError{Path: "font", Err: fmt.Errorf("font or font_fallbacks must name at least one font")}
	}
	if c.SeparatorInset < 0 {
		return &ValidationError{Path: "separator_inset", Err: fmt.Errorf("separator_inset must be >= 0")}
	}
	if c.TitleMaxRunes <= 0 {
		return &ValidationError{Path: "title_max_runes", Err: fmt.Errorf("title_max_runes must be > 0")}
	}
	if c.HasMetric(MetricDisk) && strings.TrimSpace(c.DiskPath) == "" {
		return &ValidationError{Path: "disk_path", Err: fmt.Errorf("disk_path is required when a disk slot is configured")}
	}
	if c.HasMetric(MetricBattery) && strings.TrimSpace(c.Battery.Name) == "" {
		return &ValidationError{Path: "battery.name", Err: fmt.Errorf("battery.name is required when a battery slot is configured")}
	}
	if len(c.Slots) == 0 {
		return &ValidationError{Path: "slots", Err: fmt.Errorf("slots must not be empty")}
	}
	prevX := -1
	for i, slot := range c.Slots {
		if !slot.Metric.Valid() {
			return &ValidationError{
				Path: fmt.Sprintf("slots[%d].metric", i),
				Err:  fmt.Errorf("unknown metric %q", slot.Metric),
			}
		}
		if slot.X < 0 || slot.X >= c.Width {
			return &ValidationError{
				Path: fmt.Sprintf("slots[%d].x", i),
				Err:  fmt.Errorf("x must be within [0, width)"),
			}
		}
		if slot.X <= prevX {
			return &ValidationError{
				Path: fmt.Sprintf("slots[%d].x", i),
				Err:  fmt.Errorf("slots must be ordered left to right"),
			}
		}
		prevX = slot.X
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	return nil
}
