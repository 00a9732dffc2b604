package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Width != 1920 || cfg.Height != 30 {
		t.Fatalf("default geometry = %dx%d, want 1920x30", cfg.Width, cfg.Height)
	}
	if cfg.Interval != time.Second {
		t.Fatalf("default interval = %v, want 1s", cfg.Interval)
	}
	for _, kind := range MetricKinds() {
		if !cfg.HasMetric(kind) {
			t.Fatalf("default slots missing %q", kind)
		}
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("expected no file, got %q", res.File)
	}
	if len(res.Config.Slots) != len(DefaultConfig().Slots) {
		t.Fatalf("expected default slots, got %d", len(res.Config.Slots))
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Height != DefaultHeight {
		t.Fatalf("expected height %d, got %d", DefaultHeight, res.Config.Height)
	}
}

func TestLoadFromPath_OverridesAndReplacesSlots(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"height: 24",
		"baseline: 16",
		"interval: 2s",
		"slots:",
		"  - metric: clock",
		"    x: 100",
		"  - metric: cpu",
		"    x: 200",
		"    label: \"\"",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Height != 24 || cfg.Baseline != 16 {
		t.Fatalf("got height=%d baseline=%d", cfg.Height, cfg.Baseline)
	}
	if cfg.Width != DefaultWidth {
		t.Fatalf("width should keep default, got %d", cfg.Width)
	}
	if cfg.Interval != 2*time.Second {
		t.Fatalf("interval = %v, want 2s", cfg.Interval)
	}
	if len(cfg.Slots) != 2 {
		t.Fatalf("expected slots to be replaced, got %d", len(cfg.Slots))
	}
	if got := cfg.Slots[1].Prefix(); got != "" {
		t.Fatalf("explicit empty label: Prefix() = %q, want empty", got)
	}
	if got := cfg.Slots[0].Prefix(); got != "" {
		t.Fatalf("clock Prefix() = %q, want empty", got)
	}
}

func TestLoadFromPath_UnknownFieldFails(t *testing.T) {
	path := writeConfig(t, "bar_colour: red\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected unknown field to fail")
	}
}

func TestLoadFromPath_ValidationErrorCarriesSource(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"slots:",
		"  - metric: clock",
		"    x: 10",
		"  - metric: weather",
		"    x: 20",
		"",
	}, "\n"))

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "slots[1].metric" {
		t.Fatalf("Path = %q, want slots[1].metric", verr.Path)
	}
	if verr.Source.Kind != SourceFile || verr.Source.Line != 4 {
		t.Fatalf("Source = %+v, want file line 4", verr.Source)
	}
	if !strings.Contains(err.Error(), path+":4:") {
		t.Fatalf("error %q should contain file position", err.Error())
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"zero width", func(c *Config) { c.Width = 0 }, "width"},
		{"baseline below bar", func(c *Config) { c.Baseline = c.Height + 1 }, "baseline"},
		{"zero interval", func(c *Config) { c.Interval = 0 }, "interval"},
		{"no fonts", func(c *Config) { c.Font = ""; c.FontFallbacks = nil }, "font"},
		{"no slots", func(c *Config) { c.Slots = nil }, "slots"},
		{"slot off screen", func(c *Config) { c.Slots[0].X = c.Width }, "slots[0].x"},
		{"slots out of order", func(c *Config) { c.Slots[1].X = c.Slots[0].X }, "slots[1].x"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"disk without path", func(c *Config) { c.DiskPath = " " }, "disk_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("Path = %q, want %q", verr.Path, tt.path)
			}
		})
	}
}

func TestDefaultConfigPath_HonoursXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error: %v", err)
	}
	want := filepath.Join(dir, "tbar", "config.yaml")
	if got != want {
		t.Fatalf("DefaultConfigPath() = %q, want %q", got, want)
	}
}

func TestBatteryCapacityPath(t *testing.T) {
	b := BatteryConfig{Name: "BAT1", SysfsRoot: "/sys/class/power_supply/"}
	if got := b.CapacityPath(); got != "/sys/class/power_supply/BAT1/capacity" {
		t.Fatalf("CapacityPath() = %q", got)
	}
}

func TestThemeColorFor(t *testing.T) {
	theme := DefaultConfig().Theme
	if got := theme.ColorFor(MetricClock); got != 0xf5f7fa {
		t.Fatalf("clock colour = %#x", got)
	}
	if got := theme.ColorFor(MetricCPU); got != theme.Text {
		t.Fatalf("cpu colour = %#x, want text %#x", got, theme.Text)
	}
}
