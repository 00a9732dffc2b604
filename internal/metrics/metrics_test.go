package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/tbar/internal/config"
)

func TestSampleLabel(t *testing.T) {
	tests := []struct {
		sample Sample
		prefix string
		want   string
	}{
		{Percent(42.4), "CPU", "CPU 42%"},
		{Percent(150), "BAT", "BAT 100%"},
		{Percent(-3), "RAM", "RAM 0%"},
		{UnavailablePercent(), "VOL", "VOL N/A"},
		{Integer(3), "WS", "WS 3"},
		{UnavailableInteger(), "WS", "WS N/A"},
		{Text("14:05"), "", "14:05"},
	}
	for _, tt := range tests {
		if got := tt.sample.Label(tt.prefix); got != tt.want {
			t.Fatalf("Label(%q) on %+v = %q, want %q", tt.prefix, tt.sample, got, tt.want)
		}
	}
}

func TestClockAndDate(t *testing.T) {
	now := time.Date(2025, time.March, 7, 14, 5, 59, 0, time.UTC)
	ctx := context.Background()

	if got := (ClockCollector{}).Collect(ctx, now).Text; got != "14:05" {
		t.Fatalf("clock = %q, want 14:05", got)
	}
	if got := (DateCollector{}).Collect(ctx, now).Text; got != "07-03-2025" {
		t.Fatalf("date = %q, want 07-03-2025", got)
	}

	loc := time.FixedZone("UTC+2", 2*60*60)
	if got := (ClockCollector{Location: loc}).Collect(ctx, now).Text; got != "16:05" {
		t.Fatalf("clock in UTC+2 = %q, want 16:05", got)
	}
}

func TestBatteryCollector_ReadsSysfsAndRecovers(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "power_supply")
	cfg := config.BatteryConfig{Name: "BAT0", SysfsRoot: root}
	c := NewBatteryCollector(cfg, nil)
	ctx := context.Background()

	if got := c.Collect(ctx, time.Time{}); got.Available {
		t.Fatalf("missing file: got %+v, want unavailable", got)
	}

	if err := os.MkdirAll(filepath.Join(root, "BAT0"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(cfg.CapacityPath(), []byte("87\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := c.Collect(ctx, time.Time{}); !got.Available || got.Value != 87 {
		t.Fatalf("after file appears: got %+v, want 87", got)
	}

	if err := os.WriteFile(cfg.CapacityPath(), []byte("full"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := c.Collect(ctx, time.Time{}); got.Available {
		t.Fatalf("garbage file: got %+v, want unavailable", got)
	}
}

type fakePercent struct {
	v   float64
	err error
}

func (f fakePercent) Percent(context.Context) (float64, error) { return f.v, f.err }

func TestBatteryCollector_FallsBackToNextSource(t *testing.T) {
	c := NewBatteryCollectorFrom(nil,
		fakePercent{err: os.ErrNotExist},
		fakePercent{v: 64.6},
	)
	if got := c.Collect(context.Background(), time.Time{}); got.Value != 65 || !got.Available {
		t.Fatalf("got %+v, want 65", got)
	}
}

func TestRAMCollector(t *testing.T) {
	tests := []struct {
		name      string
		total     uint64
		free      uint64
		err       error
		want      int
		available bool
	}{
		{"quarter free", 4000, 1000, nil, 75, true},
		{"all free", 4000, 4000, nil, 0, true},
		{"free exceeds total", 100, 200, nil, 0, true},
		{"zero total", 0, 0, nil, 0, false},
		{"query fails", 0, 0, errors.New("no meminfo"), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewRAMCollector(func(context.Context) (uint64, uint64, error) {
				return tt.total, tt.free, tt.err
			}, nil)
			got := c.Collect(context.Background(), time.Time{})
			if got.Available != tt.available || got.Value != tt.want {
				t.Fatalf("got %+v, want value=%d available=%v", got, tt.want, tt.available)
			}
		})
	}
}

func TestDiskCollector(t *testing.T) {
	var gotPath string
	c := NewDiskCollector("/data", func(_ context.Context, path string) (uint64, uint64, error) {
		gotPath = path
		return 1000, 333, nil
	}, nil)
	got := c.Collect(context.Background(), time.Time{})
	if gotPath != "/data" {
		t.Fatalf("queried %q, want /data", gotPath)
	}
	if got.Value != 33 || !got.Available {
		t.Fatalf("got %+v, want 33", got)
	}

	failing := NewDiskCollector("/", func(context.Context, string) (uint64, uint64, error) {
		return 0, 0, errors.New("statfs failed")
	}, nil)
	if got := failing.Collect(context.Background(), time.Time{}); got.Available {
		t.Fatalf("failing disk: got %+v, want unavailable", got)
	}
}

func TestDiskCollector_RootFilesystem(t *testing.T) {
	got := NewDiskCollector("/", nil, nil).Collect(context.Background(), time.Time{})
	if got.Available && (got.Value < 0 || got.Value > 100) {
		t.Fatalf("disk usage %d outside [0,100]", got.Value)
	}
}

func TestVolumeCollectorIsPlaceholder(t *testing.T) {
	got := (VolumeCollector{}).Collect(context.Background(), time.Time{})
	if got.Available {
		t.Fatalf("volume should be unavailable, got %+v", got)
	}
	if got.Label("VOL") != "VOL N/A" {
		t.Fatalf("label = %q", got.Label("VOL"))
	}
}

type fakeWM struct {
	desktop    uint
	desktopErr error
	title      string
	titleErr   error
}

func (f fakeWM) CurrentDesktop() (uint, error)      { return f.desktop, f.desktopErr }
func (f fakeWM) ActiveWindowTitle() (string, error) { return f.title, f.titleErr }

func TestWorkspaceCollector(t *testing.T) {
	ctx := context.Background()
	if got := NewWorkspaceCollector(fakeWM{desktop: 2}, nil).Collect(ctx, time.Time{}); got.Value != 3 || !got.Available {
		t.Fatalf("got %+v, want 3", got)
	}
	absent := fakeWM{desktopErr: errors.New("_NET_CURRENT_DESKTOP missing")}
	if got := NewWorkspaceCollector(absent, nil).Collect(ctx, time.Time{}); got.Available {
		t.Fatalf("absent property: got %+v, want unavailable", got)
	}
	if got := NewWorkspaceCollector(nil, nil).Collect(ctx, time.Time{}); got.Available {
		t.Fatalf("no wm: got %+v, want unavailable", got)
	}
}

func TestWindowTitleCollector_PlaceholderWhenAbsent(t *testing.T) {
	ctx := context.Background()
	cases := []fakeWM{
		{titleErr: errors.New("_NET_ACTIVE_WINDOW missing")},
		{titleErr: errors.New("_NET_WM_NAME missing")},
		{title: ""},
		{title: " \n\t "},
	}
	for _, wm := range cases {
		got := NewWindowTitleCollector(wm, 20, nil).Collect(ctx, time.Time{})
		if got.Text != "N/A" {
			t.Fatalf("wm %+v: title = %q, want N/A", wm, got.Text)
		}
	}
}

func TestWindowTitleCollector_Truncates(t *testing.T) {
	wm := fakeWM{title: "Ünïcödé window — editor"}
	got := NewWindowTitleCollector(wm, 7, nil).Collect(context.Background(), time.Time{})
	if got.Text != "Ünïcödé" {
		t.Fatalf("title = %q, want Ünïcödé", got.Text)
	}
}

func TestTruncateTitle(t *testing.T) {
	if got := TruncateTitle("a\nb", 10); got != "a b" {
		t.Fatalf("control chars: %q", got)
	}
	if got := TruncateTitle("abc def", 4); got != "abc" {
		t.Fatalf("trailing space trimmed: %q", got)
	}
	if got := TruncateTitle("ab\xffc", 10); !strings.Contains(got, "\uFFFD") {
		t.Fatalf("invalid utf-8 kept: %q", got)
	}
	if got := TruncateTitle("short", 10); got != "short" {
		t.Fatalf("short title changed: %q", got)
	}
}

func TestNew_OneCollectorPerSlot(t *testing.T) {
	cfg := config.DefaultConfig()
	collectors, err := New(cfg, Deps{WM: fakeWM{}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if len(collectors) != len(cfg.Slots) {
		t.Fatalf("got %d collectors, want %d", len(collectors), len(cfg.Slots))
	}
	for i, c := range collectors {
		if c.Kind() != cfg.Slots[i].Metric {
			t.Fatalf("collector %d kind = %q, want %q", i, c.Kind(), cfg.Slots[i].Metric)
		}
	}

	cfg.Slots = append(cfg.Slots, config.Slot{Metric: "weather", X: 1900})
	if _, err := New(cfg, Deps{}); err == nil {
		t.Fatal("expected unknown metric to fail")
	}
}
