package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/tbar/internal/config"
	"github.com/godbus/dbus/v5"
)

// PercentSource reports a percentage or an error when it has none.
type PercentSource interface {
	Percent(ctx context.Context) (float64, error)
}

// SysfsBattery reads a power_supply capacity pseudo-file holding an
// integer percentage.
type SysfsBattery struct {
	Path string
}

func (b SysfsBattery) Percent(context.Context) (float64, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read battery capacity: %w", err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse battery capacity %q: %w", strings.TrimSpace(string(data)), err)
	}
	return float64(v), nil
}

const (
	upowerService     = "org.freedesktop.UPower"
	upowerDisplayPath = dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice")
	upowerDeviceIface = "org.freedesktop.UPower.Device"

	upowerCallTimeout = 250 * time.Millisecond
)

// UPowerBattery queries the UPower display device over the system bus.
// The bus connection is opened lazily and retried on later calls when it
// fails.
type UPowerBattery struct {
	mu      sync.Mutex
	conn    *dbus.Conn
	connect func() (*dbus.Conn, error)
}

// NewUPowerBattery returns a source using the shared system bus.
func NewUPowerBattery() *UPowerBattery {
	return &UPowerBattery{connect: dbus.SystemBus}
}

func (u *UPowerBattery) Percent(ctx context.Context) (float64, error) {
	conn, err := u.bus()
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, upowerCallTimeout)
	defer cancel()

	obj := conn.Object(upowerService, upowerDisplayPath)

	var present dbus.Variant
	if err := obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, upowerDeviceIface, "IsPresent").Store(&present); err != nil {
		return 0, fmt.Errorf("failed to query upower IsPresent: %w", err)
	}
	if ok, _ := present.Value().(bool); !ok {
		return 0, fmt.Errorf("upower display device: %w", ErrUnavailable)
	}

	var pct dbus.Variant
	if err := obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, upowerDeviceIface, "Percentage").Store(&pct); err != nil {
		return 0, fmt.Errorf("failed to query upower Percentage: %w", err)
	}
	v, ok := pct.Value().(float64)
	if !ok {
		return 0, fmt.Errorf("upower Percentage has type %s", pct.Signature())
	}
	return v, nil
}

func (u *UPowerBattery) bus() (*dbus.Conn, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn != nil && u.conn.Connected() {
		return u.conn, nil
	}
	conn, err := u.connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	u.conn = conn
	return conn, nil
}

// BatteryCollector tries each source in order and reports the first
// percentage it gets.
type BatteryCollector struct {
	sources []PercentSource
	avail   *availability
}

// NewBatteryCollector builds the source chain from the battery config.
func NewBatteryCollector(cfg config.BatteryConfig, logger *slog.Logger) *BatteryCollector {
	sources := []PercentSource{SysfsBattery{Path: cfg.CapacityPath()}}
	if cfg.UPower {
		sources = append(sources, NewUPowerBattery())
	}
	return NewBatteryCollectorFrom(logger, sources...)
}

// NewBatteryCollectorFrom uses the given sources as is.
func NewBatteryCollectorFrom(logger *slog.Logger, sources ...PercentSource) *BatteryCollector {
	return &BatteryCollector{sources: sources, avail: newAvailability(logger, config.MetricBattery)}
}

func (*BatteryCollector) Kind() config.MetricKind { return config.MetricBattery }

func (c *BatteryCollector) Collect(ctx context.Context, _ time.Time) Sample {
	err := error(ErrUnavailable)
	for _, src := range c.sources {
		var v float64
		v, err = src.Percent(ctx)
		if err == nil {
			c.avail.observe(nil)
			return Percent(v)
		}
	}
	c.avail.observe(err)
	return UnavailablePercent()
}
