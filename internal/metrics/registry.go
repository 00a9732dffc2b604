package metrics

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/tbar/internal/config"
)

// Deps carries the collaborators collectors are built from. Nil source
// functions select the system implementation.
type Deps struct {
	WM       WindowManager
	Logger   *slog.Logger
	CPUTimes CPUTimesFunc
	Memory   MemoryFunc
	Disk     DiskFunc
	Battery  []PercentSource
}

// New returns one collector per configured slot, in slot order.
func New(cfg *config.Config, deps Deps) ([]Collector, error) {
	collectors := make([]Collector, 0, len(cfg.Slots))
	for i, slot := range cfg.Slots {
		c, err := newCollector(cfg, slot.Metric, deps)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		collectors = append(collectors, c)
	}
	return collectors, nil
}

func newCollector(cfg *config.Config, kind config.MetricKind, deps Deps) (Collector, error) {
	switch kind {
	case config.MetricClock:
		return ClockCollector{}, nil
	case config.MetricDate:
		return DateCollector{}, nil
	case config.MetricBattery:
		if len(deps.Battery) > 0 {
			return NewBatteryCollectorFrom(deps.Logger, deps.Battery...), nil
		}
		return NewBatteryCollector(cfg.Battery, deps.Logger), nil
	case config.MetricCPU:
		return NewCPUCollector(deps.CPUTimes, deps.Logger), nil
	case config.MetricRAM:
		return NewRAMCollector(deps.Memory, deps.Logger), nil
	case config.MetricDisk:
		return NewDiskCollector(cfg.DiskPath, deps.Disk, deps.Logger), nil
	case config.MetricVolume:
		return VolumeCollector{}, nil
	case config.MetricWorkspace:
		return NewWorkspaceCollector(deps.WM, deps.Logger), nil
	case config.MetricWindowTitle:
		return NewWindowTitleCollector(deps.WM, cfg.TitleMaxRunes, deps.Logger), nil
	default:
		return nil, fmt.Errorf("unknown metric %q", kind)
	}
}
