package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/tbar/internal/config"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// MemoryFunc returns total and free memory in bytes.
type MemoryFunc func(ctx context.Context) (total, free uint64, err error)

// SystemMemory reads /proc/meminfo through gopsutil.
func SystemMemory(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read memory totals: %w", err)
	}
	return vm.Total, vm.Free, nil
}

// RAMCollector reports (total-free)/total.
type RAMCollector struct {
	memory MemoryFunc
	avail  *availability
}

func NewRAMCollector(memory MemoryFunc, logger *slog.Logger) *RAMCollector {
	if memory == nil {
		memory = SystemMemory
	}
	return &RAMCollector{memory: memory, avail: newAvailability(logger, config.MetricRAM)}
}

func (*RAMCollector) Kind() config.MetricKind { return config.MetricRAM }

func (c *RAMCollector) Collect(ctx context.Context, _ time.Time) Sample {
	total, free, err := c.memory(ctx)
	if err == nil && total == 0 {
		err = fmt.Errorf("memory total is zero: %w", ErrUnavailable)
	}
	c.avail.observe(err)
	if err != nil {
		return UnavailablePercent()
	}
	if free > total {
		free = total
	}
	return Percent(100 * float64(total-free) / float64(total))
}

// DiskFunc returns total and used bytes of the filesystem holding path.
type DiskFunc func(ctx context.Context, path string) (total, used uint64, err error)

// FilesystemUsage calls statfs through gopsutil. Used counts every block
// that is not free, including the root reserve.
func FilesystemUsage(ctx context.Context, path string) (uint64, uint64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to stat filesystem %s: %w", path, err)
	}
	return usage.Total, usage.Used, nil
}

// DiskCollector reports used/total for one path.
type DiskCollector struct {
	path  string
	usage DiskFunc
	avail *availability
}

func NewDiskCollector(path string, usage DiskFunc, logger *slog.Logger) *DiskCollector {
	if usage == nil {
		usage = FilesystemUsage
	}
	return &DiskCollector{path: path, usage: usage, avail: newAvailability(logger, config.MetricDisk)}
}

func (*DiskCollector) Kind() config.MetricKind { return config.MetricDisk }

func (c *DiskCollector) Collect(ctx context.Context, _ time.Time) Sample {
	total, used, err := c.usage(ctx, c.path)
	if err == nil && total == 0 {
		err = fmt.Errorf("filesystem %s reports zero size: %w", c.path, ErrUnavailable)
	}
	c.avail.observe(err)
	if err != nil {
		return UnavailablePercent()
	}
	return Percent(100 * float64(used) / float64(total))
}

// VolumeCollector stands in for audio output volume. No audio subsystem is
// queried, so it always reports the placeholder and never blocks.
type VolumeCollector struct{}

func (VolumeCollector) Kind() config.MetricKind { return config.MetricVolume }

func (VolumeCollector) Collect(context.Context, time.Time) Sample {
	return UnavailablePercent()
}
