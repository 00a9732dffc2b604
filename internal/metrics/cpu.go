package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/1broseidon/tbar/internal/config"
	"github.com/shirou/gopsutil/v4/cpu"
)

// CPUTimes is one snapshot of the aggregate cpu line of /proc/stat, in
// clock ticks.
type CPUTimes struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	IOWait  uint64
	IRQ     uint64
	SoftIRQ uint64
}

// Total is the sum of the seven counters.
func (t CPUTimes) Total() uint64 {
	return t.User + t.Nice + t.System + t.Idle + t.IOWait + t.IRQ + t.SoftIRQ
}

// IdleTotal counts iowait as idle.
func (t CPUTimes) IdleTotal() uint64 {
	return t.Idle + t.IOWait
}

// CPUCounters is the previous snapshot used to compute busy time as a
// delta. The zero value has no previous snapshot.
type CPUCounters struct {
	Total uint64
	Idle  uint64
	Valid bool
}

// CPUBusy returns the busy percentage between prev and cur together with
// the counters to pass on the next call. Without a previous snapshot, or
// when no ticks elapsed, the result is 0.
func CPUBusy(prev CPUCounters, cur CPUTimes) (int, CPUCounters) {
	next := CPUCounters{Total: cur.Total(), Idle: cur.IdleTotal(), Valid: true}
	if !prev.Valid || next.Total <= prev.Total {
		return 0, next
	}
	totalDiff := next.Total - prev.Total
	var idleDiff uint64
	if next.Idle > prev.Idle {
		idleDiff = next.Idle - prev.Idle
	}
	if idleDiff >= totalDiff {
		return 0, next
	}
	return int(100 * (totalDiff - idleDiff) / totalDiff), next
}

// CPUTimesFunc reads the current aggregate counters.
type CPUTimesFunc func(ctx context.Context) (CPUTimes, error)

// ProcStatTimes reads the aggregate counters through gopsutil, which parses
// /proc/stat (or $HOST_PROC/stat) and reports seconds.
func ProcStatTimes(ctx context.Context) (CPUTimes, error) {
	stats, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return CPUTimes{}, fmt.Errorf("failed to read cpu times: %w", err)
	}
	if len(stats) == 0 {
		return CPUTimes{}, fmt.Errorf("failed to read cpu times: %w", ErrUnavailable)
	}
	s := stats[0]
	return CPUTimes{
		User:    secondsToTicks(s.User),
		Nice:    secondsToTicks(s.Nice),
		System:  secondsToTicks(s.System),
		Idle:    secondsToTicks(s.Idle),
		IOWait:  secondsToTicks(s.Iowait),
		IRQ:     secondsToTicks(s.Irq),
		SoftIRQ: secondsToTicks(s.Softirq),
	}, nil
}

func secondsToTicks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(math.Round(seconds * cpu.ClocksPerSec))
}

// CPUCollector reports busy time since its previous call. It owns the only
// state carried between ticks.
type CPUCollector struct {
	times    CPUTimesFunc
	counters CPUCounters
	avail    *availability
}

// NewCPUCollector returns a collector reading from times, or from
// ProcStatTimes when times is nil.
func NewCPUCollector(times CPUTimesFunc, logger *slog.Logger) *CPUCollector {
	if times == nil {
		times = ProcStatTimes
	}
	return &CPUCollector{times: times, avail: newAvailability(logger, config.MetricCPU)}
}

func (c *CPUCollector) Kind() config.MetricKind { return config.MetricCPU }

// Collect returns 0 on the first call and whenever the source fails. A
// failed read leaves the previous counters in place.
func (c *CPUCollector) Collect(ctx context.Context, _ time.Time) Sample {
	cur, err := c.times(ctx)
	c.avail.observe(err)
	if err != nil {
		return Percent(0)
	}
	busy, next := CPUBusy(c.counters, cur)
	c.counters = next
	return Percent(float64(busy))
}

// Counters exposes the stored snapshot.
func (c *CPUCollector) Counters() CPUCounters {
	return c.counters
}
