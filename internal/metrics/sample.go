// Package metrics produces the values rendered in the bar. Every collector
// tolerates a missing data source and reports a placeholder instead of
// failing, so one broken source never stalls a redraw.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/1broseidon/tbar/internal/config"
)

// ErrUnavailable is returned by sources that have nothing to report.
var ErrUnavailable = errors.New("metric source unavailable")

// Placeholder is drawn in place of any value that could not be read.
const Placeholder = "N/A"

// SampleKind describes the shape of a Sample value.
type SampleKind int

const (
	SamplePercent SampleKind = iota
	SampleText
	SampleInteger
)

// Sample is one tick's value for a metric. It has no identity and is
// recomputed every tick.
type Sample struct {
	Kind      SampleKind
	Value     int
	Text      string
	Available bool
}

// Percent returns an available percentage sample clamped to [0,100].
func Percent(v float64) Sample {
	if math.IsNaN(v) {
		return UnavailablePercent()
	}
	return Sample{Kind: SamplePercent, Value: clampPercent(v), Available: true}
}

// UnavailablePercent is the placeholder for unreadable percentage sources.
func UnavailablePercent() Sample {
	return Sample{Kind: SamplePercent}
}

// Text returns an available text sample.
func Text(s string) Sample {
	return Sample{Kind: SampleText, Text: s, Available: true}
}

// Integer returns an available integer sample.
func Integer(v int) Sample {
	return Sample{Kind: SampleInteger, Value: v, Available: true}
}

// UnavailableInteger is the placeholder for unreadable integer sources.
func UnavailableInteger() Sample {
	return Sample{Kind: SampleInteger}
}

// Label formats the sample for drawing, e.g. "CPU 12%" or "BAT N/A".
func (s Sample) Label(prefix string) string {
	var value string
	switch {
	case !s.Available:
		value = Placeholder
	case s.Kind == SamplePercent:
		value = strconv.Itoa(s.Value) + "%"
	case s.Kind == SampleInteger:
		value = strconv.Itoa(s.Value)
	default:
		value = s.Text
	}
	if prefix == "" {
		return value
	}
	return prefix + " " + value
}

// Collector produces the current value of one metric.
type Collector interface {
	Kind() config.MetricKind
	Collect(ctx context.Context, now time.Time) Sample
}

func clampPercent(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 100:
		return 100
	default:
		return int(math.Round(v))
	}
}

// availability logs source transitions once instead of on every tick.
type availability struct {
	logger  *slog.Logger
	kind    config.MetricKind
	failing bool
}

func newAvailability(logger *slog.Logger, kind config.MetricKind) *availability {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &availability{logger: logger, kind: kind}
}

func (a *availability) observe(err error) {
	switch {
	case err != nil && !a.failing:
		a.failing = true
		a.logger.Debug("metric source unavailable", "metric", a.kind, "error", err)
	case err == nil && a.failing:
		a.failing = false
		a.logger.Debug("metric source recovered", "metric", a.kind)
	}
}
