package metrics

import (
	"context"
	"time"

	"github.com/1broseidon/tbar/internal/config"
)

const (
	clockLayout = "15:04"
	dateLayout  = "02-01-2006"
)

// ClockCollector renders the instant as HH:MM.
type ClockCollector struct {
	Location *time.Location
}

func (ClockCollector) Kind() config.MetricKind { return config.MetricClock }

func (c ClockCollector) Collect(_ context.Context, now time.Time) Sample {
	return Text(inLocation(now, c.Location).Format(clockLayout))
}

// DateCollector renders the instant as DD-MM-YYYY.
type DateCollector struct {
	Location *time.Location
}

func (DateCollector) Kind() config.MetricKind { return config.MetricDate }

func (c DateCollector) Collect(_ context.Context, now time.Time) Sample {
	return Text(inLocation(now, c.Location).Format(dateLayout))
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
