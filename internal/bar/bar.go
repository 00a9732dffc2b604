package bar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/tbar/internal/config"
	"github.com/1broseidon/tbar/internal/metrics"
)

// Painter is the drawing surface a frame is rendered onto.
type Painter interface {
	Clear() error
	DrawText(x, y int, color uint32, text string) error
	Flush() error
}

// Events carries window-system notifications into the loop. Nil channels
// never fire.
type Events struct {
	Expose <-chan struct{}
	Close  <-chan struct{}
}

// Bar pairs the slot table with its collectors and a painter.
type Bar struct {
	cfg        *config.Config
	collectors []metrics.Collector
	painter    Painter
	now        func() time.Time
	logger     *slog.Logger
}

// Option customises a Bar.
type Option func(*Bar)

// WithClock replaces time.Now as the tick instant source.
func WithClock(now func() time.Time) Option {
	return func(b *Bar) { b.now = now }
}

// WithLogger sets the logger used for loop lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bar) { b.logger = logger }
}

// New returns a Bar. collectors must line up with cfg.Slots.
func New(cfg *config.Config, collectors []metrics.Collector, painter Painter, opts ...Option) (*Bar, error) {
	if len(collectors) != len(cfg.Slots) {
		return nil, fmt.Errorf("got %d collectors for %d slots", len(collectors), len(cfg.Slots))
	}
	for i, c := range collectors {
		if c.Kind() != cfg.Slots[i].Metric {
			return nil, fmt.Errorf("slot %d: collector for %q, want %q", i, c.Kind(), cfg.Slots[i].Metric)
		}
	}
	b := &Bar{
		cfg:        cfg,
		collectors: collectors,
		painter:    painter,
		now:        time.Now,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Collect samples every slot once, in slot order.
func (b *Bar) Collect(ctx context.Context) []metrics.Sample {
	now := b.now()
	samples := make([]metrics.Sample, len(b.collectors))
	for i, c := range b.collectors {
		samples[i] = c.Collect(ctx, now)
	}
	return samples
}

// Tick paints one frame: clear, draw every op, flush. It returns the frame
// that was drawn.
func (b *Bar) Tick(ctx context.Context) (Frame, error) {
	frame := BuildFrame(b.cfg, b.Collect(ctx))

	if err := b.painter.Clear(); err != nil {
		return frame, fmt.Errorf("failed to clear bar: %w", err)
	}
	for _, op := range frame {
		if err := b.painter.DrawText(op.X, op.Y, op.Color, op.Text); err != nil {
			return frame, fmt.Errorf("failed to draw %q: %w", op.Text, err)
		}
	}
	if err := b.painter.Flush(); err != nil {
		return frame, err
	}
	return frame, nil
}

// Run paints immediately and then once per interval until ctx is cancelled
// or a close event arrives, both of which return nil. Expose events repaint
// between ticks without moving the schedule. A paint error ends the loop.
func (b *Bar) Run(ctx context.Context, events Events) error {
	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	b.logger.Info("bar started", "interval", b.cfg.Interval, "slots", len(b.cfg.Slots))

	if _, err := b.Tick(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bar stopped", "reason", ctx.Err())
			return nil
		case <-events.Close:
			b.logger.Info("bar stopped", "reason", "close requested")
			return nil
		case <-events.Expose:
			if _, err := b.Tick(ctx); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := b.Tick(ctx); err != nil {
				return err
			}
		}
	}
}
