// Package bar lays out metric samples in fixed slots and drives the redraw
// loop.
package bar

import (
	"github.com/1broseidon/tbar/internal/config"
	"github.com/1broseidon/tbar/internal/metrics"
)

// DrawOp is one string drawn at a fixed position.
type DrawOp struct {
	X     int
	Y     int
	Color uint32
	Text  string
}

// Frame is everything drawn in one tick, in drawing order.
type Frame []DrawOp

// Texts returns the drawn strings in order.
func (f Frame) Texts() []string {
	out := make([]string, len(f))
	for i, op := range f {
		out[i] = op.Text
	}
	return out
}

// At returns the text drawn at x, if any.
func (f Frame) At(x int) (string, bool) {
	for _, op := range f {
		if op.X == x {
			return op.Text, true
		}
	}
	return "", false
}

// BuildFrame places each sample at its slot offset on the configured
// baseline, followed by a separator just before the next slot. Nothing is
// measured, so a long value overlaps its neighbour.
func BuildFrame(cfg *config.Config, samples []metrics.Sample) Frame {
	frame := make(Frame, 0, 2*len(cfg.Slots))
	for i, slot := range cfg.Slots {
		var sample metrics.Sample
		if i < len(samples) {
			sample = samples[i]
		} else {
			sample = metrics.Text(metrics.Placeholder)
		}
		frame = append(frame, DrawOp{
			X:     slot.X,
			Y:     cfg.Baseline,
			Color: cfg.Theme.ColorFor(slot.Metric),
			Text:  sample.Label(slot.Prefix()),
		})
		if i+1 < len(cfg.Slots) && cfg.Separator != "" {
			frame = append(frame, DrawOp{
				X:     cfg.Slots[i+1].X - cfg.SeparatorInset,
				Y:     cfg.Baseline,
				Color: cfg.Theme.Separator,
				Text:  cfg.Separator,
			})
		}
	}
	return frame
}
