package metrics

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/1broseidon/tbar/internal/config"
)

// WindowManager answers the EWMH queries the desktop collectors need.
type WindowManager interface {
	// CurrentDesktop returns the 0-based _NET_CURRENT_DESKTOP.
	CurrentDesktop() (uint, error)
	// ActiveWindowTitle returns the name of _NET_ACTIVE_WINDOW.
	ActiveWindowTitle() (string, error)
}

// WorkspaceCollector reports the current desktop as a 1-based integer.
type WorkspaceCollector struct {
	wm    WindowManager
	avail *availability
}

func NewWorkspaceCollector(wm WindowManager, logger *slog.Logger) *WorkspaceCollector {
	return &WorkspaceCollector{wm: wm, avail: newAvailability(logger, config.MetricWorkspace)}
}

func (*WorkspaceCollector) Kind() config.MetricKind { return config.MetricWorkspace }

func (c *WorkspaceCollector) Collect(context.Context, time.Time) Sample {
	if c.wm == nil {
		return UnavailableInteger()
	}
	desktop, err := c.wm.CurrentDesktop()
	c.avail.observe(err)
	if err != nil {
		return UnavailableInteger()
	}
	return Integer(int(desktop) + 1)
}

// WindowTitleCollector reports the active window name, cut to a bounded
// number of runes.
type WindowTitleCollector struct {
	wm       WindowManager
	maxRunes int
	avail    *availability
}

func NewWindowTitleCollector(wm WindowManager, maxRunes int, logger *slog.Logger) *WindowTitleCollector {
	return &WindowTitleCollector{wm: wm, maxRunes: maxRunes, avail: newAvailability(logger, config.MetricWindowTitle)}
}

func (*WindowTitleCollector) Kind() config.MetricKind { return config.MetricWindowTitle }

// Collect returns the literal placeholder when there is no active window or
// it has no usable name.
func (c *WindowTitleCollector) Collect(context.Context, time.Time) Sample {
	if c.wm == nil {
		return Text(Placeholder)
	}
	title, err := c.wm.ActiveWindowTitle()
	c.avail.observe(err)
	if err != nil {
		return Text(Placeholder)
	}
	title = TruncateTitle(title, c.maxRunes)
	if title == "" {
		return Text(Placeholder)
	}
	return Text(title)
}

// TruncateTitle flattens control characters to spaces, trims the result and
// keeps at most maxRunes runes. Invalid UTF-8 bytes become U+FFFD.
func TruncateTitle(s string, maxRunes int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if maxRunes <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return strings.TrimRight(s[:i], " ")
		}
		n++
	}
	return s
}
