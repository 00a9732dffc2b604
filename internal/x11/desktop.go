package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// ErrNoActiveWindow is returned when _NET_ACTIVE_WINDOW is unset or None.
var ErrNoActiveWindow = errors.New("no active window")

// CurrentDesktop returns the current virtual desktop number (0-indexed).
// Uses _NET_CURRENT_DESKTOP atom on the root window.
func (c *Connection) CurrentDesktop() (uint, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return desktop, nil
}

// ActiveWindowTitle resolves _NET_ACTIVE_WINDOW and returns its
// _NET_WM_NAME, falling back to the ICCCM WM_NAME for clients that only
// set the legacy property.
func (c *Connection) ActiveWindowTitle() (string, error) {
	win, err := ewmh.ActiveWindowGet(c.XUtil)
	if err != nil {
		return "", fmt.Errorf("failed to get active window: %w", err)
	}
	if win == 0 {
		return "", ErrNoActiveWindow
	}

	name, err := ewmh.WmNameGet(c.XUtil, win)
	if err == nil && name != "" {
		return name, nil
	}
	legacy, legacyErr := icccm.WmNameGet(c.XUtil, win)
	if legacyErr != nil {
		if err == nil {
			err = legacyErr
		}
		return "", fmt.Errorf("failed to get name of window %d: %w", win, err)
	}
	return legacy, nil
}
