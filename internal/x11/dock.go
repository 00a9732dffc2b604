package x11

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
)

var (
	// ErrDockDestroyed is returned by Destroy after the first call.
	ErrDockDestroyed = errors.New("dock already destroyed")
	// ErrNoFont is returned when none of the configured fonts could be opened.
	ErrNoFont = errors.New("no usable font")
)

// allDesktops is the _NET_WM_DESKTOP value for "every desktop".
const allDesktops = 0xFFFFFFFF

// DockOptions describes the bar window.
type DockOptions struct {
	Width      int
	Height     int
	Background uint32
	Foreground uint32
	Fonts      []string // tried in order
	Name       string   // WM_NAME and WM_CLASS instance
	Class      string   // WM_CLASS class
	Logger     *slog.Logger
}

// Dock owns the bar window and every X resource drawn through it. It is
// created once per process and released exactly once by Destroy.
type Dock struct {
	conn   *Connection
	Window xproto.Window
	Font   xproto.Font
	GC     xproto.Gcontext

	width  int
	height int
	bg     uint32
	fg     uint32 // current GC foreground
	logger *slog.Logger

	events    *eventPump
	mu        sync.Mutex
	destroyed bool
}

// CreateDock creates an unmapped, borderless window at (0,0) with the
// configured size and background, and the font and GC used to draw on it.
// The dock takes ownership of conn. On error everything acquired so far,
// conn included, is released.
func CreateDock(conn *Connection, opts DockOptions) (*Dock, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Dock{
		conn:   conn,
		width:  opts.Width,
		height: opts.Height,
		bg:     opts.Background,
		fg:     opts.Foreground,
		logger: logger,
	}

	if err := d.createWindow(); err != nil {
		d.release()
		return nil, fmt.Errorf("failed to create bar window: %w", err)
	}
	if err := d.openFont(opts.Fonts); err != nil {
		d.release()
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	if err := d.createGC(); err != nil {
		d.release()
		return nil, fmt.Errorf("failed to create graphics context: %w", err)
	}

	d.setIdentity(opts.Name, opts.Class)
	d.events = startEventPump(conn, d.Window, logger)
	return d, nil
}

func (d *Dock) createWindow() error {
	xc := d.conn.XUtil.Conn()
	screen := d.conn.XUtil.Screen()

	wid, err := xproto.NewWindowId(xc)
	if err != nil {
		return err
	}

	// Value list order follows the bit positions of the mask (low → high):
	// CwBackPixel, then CwEventMask.
	err = xproto.CreateWindowChecked(
		xc,
		screen.RootDepth,
		wid,
		d.conn.Root,
		0, 0,
		uint16(d.width), uint16(d.height),
		0, // border_width
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{
			d.bg,
			xproto.EventMaskExposure | xproto.EventMaskStructureNotify,
		},
	).Check()
	if err != nil {
		return err
	}
	d.Window = wid
	return nil
}

func (d *Dock) openFont(names []string) error {
	xc := d.conn.XUtil.Conn()

	font, err := xproto.NewFontId(xc)
	if err != nil {
		return err
	}
	for _, name := range names {
		err := xproto.OpenFontChecked(xc, font, uint16(len(name)), name).Check()
		if err == nil {
			d.Font = font
			d.logger.Debug("font loaded", "font", name)
			return nil
		}
		d.logger.Debug("font unavailable", "font", name, "error", err)
	}
	return fmt.Errorf("%w: tried %v", ErrNoFont, names)
}

func (d *Dock) createGC() error {
	xc := d.conn.XUtil.Conn()

	gc, err := xproto.NewGcontextId(xc)
	if err != nil {
		return err
	}
	err = xproto.CreateGCChecked(
		xc,
		gc,
		xproto.Drawable(d.Window),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
		[]uint32{
			d.fg,
			d.bg,
			uint32(d.Font),
			0, // graphics_exposures=false
		},
	).Check()
	if err != nil {
		return err
	}
	d.GC = gc
	return nil
}

// setIdentity names the window and opts into WM_DELETE_WINDOW so close
// requests arrive as client messages instead of a killed connection.
func (d *Dock) setIdentity(name, class string) {
	xu := d.conn.XUtil
	if name == "" {
		return
	}
	if err := ewmh.WmNameSet(xu, d.Window, name); err != nil {
		d.logger.Warn("failed to set _NET_WM_NAME", "error", err)
	}
	if err := icccm.WmNameSet(xu, d.Window, name); err != nil {
		d.logger.Warn("failed to set WM_NAME", "error", err)
	}
	if class != "" {
		if err := icccm.WmClassSet(xu, d.Window, &icccm.WmClass{Instance: name, Class: class}); err != nil {
			d.logger.Warn("failed to set WM_CLASS", "error", err)
		}
	}
	if err := icccm.WmProtocolsSet(xu, d.Window, []string{"WM_DELETE_WINDOW"}); err != nil {
		d.logger.Warn("failed to set WM_PROTOCOLS", "error", err)
	}
}

// StrutPartial returns the _NET_WM_STRUT_PARTIAL descriptor reserving a
// strip of the given height along the top edge across [0, width): left,
// right, top, bottom, then start/end pairs for each edge.
func StrutPartial(height, width int) [12]uint {
	var s [12]uint
	s[2] = uint(height)
	s[8] = 0
	s[9] = uint(width)
	return s
}

// ConfigureAsDock sets the window-manager hints that make the window a
// sticky dock with reserved space. Each hint is best effort: failures are
// logged and returned, and the window keeps working as a plain top-left
// window.
func (d *Dock) ConfigureAsDock() []error {
	xu := d.conn.XUtil
	var errs []error
	try := func(hint string, err error) {
		if err == nil {
			return
		}
		d.logger.Warn("window manager hint not applied", "hint", hint, "error", err)
		errs = append(errs, fmt.Errorf("failed to set %s: %w", hint, err))
	}

	try("_NET_WM_WINDOW_TYPE", ewmh.WmWindowTypeSet(xu, d.Window, []string{"_NET_WM_WINDOW_TYPE_DOCK"}))
	try("_NET_WM_STATE", ewmh.WmStateSet(xu, d.Window, []string{"_NET_WM_STATE_STICKY"}))

	strut := StrutPartial(d.height, d.width)
	try("_NET_WM_STRUT_PARTIAL", xprop.ChangeProp32(xu, d.Window, "_NET_WM_STRUT_PARTIAL", "CARDINAL", strut[:]...))

	// Window managers predating the partial form only read _NET_WM_STRUT.
	try("_NET_WM_STRUT", ewmh.WmStrutSet(xu, d.Window, &ewmh.WmStrut{Top: uint(d.height)}))
	try("_NET_WM_DESKTOP", ewmh.WmDesktopSet(xu, d.Window, allDesktops))

	if len(errs) == 0 {
		d.logger.Debug("dock properties applied")
	}
	return errs
}

// Show maps the window and waits for the server to process the request.
func (d *Dock) Show() error {
	xc := d.conn.XUtil.Conn()
	if err := xproto.MapWindowChecked(xc, d.Window).Check(); err != nil {
		return fmt.Errorf("failed to map bar window: %w", err)
	}
	return d.Flush()
}

// Expose fires when the server asks for a repaint.
func (d *Dock) Expose() <-chan struct{} {
	return d.events.expose
}

// CloseRequested is closed once the window manager asks the bar to close or
// the window is destroyed from outside.
func (d *Dock) CloseRequested() <-chan struct{} {
	return d.events.closed
}

// Destroy releases the GC, font, window and connection, in that order.
// Only the first call does anything; later calls return ErrDockDestroyed.
func (d *Dock) Destroy() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return ErrDockDestroyed
	}
	d.destroyed = true
	d.release()
	return nil
}

func (d *Dock) release() {
	if d.conn == nil || d.conn.XUtil == nil {
		return
	}
	xc := d.conn.XUtil.Conn()

	if d.GC != 0 {
		xproto.FreeGC(xc, d.GC)
		d.GC = 0
	}
	if d.Font != 0 {
		xproto.CloseFont(xc, d.Font)
		d.Font = 0
	}
	if d.Window != 0 {
		xproto.DestroyWindow(xc, d.Window)
		d.Window = 0
		// Round trip so the requests above are written before the socket
		// goes away.
		xproto.GetInputFocus(xc).Reply()
	}
	d.conn.Close()
	d.conn = nil
}
