package x11

import (
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"
)

// eventPump reads X events on its own goroutine and forwards the ones the
// bar cares about. It never draws.
type eventPump struct {
	expose    chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func startEventPump(conn *Connection, win xproto.Window, logger *slog.Logger) *eventPump {
	p := &eventPump{
		expose: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}

	protocols, _ := xprop.Atm(conn.XUtil, "WM_PROTOCOLS")
	deleteWindow, _ := xprop.Atm(conn.XUtil, "WM_DELETE_WINDOW")
	xc := conn.XUtil.Conn()

	go func() {
		for {
			ev, err := xc.WaitForEvent()
			if ev == nil && err == nil {
				// Connection closed.
				return
			}
			if err != nil {
				logger.Debug("x11 error", "error", err)
				continue
			}

			switch e := ev.(type) {
			case xproto.ExposeEvent:
				// Only the last rectangle of a series is interesting.
				if e.Window == win && e.Count == 0 {
					p.notifyExpose()
				}
			case xproto.ClientMessageEvent:
				if e.Window == win && e.Type == protocols && e.Format == 32 &&
					xproto.Atom(e.Data.Data32[0]) == deleteWindow {
					logger.Info("close requested by window manager")
					p.notifyClose()
				}
			case xproto.DestroyNotifyEvent:
				if e.Window == win {
					p.notifyClose()
				}
			}
		}
	}()
	return p
}

// notifyExpose coalesces: a pending expose already covers this one.
func (p *eventPump) notifyExpose() {
	select {
	case p.expose <- struct{}{}:
	default:
	}
}

func (p *eventPump) notifyClose() {
	p.closeOnce.Do(func() { close(p.closed) })
}
