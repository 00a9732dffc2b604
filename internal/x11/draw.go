package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// maxGlyphsPerRequest is the largest string an ImageText request carries.
const maxGlyphsPerRequest = 255

// Clear repaints the whole window with its background pixel.
func (d *Dock) Clear() error {
	xproto.ClearArea(d.conn.XUtil.Conn(), false, d.Window, 0, 0, 0, 0)
	return nil
}

// DrawText draws text with its baseline at (x, y). The string is sent as
// 16-bit glyph indices so UTF-8 titles render on iso10646 fonts.
func (d *Dock) DrawText(x, y int, color uint32, text string) error {
	glyphs := EncodeChar2b(text)
	if len(glyphs) == 0 {
		return nil
	}
	xc := d.conn.XUtil.Conn()

	if color != d.fg {
		xproto.ChangeGC(xc, d.GC, xproto.GcForeground, []uint32{color})
		d.fg = color
	}
	xproto.ImageText16(
		xc,
		byte(len(glyphs)),
		xproto.Drawable(d.Window),
		d.GC,
		int16(x),
		int16(y),
		glyphs,
	)
	return nil
}

// Flush blocks until the server has processed every request sent so far.
func (d *Dock) Flush() error {
	if _, err := xproto.GetInputFocus(d.conn.XUtil.Conn()).Reply(); err != nil {
		return fmt.Errorf("failed to flush display: %w", err)
	}
	return nil
}

// EncodeChar2b converts text to big-endian UCS-2 glyph indices. Runes
// outside the basic multilingual plane become '?', and the result is cut to
// what fits in one request.
func EncodeChar2b(text string) []xproto.Char2b {
	glyphs := make([]xproto.Char2b, 0, len(text))
	for _, r := range text {
		if len(glyphs) == maxGlyphsPerRequest {
			break
		}
		if r > 0xFFFF {
			r = '?'
		}
		glyphs = append(glyphs, xproto.Char2b{Byte1: byte(r >> 8), Byte2: byte(r)})
	}
	return glyphs
}
