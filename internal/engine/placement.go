package engine

import (
	"github.com/1broseidon/verge/internal/trigger"
	"github.com/1broseidon/verge/internal/x11"
)

// Cell metrics for the switcher rect. The UI collaborator renders inside
// whatever rect the engine hands out, so these only need to agree with the
// thumbnail sizes it draws: a 16:9 preview plus a title strip per cell.
const (
	cellPad    = 8
	titleSlotH = 24
)

// placement computes the switcher window rect for count windows on mon.
// cols counts cells along the triggering edge and rows across it, so the
// same grid config yields a horizontal strip on top/bottom and a vertical
// one on left/right. The rect sits flush against the edge, centered along
// it, clamped to the monitor.
func placement(mon x11.Monitor, edge trigger.Edge, rows, cols, thumbW, count int) x11.Rect {
	if count < 1 {
		count = 1
	}
	slots := count
	if limit := rows * cols; slots > limit {
		slots = limit
	}
	along := slots
	if along > cols {
		along = cols
	}
	across := (slots + cols - 1) / cols

	cellW := thumbW + cellPad
	cellH := thumbW*9/16 + titleSlotH + cellPad

	var w, h int
	switch edge {
	case trigger.EdgeLeft, trigger.EdgeRight:
		w = across*cellW + cellPad
		h = along*cellH + cellPad
	default:
		w = along*cellW + cellPad
		h = across*cellH + cellPad
	}
	if w > mon.Width {
		w = mon.Width
	}
	if h > mon.Height {
		h = mon.Height
	}

	r := x11.Rect{Width: w, Height: h}
	switch edge {
	case trigger.EdgeTop:
		r.X = mon.X + (mon.Width-w)/2
		r.Y = mon.Y
	case trigger.EdgeBottom:
		r.X = mon.X + (mon.Width-w)/2
		r.Y = mon.Y + mon.Height - h
	case trigger.EdgeLeft:
		r.X = mon.X
		r.Y = mon.Y + (mon.Height-h)/2
	case trigger.EdgeRight:
		r.X = mon.X + mon.Width - w
		r.Y = mon.Y + (mon.Height-h)/2
	}
	return r
}
