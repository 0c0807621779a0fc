package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// WindowInfo is the raw per-window state read from the server in one
// operation. It carries plain values only; no cookies, replies, or other
// handle-derived objects survive past the call that produced it.
type WindowInfo struct {
	ID          WindowID
	Title       string
	Class       string
	Desktop     int // -1 when the window is sticky (on all desktops)
	Rect        Rect
	Minimized   bool
	Fullscreen  bool
	SkipTaskbar bool
	Normal      bool // _NET_WM_WINDOW_TYPE says application window
}

// ClientList returns every window the window manager tracks, in mapping
// order (_NET_CLIENT_LIST).
func (c *Conn) ClientList() ([]WindowID, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("get client list: %w", err)
	}

	ids := make([]WindowID, 0, len(clients))
	for _, win := range clients {
		ids = append(ids, WindowID(win))
	}
	return ids, nil
}

// ActiveWindow returns the currently focused window, or 0 if none.
func (c *Conn) ActiveWindow() (WindowID, error) {
	win, err := ewmh.ActiveWindowGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("get active window: %w", err)
	}
	return WindowID(win), nil
}

// WindowInfo reads a fresh snapshot of one window. A geometry failure means
// the window is gone (closed between enumeration and query) and is returned
// as an error; missing properties degrade to zero values instead.
func (c *Conn) WindowInfo(id WindowID) (WindowInfo, error) {
	win := xproto.Window(id)

	rect, err := c.windowRect(win)
	if err != nil {
		return WindowInfo{}, fmt.Errorf("window %d geometry: %w", id, err)
	}

	info := WindowInfo{
		ID:      id,
		Title:   c.windowTitle(win),
		Class:   c.windowClass(win),
		Desktop: c.windowDesktop(win),
		Rect:    rect,
		Normal:  c.isNormalWindow(win),
	}

	states, err := ewmh.WmStateGet(c.XUtil, win)
	if err == nil {
		for _, state := range states {
			switch state {
			case "_NET_WM_STATE_HIDDEN":
				info.Minimized = true
			case "_NET_WM_STATE_FULLSCREEN":
				info.Fullscreen = true
			case "_NET_WM_STATE_SKIP_TASKBAR":
				info.SkipTaskbar = true
			}
		}
	}

	return info, nil
}

// CurrentDesktop returns the currently viewed virtual desktop (0-indexed).
func (c *Conn) CurrentDesktop() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("get current desktop: %w", err)
	}
	return int(desktop), nil
}

func (c *Conn) windowRect(win xproto.Window) (Rect, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return Rect{}, err
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		win,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return Rect{}, err
	}

	return Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

func (c *Conn) windowTitle(win xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, win)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, win)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	return ""
}

func (c *Conn) windowClass(win xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, win)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// windowDesktop returns the desktop a window is on, -1 for sticky windows.
// 0xFFFFFFFF in _NET_WM_DESKTOP means the window is on all desktops.
func (c *Conn) windowDesktop(win xproto.Window) int {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, win)
	if err != nil {
		return 0
	}
	if desktop == 0xFFFFFFFF {
		return -1
	}
	return int(desktop)
}

// isNormalWindow checks whether _NET_WM_WINDOW_TYPE marks this as a regular
// application window. Windows without any type set are treated as normal;
// panels, docks, menus and other shell surfaces are rejected.
func (c *Conn) isNormalWindow(win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
	if err != nil {
		// If we can't determine the type, assume it's normal
		return true
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_TOOLBAR",
			"_NET_WM_WINDOW_TYPE_MENU",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}

	return len(types) == 0
}
