package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// WindowID is the stable X11 identifier (XID) of a window. It is the only
// window value that may be retained across refresh cycles; everything else
// read from the server is a point-in-time snapshot.
type WindowID uint32

// Rect is a window or monitor rectangle in root coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Conn wraps one live connection to the X server and the core resources
// queries need. Callers must not use a Conn concurrently; all access is
// expected to come from a single scheduling goroutine.
type Conn struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// Dial connects to the X server named by $DISPLAY.
func Dial() (*Conn, error) {
	return DialDisplay("")
}

// DialDisplay connects to the given display, falling back to $DISPLAY when
// empty, and initializes the RandR extension used for monitor enumeration.
func DialDisplay(display string) (*Conn, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}

	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	return &Conn{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// Sync forces a full round-trip to the X server so that all previously
// issued requests are processed before the next query. GetInputFocus takes
// no resource arguments, so a failure here means the connection itself is
// unusable rather than any single window being gone.
func (c *Conn) Sync() error {
	if _, err := xproto.GetInputFocus(c.XUtil.Conn()).Reply(); err != nil {
		return fmt.Errorf("sync round-trip: %w", err)
	}
	return nil
}

// Close disconnects from the X server.
func (c *Conn) Close() {
	c.XUtil.Conn().Close()
}
