package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xgraphics"
)

// CaptureWindow grabs the current contents of a window and downscales them
// to at most maxWidth pixels wide (aspect preserved). Unmapped and minimized
// windows have no backing contents and fail with a server error, which
// callers treat as a transient capture failure.
func (c *Conn) CaptureWindow(id WindowID, maxWidth int) (image.Image, error) {
	img, err := xgraphics.NewDrawable(c.XUtil, xproto.Drawable(id))
	if err != nil {
		return nil, fmt.Errorf("capture window %d: %w", id, err)
	}

	bounds := img.Bounds()
	if maxWidth > 0 && bounds.Dx() > maxWidth {
		height := bounds.Dy() * maxWidth / bounds.Dx()
		if height < 1 {
			height = 1
		}
		return img.Scale(maxWidth, height), nil
	}
	return img, nil
}

// WindowIcon fetches the window's EWMH icon scaled to size. Returns nil when
// the window publishes no usable icon; records simply carry no icon then.
func (c *Conn) WindowIcon(id WindowID, size int) image.Image {
	icon, err := xgraphics.FindIcon(c.XUtil, xproto.Window(id), size, size)
	if err != nil {
		return nil
	}
	return icon
}
