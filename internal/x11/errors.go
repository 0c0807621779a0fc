package x11

import (
	"errors"

	"github.com/BurntSushi/xgb/xproto"
)

// IsWindowGone reports whether err is the X protocol's way of saying a
// window no longer exists: the usual race between enumerating a window and
// querying it after the user closed it. Callers treat this as absence, not
// failure.
func IsWindowGone(err error) bool {
	if err == nil {
		return false
	}
	var (
		windowErr   xproto.WindowError
		drawableErr xproto.DrawableError
		matchErr    xproto.MatchError
	)
	return errors.As(err, &windowErr) ||
		errors.As(err, &drawableErr) ||
		errors.As(err, &matchErr)
}
