package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// Source indication for EWMH client messages: 2 marks the request as coming
// from a pager/direct user action, which window managers honor without
// focus-stealing prevention.
const sourceIndication = 2

// Activate raises and focuses a window, switching to its desktop first when
// it lives on a different one. desktop -1 (sticky) never needs a switch.
func (c *Conn) Activate(id WindowID, desktop int) error {
	if desktop >= 0 {
		current, err := c.CurrentDesktop()
		if err == nil && current != desktop {
			if err := c.SwitchDesktop(desktop); err != nil {
				return err
			}
		}
	}
	return c.FocusWindow(id)
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// The client message is built manually because the xgbutil ewmh request
// helpers panic on this library version (uint vs int type assertion).
func (c *Conn) FocusWindow(id WindowID) error {
	atom, err := c.internAtom("_NET_ACTIVE_WINDOW")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(id),
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return c.sendRootMessage(ev)
}

// SwitchDesktop changes the currently viewed virtual desktop via a
// _NET_CURRENT_DESKTOP client message to the root window.
func (c *Conn) SwitchDesktop(desktop int) error {
	atom, err := c.internAtom("_NET_CURRENT_DESKTOP")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: c.Root,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(desktop), 0, 0, 0, 0}),
	}

	return c.sendRootMessage(ev)
}

func (c *Conn) internAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern %s: %w", name, err)
	}
	return reply.Atom, nil
}

func (c *Conn) sendRootMessage(ev xproto.ClientMessageEvent) error {
	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}
