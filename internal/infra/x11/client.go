// Package x11 adapts an X11 desktop (EWMH window manager) to the
// enforcement core: foreground notifications and home navigation.
package x11

import (
	"encoding/binary"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_SHOWING_DESKTOP",
	"_NET_WM_PID",
	"WM_CLASS",
}

// Client is a connection to the X server with the atoms we need interned.
type Client struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// windowInfo is what we read off the active window.
type windowInfo struct {
	ID       xproto.Window
	PID      uint32
	Instance string
	Class    string
}

// Connect opens a connection to $DISPLAY.
func Connect() (*Client, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	setup := xproto.Setup(conn)
	root := setup.DefaultScreen(conn).Root

	client := &Client{
		conn:  conn,
		root:  root,
		atoms: make(map[string]xproto.Atom),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		client.atoms[name] = reply.Atom
	}

	return client, nil
}

// Close closes the connection. Pending WaitForEvent calls return.
func (c *Client) Close() {
	c.conn.Close()
}

// watchRoot subscribes to property changes on the root window, which is
// where the window manager publishes _NET_ACTIVE_WINDOW.
func (c *Client) watchRoot() error {
	err := xproto.ChangeWindowAttributesChecked(c.conn, c.root,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	return errors.Wrap(err, "failed to watch root window")
}

func (c *Client) getProperty(window xproto.Window, atom xproto.Atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(c.conn, false, window, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (c *Client) activeWindow() xproto.Window {
	data, err := c.getProperty(c.root, c.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil {
		return 0
	}
	return xproto.Window(decodeCardinal(data))
}

// activeWindowInfo reads the focused window. ID is 0 when nothing has focus,
// which EWMH window managers report while the desktop is showing.
func (c *Client) activeWindowInfo() windowInfo {
	id := c.activeWindow()
	if id == 0 {
		return windowInfo{}
	}
	info := windowInfo{ID: id}

	if data, err := c.getProperty(id, c.atoms["WM_CLASS"], xproto.AtomString, 256); err == nil {
		info.Instance, info.Class = parseWMClass(data)
	}
	if data, err := c.getProperty(id, c.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1); err == nil {
		info.PID = decodeCardinal(data)
	}
	return info
}

// showDesktop asks the window manager to show the desktop (EWMH
// _NET_SHOWING_DESKTOP client message).
func (c *Client) showDesktop() error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: c.root,
		Type:   c.atoms["_NET_SHOWING_DESKTOP"],
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{1, 0, 0, 0, 0}),
	}
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
	err := xproto.SendEventChecked(c.conn, false, c.root, mask, string(ev.Bytes())).Check()
	return errors.Wrap(err, "failed to send _NET_SHOWING_DESKTOP")
}

func decodeCardinal(data []byte) uint32 {
	if len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

// parseWMClass splits the NUL-separated WM_CLASS value into instance and class.
func parseWMClass(data []byte) (instance, class string) {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}
