package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/bnema/waywall/internal/compositor"
)

const (
	windowName  = "waywall"
	windowClass = "Waywall"
	wakeAtom    = "_WAYWALL_WAKE"

	// _NET_WM_DESKTOP value for every workspace
	allDesktops = 0xFFFFFFFF
)

// server is the part of the X connection the driver needs.
type server interface {
	ScreenSize() (width, height int32)
	HasRandR() bool
	HasXFixes() bool
	// Outputs lists connected RandR outputs driven by a CRTC.
	Outputs() ([]*compositor.Output, error)
	WatchOutputs() error

	CreateWindow(x, y, width, height int32) (xproto.Window, error)
	SetDesktopHints(win xproto.Window) error
	MapWindow(win xproto.Window) error
	SetEmptyInputRegion(win xproto.Window) error
	MoveResize(win xproto.Window, x, y, width, height int32) error
	DestroyWindow(win xproto.Window) error

	// Flush waits until the server processed every request sent so far.
	Flush() error
	WaitForEvent() (xgb.Event, error)
	Wake() error
	Close()
}

// conn implements server with xgb and xgbutil.
type conn struct {
	c      *xgb.Conn
	xu     *xgbutil.XUtil
	screen *xproto.ScreenInfo

	randr  bool
	xfixes bool

	wakeWin  xproto.Window
	wakeType xproto.Atom
}

func dial(display string) (*conn, error) {
	c, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X display %q: %w", display, err)
	}
	xu, err := xgbutil.NewConnXgb(c)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to wrap X connection: %w", err)
	}

	x := &conn{
		c:      c,
		xu:     xu,
		screen: xproto.Setup(c).DefaultScreen(c),
	}
	x.randr = randr.Init(c) == nil
	if xfixes.Init(c) == nil {
		// Regions need XFixes 2.0, the client has to announce its version first
		_, err := xfixes.QueryVersion(c, 5, 0).Reply()
		x.xfixes = err == nil
	}

	if err := x.createWakeWindow(); err != nil {
		c.Close()
		return nil, err
	}
	return x, nil
}

// createWakeWindow creates the unmapped window Wake sends client messages to.
// Events sent with an empty mask reach the window's creator, which is us.
func (x *conn) createWakeWindow() error {
	win, err := xproto.NewWindowId(x.c)
	if err != nil {
		return fmt.Errorf("failed to allocate window id: %w", err)
	}
	err = xproto.CreateWindowChecked(x.c, 0, win, x.screen.Root,
		-1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, x.screen.RootVisual,
		xproto.CwOverrideRedirect, []uint32{1}).Check()
	if err != nil {
		return fmt.Errorf("failed to create wake window: %w", err)
	}
	x.wakeWin = win

	reply, err := xproto.InternAtom(x.c, false, uint16(len(wakeAtom)), wakeAtom).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", wakeAtom, err)
	}
	x.wakeType = reply.Atom
	return nil
}

func (x *conn) ScreenSize() (int32, int32) {
	return int32(x.screen.WidthInPixels), int32(x.screen.HeightInPixels)
}

func (x *conn) HasRandR() bool  { return x.randr }
func (x *conn) HasXFixes() bool { return x.xfixes }

func (x *conn) Outputs() ([]*compositor.Output, error) {
	res, err := randr.GetScreenResourcesCurrent(x.c, x.screen.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var outputs []*compositor.Output
	for _, id := range res.Outputs {
		info, err := randr.GetOutputInfo(x.c, id, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get output %d info: %w", id, err)
		}
		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(x.c, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get crtc %d info: %w", info.Crtc, err)
		}

		outputs = append(outputs, &compositor.Output{
			ID:             compositor.OutputID(id),
			Name:           string(info.Name),
			X:              int32(crtc.X),
			Y:              int32(crtc.Y),
			Width:          int32(crtc.Width),
			Height:         int32(crtc.Height),
			PhysicalWidth:  int32(info.MmWidth),
			PhysicalHeight: int32(info.MmHeight),
			Scale:          1,
		})
	}
	return outputs, nil
}

func (x *conn) WatchOutputs() error {
	mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskCrtcChange | randr.NotifyMaskOutputChange)
	return randr.SelectInputChecked(x.c, x.screen.Root, mask).Check()
}

func (x *conn) CreateWindow(px, py, width, height int32) (xproto.Window, error) {
	win, err := xproto.NewWindowId(x.c)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate window id: %w", err)
	}

	// mask/values order is defined by the protocol
	mask := uint32(xproto.CwBackPixel | xproto.CwBorderPixel | xproto.CwOverrideRedirect | xproto.CwEventMask)
	values := []uint32{
		x.screen.BlackPixel,
		x.screen.BlackPixel,
		1, // override-redirect
		xproto.EventMaskExposure | xproto.EventMaskStructureNotify,
	}
	err = xproto.CreateWindowChecked(x.c, x.screen.RootDepth, win, x.screen.Root,
		int16(px), int16(py), uint16(width), uint16(height), 0,
		xproto.WindowClassInputOutput, x.screen.RootVisual,
		mask, values).Check()
	if err != nil {
		return 0, err
	}
	return win, nil
}

func (x *conn) SetDesktopHints(win xproto.Window) error {
	return errors.Join(
		ewmh.WmWindowTypeSet(x.xu, win, []string{"_NET_WM_WINDOW_TYPE_DESKTOP"}),
		ewmh.WmStateSet(x.xu, win, []string{"_NET_WM_STATE_BELOW", "_NET_WM_STATE_STICKY"}),
		ewmh.WmDesktopSet(x.xu, win, allDesktops),
		ewmh.WmNameSet(x.xu, win, windowName),
		icccm.WmNameSet(x.xu, win, windowName),
		icccm.WmClassSet(x.xu, win, &icccm.WmClass{Instance: windowName, Class: windowClass}),
	)
}

func (x *conn) MapWindow(win xproto.Window) error {
	return xproto.MapWindowChecked(x.c, win).Check()
}

func (x *conn) SetEmptyInputRegion(win xproto.Window) error {
	region, err := xfixes.NewRegionId(x.c)
	if err != nil {
		return fmt.Errorf("failed to allocate region id: %w", err)
	}
	if err := xfixes.CreateRegionChecked(x.c, region, nil).Check(); err != nil {
		return fmt.Errorf("failed to create region: %w", err)
	}
	defer xfixes.DestroyRegion(x.c, region)

	return xfixes.SetWindowShapeRegionChecked(x.c, win, shape.SkInput, 0, 0, region).Check()
}

func (x *conn) MoveResize(win xproto.Window, px, py, width, height int32) error {
	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	values := []uint32{uint32(px), uint32(py), uint32(width), uint32(height)}
	return xproto.ConfigureWindowChecked(x.c, win, mask, values).Check()
}

func (x *conn) DestroyWindow(win xproto.Window) error {
	return xproto.DestroyWindowChecked(x.c, win).Check()
}

func (x *conn) Flush() error {
	_, err := xproto.GetInputFocus(x.c).Reply()
	return err
}

func (x *conn) WaitForEvent() (xgb.Event, error) {
	ev, xerr := x.c.WaitForEvent()
	if xerr != nil {
		return ev, xerr
	}
	return ev, nil
}

func (x *conn) Wake() error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: x.wakeWin,
		Type:   x.wakeType,
		Data:   xproto.ClientMessageDataUnionData32New(make([]uint32, 5)),
	}
	return xproto.SendEventChecked(x.c, false, x.wakeWin, xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
}

func (x *conn) Close() {
	if x.wakeWin != 0 {
		xproto.DestroyWindow(x.c, x.wakeWin)
	}
	x.c.Close()
}
