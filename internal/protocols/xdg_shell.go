package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface names
const (
	WmBaseInterface = "xdg_wm_base"
)

// WmBase is the xdg_wm_base global. It answers pings itself.
type WmBase struct {
	wl.BaseProxy
}

// NewWmBase creates an unbound xdg_wm_base proxy
func NewWmBase(ctx *wl.Context) *WmBase {
	wm := &WmBase{}
	wm.SetContext(ctx)
	ctx.Register(wm)
	return wm
}

// GetXdgSurface wraps surface in an xdg_surface
func (wm *WmBase) GetXdgSurface(surface *wl.Surface) (*XdgSurface, error) {
	xs := &XdgSurface{}
	xs.SetContext(wm.Context())
	xs.SetID(wm.Context().AllocateID())
	wm.Context().Register(xs)

	// Opcode 2: get_xdg_surface
	const opcode = 2
	if err := wm.Context().SendRequest(wm, opcode, xs, surface); err != nil {
		wm.Context().Unregister(xs)
		return nil, err
	}
	return xs, nil
}

// Pong answers a ping
func (wm *WmBase) Pong(serial uint32) error {
	// Opcode 3: pong
	const opcode = 3
	return wm.Context().SendRequest(wm, opcode, serial)
}

// Destroy destroys the xdg_wm_base
func (wm *WmBase) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := wm.Context().SendRequest(wm, opcode)
	wm.Context().Unregister(wm)
	return err
}

// Dispatch handles ping
func (wm *WmBase) Dispatch(event *wl.Event) {
	if event.Opcode == 0 {
		_ = wm.Pong(event.Uint32())
	}
}

// XdgSurface is an xdg_surface
type XdgSurface struct {
	wl.BaseProxy
	onConfigure func(serial uint32)
}

// SetConfigureHandler is called for every xdg_surface.configure
func (xs *XdgSurface) SetConfigureHandler(fn func(serial uint32)) {
	xs.onConfigure = fn
}

// GetToplevel assigns the toplevel role
func (xs *XdgSurface) GetToplevel() (*Toplevel, error) {
	tl := &Toplevel{}
	tl.SetContext(xs.Context())
	tl.SetID(xs.Context().AllocateID())
	xs.Context().Register(tl)

	// Opcode 1: get_toplevel
	const opcode = 1
	if err := xs.Context().SendRequest(xs, opcode, tl); err != nil {
		xs.Context().Unregister(tl)
		return nil, err
	}
	return tl, nil
}

// SetWindowGeometry sets the visible bounds
func (xs *XdgSurface) SetWindowGeometry(x, y, width, height int32) error {
	// Opcode 3: set_window_geometry
	const opcode = 3
	return xs.Context().SendRequest(xs, opcode, x, y, width, height)
}

// AckConfigure acknowledges a configure serial
func (xs *XdgSurface) AckConfigure(serial uint32) error {
	// Opcode 4: ack_configure
	const opcode = 4
	return xs.Context().SendRequest(xs, opcode, serial)
}

// Destroy destroys the xdg_surface
func (xs *XdgSurface) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := xs.Context().SendRequest(xs, opcode)
	xs.Context().Unregister(xs)
	return err
}

// Dispatch handles configure
func (xs *XdgSurface) Dispatch(event *wl.Event) {
	xs.handle(event.Opcode, event)
}

func (xs *XdgSurface) handle(opcode uint16, event eventArgs) {
	if opcode == 0 && xs.onConfigure != nil {
		xs.onConfigure(event.Uint32())
	}
}

// Toplevel is an xdg_toplevel
type Toplevel struct {
	wl.BaseProxy
	onConfigure func(width, height int32)
	onClose     func()
}

// SetHandlers installs configure and close callbacks
func (tl *Toplevel) SetHandlers(onConfigure func(width, height int32), onClose func()) {
	tl.onConfigure = onConfigure
	tl.onClose = onClose
}

// SetTitle sets the window title
func (tl *Toplevel) SetTitle(title string) error {
	// Opcode 2: set_title
	const opcode = 2
	return tl.Context().SendRequest(tl, opcode, title)
}

// SetAppID sets the application id
func (tl *Toplevel) SetAppID(appID string) error {
	// Opcode 3: set_app_id
	const opcode = 3
	return tl.Context().SendRequest(tl, opcode, appID)
}

// SetFullscreen requests fullscreen on output, or a compositor-chosen output
// when output is nil
func (tl *Toplevel) SetFullscreen(output *Output) error {
	// Opcode 11: set_fullscreen
	const opcode = 11
	if output == nil {
		return tl.Context().SendRequest(tl, opcode, nil)
	}
	return tl.Context().SendRequest(tl, opcode, output)
}

// Destroy destroys the toplevel
func (tl *Toplevel) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := tl.Context().SendRequest(tl, opcode)
	tl.Context().Unregister(tl)
	return err
}

// Dispatch handles configure and close
func (tl *Toplevel) Dispatch(event *wl.Event) {
	tl.handle(event.Opcode, event)
}

func (tl *Toplevel) handle(opcode uint16, event eventArgs) {
	switch opcode {
	case 0: // configure
		width := event.Int32()
		height := event.Int32()
		_ = event.Array() // states
		if tl.onConfigure != nil {
			tl.onConfigure(width, height)
		}
	case 1: // close
		if tl.onClose != nil {
			tl.onClose()
		}
	}
}
