package wayland

import (
	"errors"
	"fmt"

	"github.com/bnema/wlturbo/wl"

	"github.com/bnema/waywall/internal/protocols"
)

const (
	wmBaseVersion = 2
	appID         = "waywall"
)

// BindWmBase binds xdg_wm_base. The proxy answers pings itself.
func (c *Client) BindWmBase() (*protocols.WmBase, error) {
	wm := protocols.NewWmBase(c.Context())
	if _, err := c.Bind(protocols.WmBaseInterface, wmBaseVersion, wm); err != nil {
		return nil, err
	}
	return wm, nil
}

// Toplevel is an xdg_toplevel whose configure sequence is folded into a single
// callback: the toplevel size (0 when the client chooses) reaches onConfigure
// once the xdg_surface configure was acknowledged.
type Toplevel struct {
	xdg *protocols.XdgSurface
	top *protocols.Toplevel

	pendingW, pendingH int32
	ack                func(serial uint32) error
	onConfigure        func(width, height int32)
}

// NewToplevel gives surface the xdg_toplevel role. The caller commits.
func NewToplevel(wm *protocols.WmBase, surface *wl.Surface, title string, onConfigure func(width, height int32), onClose func()) (*Toplevel, error) {
	xdg, err := wm.GetXdgSurface(surface)
	if err != nil {
		return nil, fmt.Errorf("failed to get xdg_surface: %w", err)
	}
	top, err := xdg.GetToplevel()
	if err != nil {
		_ = xdg.Destroy()
		return nil, fmt.Errorf("failed to get xdg_toplevel: %w", err)
	}

	t := &Toplevel{xdg: xdg, top: top, ack: xdg.AckConfigure, onConfigure: onConfigure}
	top.SetHandlers(t.handleToplevelConfigure, onClose)
	xdg.SetConfigureHandler(t.handleConfigure)

	if err := errors.Join(top.SetTitle(title), top.SetAppID(appID)); err != nil {
		_ = t.Destroy()
		return nil, err
	}
	return t, nil
}

func (t *Toplevel) handleToplevelConfigure(width, height int32) {
	t.pendingW, t.pendingH = width, height
}

func (t *Toplevel) handleConfigure(serial uint32) {
	if err := t.ack(serial); err != nil {
		return
	}
	if t.onConfigure != nil {
		t.onConfigure(t.pendingW, t.pendingH)
	}
}

// SetFullscreen requests fullscreen on output, nil lets the compositor choose.
func (t *Toplevel) SetFullscreen(output *protocols.Output) error {
	return t.top.SetFullscreen(output)
}

// Destroy destroys the role objects; the wl_surface stays with the caller.
func (t *Toplevel) Destroy() error {
	return errors.Join(t.top.Destroy(), t.xdg.Destroy())
}
