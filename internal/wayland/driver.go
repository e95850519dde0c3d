package wayland

import (
	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/protocols"
)

// FromSession returns the Wayland connection carried by sess.
func FromSession(sess *compositor.Session) (*Client, error) {
	if sess == nil {
		return nil, compositor.ErrWrongDisplay
	}
	c, ok := sess.Display.(*Client)
	if !ok || c == nil {
		return nil, compositor.ErrWrongDisplay
	}
	return c, nil
}

// Base is the connection half of a Wayland compositor.Driver: outputs, hotplug
// and the event loop. Backends embed it.
type Base struct {
	Client *Client
}

func (b Base) Outputs() *compositor.OutputSet {
	return b.Client.Outputs()
}

func (b Base) OutputAdded(o *compositor.Output) {
	b.Client.log.Debug("Output added", "output", o.String())
}

func (b Base) OutputRemoved(o *compositor.Output) {
	b.Client.log.Debug("Output removed", "output", o.String())
}

func (b Base) SetHotplugHandlers(added, removed func(*compositor.Output)) {
	b.Client.SetHotplugHandlers(added, removed)
}

func (b Base) Dispatch() error {
	return b.Client.Dispatch()
}

func (b Base) Wake() error {
	return b.Client.Wake()
}

// OutputFor returns the wl_output bound to o, nil when o is nil or unknown.
func (b Base) OutputFor(o *compositor.Output) *protocols.Output {
	if o == nil {
		return nil
	}
	proxy, _ := b.Client.OutputProxy(o.ID)
	return proxy
}
