package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// ViewporterInterface is the wp_viewporter global
const ViewporterInterface = "wp_viewporter"

// Viewporter creates viewports that scale a surface's buffer
type Viewporter struct {
	wl.BaseProxy
}

// NewViewporter creates an unbound viewporter proxy
func NewViewporter(ctx *wl.Context) *Viewporter {
	vp := &Viewporter{}
	vp.SetContext(ctx)
	ctx.Register(vp)
	return vp
}

// GetViewport attaches a viewport to surface
func (vp *Viewporter) GetViewport(surface *wl.Surface) (*Viewport, error) {
	v := &Viewport{}
	v.SetContext(vp.Context())
	v.SetID(vp.Context().AllocateID())
	vp.Context().Register(v)

	// Opcode 1: get_viewport
	const opcode = 1
	if err := vp.Context().SendRequest(vp, opcode, v, surface); err != nil {
		vp.Context().Unregister(v)
		return nil, err
	}
	return v, nil
}

// Destroy destroys the viewporter
func (vp *Viewporter) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := vp.Context().SendRequest(vp, opcode)
	vp.Context().Unregister(vp)
	return err
}

// Dispatch handles incoming events (viewporter has no events)
func (vp *Viewporter) Dispatch(_ *wl.Event) {}

// Viewport is a wp_viewport
type Viewport struct {
	wl.BaseProxy
}

// SetDestination sets the surface size in surface-local coordinates
func (v *Viewport) SetDestination(width, height int32) error {
	// Opcode 2: set_destination
	const opcode = 2
	return v.Context().SendRequest(v, opcode, width, height)
}

// Destroy removes the viewport
func (v *Viewport) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := v.Context().SendRequest(v, opcode)
	v.Context().Unregister(v)
	return err
}

// Dispatch handles incoming events (viewport has no events)
func (v *Viewport) Dispatch(_ *wl.Event) {}
