package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface names
const (
	LayerShellInterface   = "zwlr_layer_shell_v1"
	LayerSurfaceInterface = "zwlr_layer_surface_v1"
)

// zwlr_layer_shell_v1.layer
const (
	LayerBackground uint32 = 0
	LayerBottom     uint32 = 1
	LayerTop        uint32 = 2
	LayerOverlay    uint32 = 3
)

// zwlr_layer_surface_v1.keyboard_interactivity
const (
	KeyboardInteractivityNone      uint32 = 0
	KeyboardInteractivityExclusive uint32 = 1
	KeyboardInteractivityOnDemand  uint32 = 2
)

// LayerShell is the zwlr_layer_shell_v1 global
type LayerShell struct {
	wl.BaseProxy
	Version uint32
}

// NewLayerShell creates an unbound layer shell proxy
func NewLayerShell(ctx *wl.Context) *LayerShell {
	ls := &LayerShell{}
	ls.SetContext(ctx)
	ctx.Register(ls)
	return ls
}

// GetLayerSurface assigns the layer surface role. A nil output lets the
// compositor choose.
func (ls *LayerShell) GetLayerSurface(surface *wl.Surface, output *Output, layer uint32, namespace string) (*LayerSurface, error) {
	lsurf := &LayerSurface{}
	lsurf.SetContext(ls.Context())
	lsurf.SetID(ls.Context().AllocateID())
	ls.Context().Register(lsurf)

	// Opcode 0: get_layer_surface
	const opcode = 0
	var err error
	if output == nil {
		err = ls.Context().SendRequest(ls, opcode, lsurf, surface, nil, layer, namespace)
	} else {
		err = ls.Context().SendRequest(ls, opcode, lsurf, surface, output, layer, namespace)
	}
	if err != nil {
		ls.Context().Unregister(lsurf)
		return nil, err
	}
	return lsurf, nil
}

// Destroy destroys the layer shell (since v3)
func (ls *LayerShell) Destroy() error {
	// Opcode 1: destroy
	const opcode = 1
	var err error
	if ls.Version >= 3 {
		err = ls.Context().SendRequest(ls, opcode)
	}
	ls.Context().Unregister(ls)
	return err
}

// Dispatch handles incoming events (layer shell has no events)
func (ls *LayerShell) Dispatch(_ *wl.Event) {}

// LayerSurface is a zwlr_layer_surface_v1
type LayerSurface struct {
	wl.BaseProxy
	onConfigure func(serial, width, height uint32)
	onClosed    func()
}

// SetHandlers installs configure and closed callbacks
func (l *LayerSurface) SetHandlers(onConfigure func(serial, width, height uint32), onClosed func()) {
	l.onConfigure = onConfigure
	l.onClosed = onClosed
}

// SetSize requests a size; zero on an axis means "stretch between anchors"
func (l *LayerSurface) SetSize(width, height uint32) error {
	// Opcode 0: set_size
	const opcode = 0
	return l.Context().SendRequest(l, opcode, width, height)
}

// SetAnchor sets the anchor edges
func (l *LayerSurface) SetAnchor(anchor uint32) error {
	// Opcode 1: set_anchor
	const opcode = 1
	return l.Context().SendRequest(l, opcode, anchor)
}

// SetExclusiveZone sets the exclusive zone
func (l *LayerSurface) SetExclusiveZone(zone int32) error {
	// Opcode 2: set_exclusive_zone
	const opcode = 2
	return l.Context().SendRequest(l, opcode, zone)
}

// SetMargin sets edge margins
func (l *LayerSurface) SetMargin(top, right, bottom, left int32) error {
	// Opcode 3: set_margin
	const opcode = 3
	return l.Context().SendRequest(l, opcode, top, right, bottom, left)
}

// SetKeyboardInteractivity sets keyboard focus behaviour
func (l *LayerSurface) SetKeyboardInteractivity(mode uint32) error {
	// Opcode 4: set_keyboard_interactivity
	const opcode = 4
	return l.Context().SendRequest(l, opcode, mode)
}

// AckConfigure acknowledges a configure serial
func (l *LayerSurface) AckConfigure(serial uint32) error {
	// Opcode 6: ack_configure
	const opcode = 6
	return l.Context().SendRequest(l, opcode, serial)
}

// Destroy destroys the layer surface
func (l *LayerSurface) Destroy() error {
	// Opcode 7: destroy
	const opcode = 7
	err := l.Context().SendRequest(l, opcode)
	l.Context().Unregister(l)
	return err
}

// SetLayer moves the surface to another layer (since v2)
func (l *LayerSurface) SetLayer(layer uint32) error {
	// Opcode 8: set_layer
	const opcode = 8
	return l.Context().SendRequest(l, opcode, layer)
}

// Dispatch handles configure and closed
func (l *LayerSurface) Dispatch(event *wl.Event) {
	l.handle(event.Opcode, event)
}

func (l *LayerSurface) handle(opcode uint16, event eventArgs) {
	switch opcode {
	case 0: // configure
		serial := event.Uint32()
		width := event.Uint32()
		height := event.Uint32()
		if l.onConfigure != nil {
			l.onConfigure(serial, width, height)
		}
	case 1: // closed
		if l.onClosed != nil {
			l.onClosed()
		}
	}
}
