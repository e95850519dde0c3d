// Package x11 runs wallpapers on X11 as override-redirect desktop windows, one per
// RandR output.
package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/charmbracelet/log"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/logger"
)

const (
	Description = "X11/XCB backend with desktop window type (full compatibility)"
	Priority    = 50

	// syntheticOutputID names the whole-screen output used without RandR
	syntheticOutputID compositor.OutputID = 1
	syntheticName                         = "screen"
)

// ErrNoDisplay is returned by Init when DISPLAY is unset.
var ErrNoDisplay = errors.New("DISPLAY is not set")

// Register adds the X11 backend to reg.
func Register(reg *compositor.Registry) error {
	return reg.Register(compositor.X11Backend, Description, Priority, compositor.ProviderFunc(Init))
}

// Init connects to the X server named by DISPLAY.
func Init(sess *compositor.Session) (compositor.Driver, error) {
	display := sess.Getenv("DISPLAY")
	if display == "" {
		return nil, ErrNoDisplay
	}
	srv, err := dial(display)
	if err != nil {
		return nil, err
	}
	return newDriver(srv), nil
}

type driver struct {
	srv     server
	outputs *compositor.OutputSet

	onAdded   func(*compositor.Output)
	onRemoved func(*compositor.Output)

	log *log.Logger
}

func newDriver(srv server) *driver {
	d := &driver{
		srv: srv,
		log: logger.WithPrefix("x11"),
	}
	if !srv.HasRandR() {
		d.log.Warn("RandR not available, using a single screen output")
	}
	if !srv.HasXFixes() {
		d.log.Warn("XFixes not available, windows will receive input")
	}

	d.outputs = d.enumerate()
	if srv.HasRandR() {
		if err := srv.WatchOutputs(); err != nil {
			d.log.Warnf("Cannot watch RandR changes: %v", err)
		}
	}
	d.log.Debugf("Initialized with %d outputs", d.outputs.Len())
	return d
}

func (d *driver) Capabilities() compositor.Capabilities {
	if d.srv.HasRandR() {
		return compositor.CapMultiOutput
	}
	return compositor.CapNone
}

func (d *driver) Outputs() *compositor.OutputSet {
	return d.outputs
}

func (d *driver) SetHotplugHandlers(added, removed func(*compositor.Output)) {
	d.onAdded = added
	d.onRemoved = removed
}

func (d *driver) OutputAdded(o *compositor.Output) {}

func (d *driver) OutputRemoved(o *compositor.Output) {}

// enumerate lists RandR outputs, or one output covering the root window.
func (d *driver) enumerate() *compositor.OutputSet {
	set := compositor.NewOutputSet()
	if d.srv.HasRandR() {
		outputs, err := d.srv.Outputs()
		if err != nil {
			d.log.Warnf("RandR enumeration failed: %v", err)
		}
		for _, o := range outputs {
			if err := set.Insert(o); err != nil {
				d.log.Warnf("Skipping output %s: %v", o.Identifier(), err)
			}
		}
	}

	if set.Len() == 0 {
		w, h := d.srv.ScreenSize()
		_ = set.Insert(&compositor.Output{
			ID:     syntheticOutputID,
			Name:   syntheticName,
			Width:  w,
			Height: h,
			Scale:  1,
		})
	}
	return set
}

// refreshOutputs diffs a new enumeration against the known outputs. Outputs
// that stay keep their identity and get the new geometry.
func (d *driver) refreshOutputs() {
	next := d.enumerate()

	var removed []*compositor.Output
	for _, o := range d.outputs.All() {
		if _, ok := next.Get(o.ID); !ok {
			removed = append(removed, o)
		}
	}
	for _, o := range removed {
		d.outputs.Remove(o.ID)
		if d.onRemoved != nil {
			d.onRemoved(o)
		}
	}

	for _, o := range next.All() {
		if cur, ok := d.outputs.Get(o.ID); ok {
			if *cur != *o {
				// TODO: move existing windows to the new geometry
				d.log.Debug("Output geometry changed", "output", o.String())
				*cur = *o
			}
			continue
		}
		if err := d.outputs.Insert(o); err != nil {
			d.log.Warnf("Ignoring output: %v", err)
			continue
		}
		if d.onAdded != nil {
			d.onAdded(o)
		}
	}
}

func (d *driver) CreateSurface(s *compositor.Surface) (compositor.SurfaceDriver, error) {
	out := s.Output()
	if out == nil {
		return nil, compositor.ErrUnknownOutput
	}

	w := &window{srv: d.srv, surface: s, log: d.log}
	width, height := s.Config().Size(out)
	if err := w.realize(out.X, out.Y, width, height); err != nil {
		if derr := w.Destroy(); derr != nil {
			d.log.Debugf("Failed to destroy half-created window: %v", derr)
		}
		return nil, fmt.Errorf("desktop window stuck at %s: %w", w.state, err)
	}

	if err := d.srv.Flush(); err != nil {
		_ = w.Destroy()
		return nil, fmt.Errorf("flush failed: %w", err)
	}
	w.state = StateReady
	s.Acknowledge(width, height)
	d.log.Debug("Desktop window ready", "window", w.id, "output", out.Identifier(), "width", width, "height", height)
	return w, nil
}

// Dispatch waits for one X event. RandR notifications trigger an output diff.
func (d *driver) Dispatch() error {
	ev, err := d.srv.WaitForEvent()
	if ev == nil && err == nil {
		return compositor.ErrBackendClosed
	}
	if err != nil {
		d.log.Warnf("X error: %v", err)
		return nil
	}
	d.handleEvent(ev)
	return nil
}

func (d *driver) handleEvent(ev xgb.Event) {
	switch e := ev.(type) {
	case randr.ScreenChangeNotifyEvent:
		d.log.Info("RandR screen change", "width", e.Width, "height", e.Height, "rotation", e.Rotation)
		d.refreshOutputs()
	case randr.NotifyEvent:
		d.log.Info("RandR notify", "subcode", e.SubCode)
		d.refreshOutputs()
	case xproto.ClientMessageEvent, xproto.ExposeEvent:
	default:
		d.log.Debugf("Ignoring event %T", ev)
	}
}

func (d *driver) Wake() error {
	return d.srv.Wake()
}

func (d *driver) Cleanup() error {
	d.srv.Close()
	return nil
}
