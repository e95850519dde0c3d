// Package gnome runs wallpapers on Mutter, which has no layer-shell: a
// fullscreen toplevel holds a black backdrop and the rendered content lives in a
// subsurface above it.
package gnome

import (
	"errors"
	"fmt"

	"github.com/bnema/wlturbo/wl"
	"github.com/charmbracelet/log"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/logger"
	"github.com/bnema/waywall/internal/protocols"
	"github.com/bnema/waywall/internal/wayland"
)

const (
	Description = "GNOME Shell compatibility (fullscreen window with subsurface)"
	Priority    = 80

	title    = "waywall"
	backdrop = 0xff000000
)

// Register adds the GNOME backend to reg.
func Register(reg *compositor.Registry) error {
	return reg.Register(compositor.GnomeBackend, Description, Priority, compositor.ProviderFunc(Init))
}

type driver struct {
	wayland.Base
	wm         *protocols.WmBase
	subcomp    *protocols.Subcompositor
	shm        *protocols.Shm
	viewporter *protocols.Viewporter
	log        *log.Logger
}

// Init binds xdg_wm_base, wl_subcompositor and wl_shm; wp_viewporter is optional.
func Init(sess *compositor.Session) (compositor.Driver, error) {
	client, err := wayland.FromSession(sess)
	if err != nil {
		return nil, err
	}

	d := &driver{
		Base: wayland.Base{Client: client},
		log:  logger.WithPrefix("gnome"),
	}
	if d.wm, err = client.BindWmBase(); err != nil {
		return nil, err
	}
	d.subcomp = protocols.NewSubcompositor(client.Context())
	if _, err := client.Bind(protocols.SubcompositorInterface, 1, d.subcomp); err != nil {
		return nil, err
	}
	d.shm = protocols.NewShm(client.Context())
	if _, err := client.Bind(protocols.ShmInterface, 1, d.shm); err != nil {
		return nil, err
	}

	vp := protocols.NewViewporter(client.Context())
	if _, err := client.Bind(protocols.ViewporterInterface, 1, vp); err != nil {
		d.log.Debugf("No viewporter, backdrop stays unscaled: %v", err)
	} else {
		d.viewporter = vp
	}
	return d, nil
}

func (d *driver) Capabilities() compositor.Capabilities {
	caps := compositor.CapSubsurfaces | compositor.CapMultiOutput
	if d.viewporter != nil {
		caps |= compositor.CapViewport
	}
	return caps
}

func (d *driver) CreateSurface(s *compositor.Surface) (compositor.SurfaceDriver, error) {
	gs := &gnomeSurface{surface: s, shm: d.shm, log: d.log}

	var err error
	if gs.parent, err = d.Client.CreateSurface(); err != nil {
		return nil, err
	}
	if gs.child, err = d.Client.CreateSurface(); err != nil {
		_ = gs.Destroy()
		return nil, err
	}
	gs.EGLWindows = wayland.NewEGLWindows(d.Client, gs.child)

	if err := gs.setup(d); err != nil {
		_ = gs.Destroy()
		return nil, err
	}
	for _, surface := range []*wl.Surface{gs.parent, gs.child} {
		if err := d.Client.SetEmptyInputRegion(surface); err != nil {
			d.log.Warnf("Input passthrough unavailable: %v", err)
			break
		}
	}

	if err := gs.parent.Commit(); err != nil {
		_ = gs.Destroy()
		return nil, fmt.Errorf("initial commit failed: %w", err)
	}
	return gs, nil
}

func (d *driver) Cleanup() error {
	var errs []error
	if d.viewporter != nil {
		errs = append(errs, d.viewporter.Destroy())
	}
	errs = append(errs, d.subcomp.Destroy(), d.wm.Destroy())
	return errors.Join(errs...)
}

type gnomeSurface struct {
	wayland.EGLWindows

	surface *compositor.Surface
	shm     *protocols.Shm
	log     *log.Logger

	parent   *wl.Surface
	child    *wl.Surface
	sub      *protocols.Subsurface
	toplevel *wayland.Toplevel
	viewport *protocols.Viewport
	output   *protocols.Output
	buffer   *protocols.Buffer
}

func (g *gnomeSurface) setup(d *driver) error {
	var err error
	if g.sub, err = d.subcomp.GetSubsurface(g.child, g.parent); err != nil {
		return fmt.Errorf("failed to get subsurface: %w", err)
	}
	if err := errors.Join(g.sub.SetPosition(0, 0), g.sub.SetDesync()); err != nil {
		return err
	}

	if g.toplevel, err = wayland.NewToplevel(d.wm, g.parent, title, g.handleConfigure, g.surface.Close); err != nil {
		return err
	}
	g.output = d.OutputFor(g.surface.Output())
	if err := g.toplevel.SetFullscreen(g.output); err != nil {
		return err
	}

	if d.viewporter != nil {
		if g.viewport, err = d.viewporter.GetViewport(g.parent); err != nil {
			d.log.Warnf("Failed to get viewport: %v", err)
		}
	}
	return nil
}

func (g *gnomeSurface) handleConfigure(width, height int32) {
	w, h := fullscreenSize(g.surface.Config(), g.surface.Output(), width, height)

	if err := g.paintBackdrop(w, h); err != nil {
		g.log.Warnf("Failed to paint backdrop: %v", err)
	}
	if err := g.ResizeEGLWindow(w, h); err != nil {
		g.log.Warnf("Failed to resize EGL window: %v", err)
	}
	g.surface.Acknowledge(w, h)
}

// paintBackdrop maps the parent so the subsurface becomes visible.
func (g *gnomeSurface) paintBackdrop(width, height int32) error {
	if g.buffer == nil {
		buf, err := protocols.SolidBuffer(g.shm, backdrop)
		if err != nil {
			return err
		}
		g.buffer = buf
	}
	if g.viewport != nil && width > 0 && height > 0 {
		if err := g.viewport.SetDestination(width, height); err != nil {
			return err
		}
	}
	return errors.Join(
		g.parent.Attach(g.buffer, 0, 0),
		g.parent.DamageBuffer(0, 0, 1, 1),
		g.parent.Commit(),
	)
}

func (g *gnomeSurface) Configure(cfg compositor.SurfaceConfig) error {
	if cfg.Layer != compositor.LayerBackground || cfg.Anchor != compositor.AnchorFill {
		g.log.Debug("Layer and anchor are not supported on GNOME, surface stays fullscreen")
	}
	if err := g.toplevel.SetFullscreen(g.output); err != nil {
		return err
	}
	return g.parent.Commit()
}

func (g *gnomeSurface) Commit() error {
	return g.child.Commit()
}

func (g *gnomeSurface) SetScale(scale int32) error {
	return g.child.SetBufferScale(scale)
}

func (g *gnomeSurface) Destroy() error {
	errs := []error{g.DestroyEGLWindow()}
	if g.sub != nil {
		errs = append(errs, g.sub.Destroy())
	}
	if g.child != nil {
		errs = append(errs, g.child.Destroy())
	}
	if g.viewport != nil {
		errs = append(errs, g.viewport.Destroy())
	}
	if g.toplevel != nil {
		errs = append(errs, g.toplevel.Destroy())
	}
	if g.buffer != nil {
		errs = append(errs, g.buffer.Destroy())
	}
	if g.parent != nil {
		errs = append(errs, g.parent.Destroy())
	}
	return errors.Join(errs...)
}

// fullscreenSize prefers the compositor's fullscreen size, then the configured
// size, then the output size.
func fullscreenSize(cfg compositor.SurfaceConfig, out *compositor.Output, width, height int32) (int32, int32) {
	w, h := cfg.Size(out)
	if width > 0 {
		w = width
	}
	if height > 0 {
		h = height
	}
	return w, h
}
