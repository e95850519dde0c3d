// Package plasma maps wallpaper surfaces as KDE Plasma desktop windows through
// org_kde_plasma_shell.
package plasma

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
	Description = "KDE Plasma shell protocol"
	Priority    = 90

	shellVersion = 1
	title        = "waywall desktop"
)

// Register adds the Plasma backend to reg.
func Register(reg *compositor.Registry) error {
	return reg.Register(compositor.PlasmaBackend, Description, Priority, compositor.ProviderFunc(Init))
}

type driver struct {
	wayland.Base
	shell *protocols.PlasmaShell
	wm    *protocols.WmBase
	log   *log.Logger
}

// Init binds org_kde_plasma_shell and xdg_wm_base.
func Init(sess *compositor.Session) (compositor.Driver, error) {
	client, err := wayland.FromSession(sess)
	if err != nil {
		return nil, err
	}

	shell := protocols.NewPlasmaShell(client.Context())
	if _, err := client.Bind(protocols.PlasmaShellInterface, shellVersion, shell); err != nil {
		return nil, err
	}
	wm, err := client.BindWmBase()
	if err != nil {
		return nil, err
	}

	return &driver{
		Base:  wayland.Base{Client: client},
		shell: shell,
		wm:    wm,
		log:   logger.WithPrefix("plasma"),
	}, nil
}

func (d *driver) Capabilities() compositor.Capabilities {
	return compositor.CapMultiOutput
}

func (d *driver) CreateSurface(s *compositor.Surface) (compositor.SurfaceDriver, error) {
	cfg := s.Config()
	if cfg.Layer != compositor.LayerBackground {
		d.log.Debugf("Layer %s ignored, desktop role is always below windows", cfg.Layer)
	}

	wlSurface, err := d.Client.CreateSurface()
	if err != nil {
		return nil, err
	}
	ps := &plasmaSurface{
		EGLWindows: wayland.NewEGLWindows(d.Client, wlSurface),
		surface:    s,
		wl:         wlSurface,
		output:     d.OutputFor(s.Output()),
		log:        d.log,
	}

	ps.toplevel, err = wayland.NewToplevel(d.wm, wlSurface, title, ps.handleConfigure, s.Close)
	if err != nil {
		_ = wlSurface.Destroy()
		return nil, err
	}
	ps.plasma, err = d.shell.GetSurface(wlSurface)
	if err != nil {
		_ = ps.Destroy()
		return nil, fmt.Errorf("failed to get plasma surface: %w", err)
	}
	if err := ps.place(); err != nil {
		_ = ps.Destroy()
		return nil, err
	}
	if err := d.Client.SetEmptyInputRegion(wlSurface); err != nil {
		d.log.Warnf("Input passthrough unavailable: %v", err)
	}
	if err := wlSurface.Commit(); err != nil {
		_ = ps.Destroy()
		return nil, fmt.Errorf("initial commit failed: %w", err)
	}
	return ps, nil
}

func (d *driver) Cleanup() error {
	return d.wm.Destroy()
}

type plasmaSurface struct {
	wayland.EGLWindows

	surface  *compositor.Surface
	wl       *wl.Surface
	output   *protocols.Output
	toplevel *wayland.Toplevel
	plasma   *protocols.PlasmaSurface
	log      *log.Logger
}

// place assigns the desktop role and pins the surface to its output origin.
func (p *plasmaSurface) place() error {
	if err := p.plasma.SetRole(protocols.PlasmaRoleDesktop); err != nil {
		return err
	}
	out := p.surface.Output()
	if out == nil {
		return nil
	}
	if p.output != nil {
		if err := p.plasma.SetOutput(p.output); err != nil {
			return err
		}
	}
	return p.plasma.SetPosition(out.X, out.Y)
}

func (p *plasmaSurface) handleConfigure(width, height int32) {
	// Desktop surfaces pick their own size; a suggestion only fills gaps
	w, h := p.surface.Config().Size(p.surface.Output())
	if w == 0 {
		w = width
	}
	if h == 0 {
		h = height
	}
	if err := p.ResizeEGLWindow(w, h); err != nil {
		p.log.Warnf("Failed to resize EGL window: %v", err)
	}
	p.surface.Acknowledge(w, h)
}

func (p *plasmaSurface) Configure(cfg compositor.SurfaceConfig) error {
	if w, h := cfg.Size(p.surface.Output()); w > 0 && h > 0 && p.surface.Configured() {
		if err := p.ResizeEGLWindow(w, h); err != nil {
			return err
		}
		p.surface.Acknowledge(w, h)
	}
	if err := p.place(); err != nil {
		return err
	}
	return p.wl.Commit()
}

func (p *plasmaSurface) Commit() error {
	return p.wl.Commit()
}

func (p *plasmaSurface) SetScale(scale int32) error {
	return p.wl.SetBufferScale(scale)
}

func (p *plasmaSurface) Destroy() error {
	var errs []error
	errs = append(errs, p.DestroyEGLWindow())
	if p.plasma != nil {
		errs = append(errs, p.plasma.Destroy())
	}
	errs = append(errs, p.toplevel.Destroy(), p.wl.Destroy())
	return errors.Join(errs...)
}
