// Package fallback shows the wallpaper as a fullscreen xdg_toplevel. It works on
// any compositor implementing xdg-shell but gives no stacking guarantee.
package fallback

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
	Description = "Generic xdg-shell fallback (fullscreen window)"
	Priority    = 10

	title = "waywall"
)

// Register adds the fallback backend to reg.
func Register(reg *compositor.Registry) error {
	return reg.Register(compositor.FallbackBackend, Description, Priority, compositor.ProviderFunc(Init))
}

type driver struct {
	wayland.Base
	wm   *protocols.WmBase
	caps compositor.Capabilities
	log  *log.Logger
}

// Init binds xdg_wm_base.
func Init(sess *compositor.Session) (compositor.Driver, error) {
	client, err := wayland.FromSession(sess)
	if err != nil {
		return nil, err
	}
	wm, err := client.BindWmBase()
	if err != nil {
		return nil, err
	}

	d := &driver{
		Base: wayland.Base{Client: client},
		wm:   wm,
		log:  logger.WithPrefix("fallback"),
	}
	if client.Outputs().Len() > 1 {
		d.caps = compositor.CapMultiOutput
	}
	d.log.Warn("Using fallback backend, the wallpaper is a regular fullscreen window")
	return d, nil
}

func (d *driver) Capabilities() compositor.Capabilities {
	return d.caps
}

func (d *driver) CreateSurface(s *compositor.Surface) (compositor.SurfaceDriver, error) {
	wlSurface, err := d.Client.CreateSurface()
	if err != nil {
		return nil, err
	}
	fs := &fullscreenSurface{
		EGLWindows: wayland.NewEGLWindows(d.Client, wlSurface),
		surface:    s,
		wl:         wlSurface,
		output:     d.OutputFor(s.Output()),
		log:        d.log,
	}

	if fs.toplevel, err = wayland.NewToplevel(d.wm, wlSurface, title, fs.handleConfigure, s.Close); err != nil {
		_ = wlSurface.Destroy()
		return nil, err
	}
	if err := fs.toplevel.SetFullscreen(fs.output); err != nil {
		_ = fs.Destroy()
		return nil, err
	}
	if err := d.Client.SetEmptyInputRegion(wlSurface); err != nil {
		d.log.Warnf("Input passthrough unavailable: %v", err)
	}
	if err := wlSurface.Commit(); err != nil {
		_ = fs.Destroy()
		return nil, fmt.Errorf("initial commit failed: %w", err)
	}
	return fs, nil
}

func (d *driver) Cleanup() error {
	return d.wm.Destroy()
}

type fullscreenSurface struct {
	wayland.EGLWindows

	surface  *compositor.Surface
	wl       *wl.Surface
	output   *protocols.Output
	toplevel *wayland.Toplevel
	log      *log.Logger
}

func (f *fullscreenSurface) handleConfigure(width, height int32) {
	w, h := f.surface.Config().Size(f.surface.Output())
	if width > 0 && height > 0 {
		w, h = width, height
	}
	if err := f.ResizeEGLWindow(w, h); err != nil {
		f.log.Warnf("Failed to resize EGL window: %v", err)
	}
	f.surface.Acknowledge(w, h)
}

func (f *fullscreenSurface) Configure(_ compositor.SurfaceConfig) error {
	if err := f.toplevel.SetFullscreen(f.output); err != nil {
		return err
	}
	return f.wl.Commit()
}

func (f *fullscreenSurface) Commit() error {
	return f.wl.Commit()
}

func (f *fullscreenSurface) SetScale(scale int32) error {
	return f.wl.SetBufferScale(scale)
}

func (f *fullscreenSurface) Destroy() error {
	return errors.Join(f.DestroyEGLWindow(), f.toplevel.Destroy(), f.wl.Destroy())
}
