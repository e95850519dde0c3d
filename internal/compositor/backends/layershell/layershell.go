// Package layershell places wallpaper surfaces on the background layer through
// zwlr_layer_shell_v1. wlroots compositors and KWin implement it.
package layershell

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
	Description = "wlr-layer-shell protocol (wlroots compositors, KDE)"
	Priority    = 100

	namespace    = "wallpaper"
	shellVersion = 4
)

// Register adds the layer-shell backend to reg.
func Register(reg *compositor.Registry) error {
	return reg.Register(compositor.LayerShellBackend, Description, Priority, compositor.ProviderFunc(Init))
}

type driver struct {
	wayland.Base
	shell *protocols.LayerShell
	log   *log.Logger
}

// Init binds zwlr_layer_shell_v1 on the session's Wayland connection.
func Init(sess *compositor.Session) (compositor.Driver, error) {
	client, err := wayland.FromSession(sess)
	if err != nil {
		return nil, err
	}

	shell := protocols.NewLayerShell(client.Context())
	version, err := client.Bind(protocols.LayerShellInterface, shellVersion, shell)
	if err != nil {
		return nil, err
	}
	shell.Version = version

	d := &driver{
		Base:  wayland.Base{Client: client},
		shell: shell,
		log:   logger.WithPrefix("layer-shell"),
	}
	d.log.Debugf("Bound %s v%d", protocols.LayerShellInterface, version)
	return d, nil
}

func (d *driver) Capabilities() compositor.Capabilities {
	return compositor.CapLayerShell |
		compositor.CapExclusiveZone |
		compositor.CapKeyboardInteractivity |
		compositor.CapAnchor |
		compositor.CapMultiOutput
}

func (d *driver) CreateSurface(s *compositor.Surface) (compositor.SurfaceDriver, error) {
	cfg := s.Config()

	wlSurface, err := d.Client.CreateSurface()
	if err != nil {
		return nil, err
	}
	lsurf, err := d.shell.GetLayerSurface(wlSurface, d.OutputFor(s.Output()), layerValue(cfg.Layer), namespace)
	if err != nil {
		_ = wlSurface.Destroy()
		return nil, fmt.Errorf("failed to get layer surface: %w", err)
	}

	ls := &layerSurface{
		EGLWindows: wayland.NewEGLWindows(d.Client, wlSurface),
		surface:    s,
		wl:         wlSurface,
		layer:      lsurf,
		version:    d.shell.Version,
		current:    cfg.Layer,
		log:        d.log,
	}
	lsurf.SetHandlers(ls.handleConfigure, s.Close)

	if err := ls.apply(cfg); err != nil {
		_ = ls.Destroy()
		return nil, err
	}
	if err := d.Client.SetEmptyInputRegion(wlSurface); err != nil {
		d.log.Warnf("Input passthrough unavailable: %v", err)
	}

	// The first commit has no buffer and asks the compositor for a configure
	if err := wlSurface.Commit(); err != nil {
		_ = ls.Destroy()
		return nil, fmt.Errorf("initial commit failed: %w", err)
	}
	return ls, nil
}

func (d *driver) Cleanup() error {
	return d.shell.Destroy()
}

type layerSurface struct {
	wayland.EGLWindows

	surface *compositor.Surface
	wl      *wl.Surface
	layer   *protocols.LayerSurface
	version uint32
	current compositor.Layer
	log     *log.Logger
}

func (l *layerSurface) apply(cfg compositor.SurfaceConfig) error {
	if cfg.Layer != l.current {
		// set_layer arrived in v2; older surfaces keep their creation layer
		if l.version < 2 {
			return fmt.Errorf("changing layer needs %s v2, have v%d", protocols.LayerShellInterface, l.version)
		}
		if err := l.layer.SetLayer(layerValue(cfg.Layer)); err != nil {
			return err
		}
		l.current = cfg.Layer
	}

	w, h := requestSize(cfg, l.surface.Output())
	return errors.Join(
		l.layer.SetSize(w, h),
		l.layer.SetAnchor(uint32(cfg.Anchor)),
		l.layer.SetExclusiveZone(cfg.ExclusiveZone),
		l.layer.SetKeyboardInteractivity(keyboardMode(cfg.KeyboardInteractivity, l.version)),
	)
}

func (l *layerSurface) handleConfigure(serial, width, height uint32) {
	if err := l.layer.AckConfigure(serial); err != nil {
		l.log.Errorf("Failed to ack configure %d: %v", serial, err)
		return
	}

	w, h := configuredSize(l.surface.Config(), l.surface.Output(), width, height)
	if err := l.ResizeEGLWindow(w, h); err != nil {
		l.log.Warnf("Failed to resize EGL window: %v", err)
	}
	l.surface.Acknowledge(w, h)
}

func (l *layerSurface) Configure(cfg compositor.SurfaceConfig) error {
	if err := l.apply(cfg); err != nil {
		return err
	}
	return l.wl.Commit()
}

func (l *layerSurface) Commit() error {
	return l.wl.Commit()
}

func (l *layerSurface) SetScale(scale int32) error {
	return l.wl.SetBufferScale(scale)
}

func (l *layerSurface) Destroy() error {
	return errors.Join(
		l.DestroyEGLWindow(),
		l.layer.Destroy(),
		l.wl.Destroy(),
	)
}

// requestSize is the set_size argument. Zero stretches between opposite anchors,
// so an axis without both anchors gets the output dimension instead.
func requestSize(cfg compositor.SurfaceConfig, out *compositor.Output) (uint32, uint32) {
	w, h := cfg.Width, cfg.Height
	if w == 0 && !spans(cfg.Anchor, compositor.AnchorLeft|compositor.AnchorRight) && out != nil {
		w = out.Width
	}
	if h == 0 && !spans(cfg.Anchor, compositor.AnchorTop|compositor.AnchorBottom) && out != nil {
		h = out.Height
	}
	return uint32(max(w, 0)), uint32(max(h, 0))
}

func spans(a, edges compositor.Anchor) bool {
	return a&edges == edges
}

// configuredSize resolves a configure event; zero means the client picks.
func configuredSize(cfg compositor.SurfaceConfig, out *compositor.Output, width, height uint32) (int32, int32) {
	if width != 0 && height != 0 {
		return int32(width), int32(height)
	}
	w, h := cfg.Size(out)
	if width != 0 {
		w = int32(width)
	}
	if height != 0 {
		h = int32(height)
	}
	return w, h
}

func layerValue(l compositor.Layer) uint32 {
	switch l {
	case compositor.LayerBottom:
		return protocols.LayerBottom
	case compositor.LayerTop:
		return protocols.LayerTop
	case compositor.LayerOverlay:
		return protocols.LayerOverlay
	default:
		return protocols.LayerBackground
	}
}

// keyboardMode maps the interactivity flag; on_demand needs v4.
func keyboardMode(interactive bool, version uint32) uint32 {
	switch {
	case !interactive:
		return protocols.KeyboardInteractivityNone
	case version >= 4:
		return protocols.KeyboardInteractivityOnDemand
	default:
		return protocols.KeyboardInteractivityExclusive
	}
}
