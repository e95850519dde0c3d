package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/charmbracelet/log"

	"github.com/bnema/waywall/internal/compositor"
)

// window is an override-redirect desktop window backing one Surface.
type window struct {
	srv     server
	surface *compositor.Surface
	id      xproto.Window
	state   State

	x, y, width, height int32

	log *log.Logger
}

// realize walks the window up to StateInputPassthroughSet. On error the state
// names the last completed step.
func (w *window) realize(x, y, width, height int32) error {
	id, err := w.srv.CreateWindow(x, y, width, height)
	if err != nil {
		return err
	}
	w.id = id
	w.x, w.y, w.width, w.height = x, y, width, height
	w.state = StateWindowCreated

	if err := w.srv.SetDesktopHints(id); err != nil {
		return err
	}
	w.state = StateTypeHintsSet

	if err := w.srv.MapWindow(id); err != nil {
		return err
	}
	w.state = StateMapped

	if w.srv.HasXFixes() {
		if err := w.srv.SetEmptyInputRegion(id); err != nil {
			w.log.Warnf("Input passthrough failed: %v", err)
		}
	}
	w.state = StateInputPassthroughSet
	return nil
}

func (w *window) Configure(cfg compositor.SurfaceConfig) error {
	out := w.surface.Output()
	width, height := cfg.Size(out)
	x, y := w.x, w.y
	if out != nil {
		x, y = out.X, out.Y
	}

	if width == w.width && height == w.height && x == w.x && y == w.y {
		return nil
	}
	if err := w.srv.MoveResize(w.id, x, y, width, height); err != nil {
		return err
	}
	w.x, w.y, w.width, w.height = x, y, width, height
	if err := w.srv.Flush(); err != nil {
		return err
	}
	w.surface.Acknowledge(width, height)
	return nil
}

func (w *window) Commit() error {
	return w.srv.Flush()
}

// CreateEGLWindow returns the X window itself, EGL renders into it directly.
func (w *window) CreateEGLWindow(width, height int32) (compositor.NativeWindow, error) {
	return compositor.NativeWindow(w.id), nil
}

func (w *window) ResizeEGLWindow(width, height int32) error {
	if width == w.width && height == w.height {
		return nil
	}
	if err := w.srv.MoveResize(w.id, w.x, w.y, width, height); err != nil {
		return err
	}
	w.width, w.height = width, height
	return nil
}

func (w *window) DestroyEGLWindow() error {
	return nil
}

func (w *window) Destroy() error {
	if w.state == StateUninitialized {
		return nil
	}
	err := w.srv.DestroyWindow(w.id)
	w.state = StateUninitialized
	w.id = 0
	return err
}
