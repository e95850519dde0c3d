package wayland

import (
	"errors"
	"fmt"

	"github.com/bnema/wlturbo/wl"

	"github.com/bnema/waywall/internal/compositor"
)

// ErrNoEGLWindowFactory means no wl_egl_window allocator was installed.
var ErrNoEGLWindowFactory = errors.New("no wl_egl_window factory installed")

// EGLWindow is a wl_egl_window bound to a wl_surface.
type EGLWindow interface {
	Native() compositor.NativeWindow
	Resize(width, height int32) error
	Destroy() error
}

// EGLWindowFactory allocates wl_egl_window objects. The renderer provides it
// since it owns libwayland-egl.
type EGLWindowFactory interface {
	NewWindow(surface *wl.Surface, width, height int32) (EGLWindow, error)
}

// SetEGLWindowFactory installs the allocator used by CreateEGLWindow.
func (c *Client) SetEGLWindowFactory(f EGLWindowFactory) {
	c.eglWindows = f
}

// EGLWindows holds the wl_egl_window of one surface. The Wayland backends embed
// it to implement the EGL half of their surface drivers.
type EGLWindows struct {
	client  *Client
	surface *wl.Surface
	window  EGLWindow
}

func NewEGLWindows(c *Client, surface *wl.Surface) EGLWindows {
	return EGLWindows{client: c, surface: surface}
}

func (e *EGLWindows) CreateEGLWindow(width, height int32) (compositor.NativeWindow, error) {
	if e.window != nil {
		return e.window.Native(), nil
	}
	if e.client.eglWindows == nil {
		return 0, ErrNoEGLWindowFactory
	}
	w, err := e.client.eglWindows.NewWindow(e.surface, width, height)
	if err != nil {
		return 0, fmt.Errorf("failed to create wl_egl_window: %w", err)
	}
	e.window = w
	return w.Native(), nil
}

func (e *EGLWindows) ResizeEGLWindow(width, height int32) error {
	if e.window == nil {
		return nil
	}
	return e.window.Resize(width, height)
}

func (e *EGLWindows) DestroyEGLWindow() error {
	if e.window == nil {
		return nil
	}
	err := e.window.Destroy()
	e.window = nil
	return err
}
