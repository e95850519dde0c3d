package compositor

import "fmt"

// Surface is one wallpaper region on one output. It is owned by the consumer that
// created it and only touched on the display goroutine.
type Surface struct {
	backend *Backend
	driver  SurfaceDriver
	output  *Output

	config        SurfaceConfig
	width, height int32
	scale         int32

	configured bool
	committed  bool
	destroyed  bool

	native     NativeWindow
	eglDisplay EGLDisplay
	eglSurface EGLSurface

	onConfigure func(s *Surface, width, height int32)
	onClosed    func(s *Surface)
}

// Output is the bound output, or nil when the backend had none.
func (s *Surface) Output() *Output { return s.output }

func (s *Surface) Config() SurfaceConfig { return s.config }

func (s *Surface) Size() (int32, int32) { return s.width, s.height }

func (s *Surface) Scale() int32 { return s.scale }

func (s *Surface) Configured() bool { return s.configured }

func (s *Surface) Committed() bool { return s.committed }

// IsReady reports a configured and committed surface.
func (s *Surface) IsReady() bool {
	return !s.destroyed && s.configured && s.committed
}

// EGLSurface returns the EGL surface from CreateEGL, or 0.
func (s *Surface) EGLSurface() EGLSurface { return s.eglSurface }

// SetHandlers installs the configure and closed callbacks. Either may be nil.
func (s *Surface) SetHandlers(onConfigure func(s *Surface, width, height int32), onClosed func(s *Surface)) {
	s.onConfigure = onConfigure
	s.onClosed = onClosed
}

// Acknowledge records geometry accepted by the display server. Drivers call it.
func (s *Surface) Acknowledge(width, height int32) {
	if s.destroyed {
		return
	}
	s.width, s.height = width, height
	s.configured = true

	if s.onConfigure != nil {
		s.onConfigure(s, width, height)
	}
	s.backend.emit(Event{Type: EventSurfaceConfigured, Surface: s, Output: s.output})
}

// Close reports that the display server dropped the surface. Drivers call it. The
// surface is not freed; its owner decides.
func (s *Surface) Close() {
	if s.destroyed {
		return
	}
	s.configured = false
	s.committed = false

	if s.onClosed != nil {
		s.onClosed(s)
	}
	s.backend.emit(Event{Type: EventSurfaceClosed, Surface: s, Output: s.output})
}

// Configure applies a new placement. The new config is visible to the configure
// handler; it is rolled back when the driver rejects it.
func (s *Surface) Configure(cfg SurfaceConfig) error {
	if s.destroyed {
		return ErrSurfaceDestroyed
	}

	if cfg.Output == 0 && s.output != nil {
		cfg.Output = s.output.ID
	}
	if s.output != nil && cfg.Output != s.output.ID {
		return fmt.Errorf("output %d: %w", cfg.Output, ErrOutputChange)
	}
	if s.output == nil && cfg.Output != 0 {
		return fmt.Errorf("output %d: %w", cfg.Output, ErrOutputChange)
	}

	prev := s.config
	s.config = cfg
	if err := s.driver.Configure(cfg); err != nil {
		s.config = prev
		s.backend.log.Errorf("Failed to configure surface on %s: %v", outputName(s.output), err)
		return fmt.Errorf("configure surface: %w", err)
	}
	return nil
}

// Commit flushes pending state. It is idempotent and only marks the surface
// committed once it is configured.
func (s *Surface) Commit() error {
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	if err := s.driver.Commit(); err != nil {
		return fmt.Errorf("commit surface: %w", err)
	}
	if s.configured {
		s.committed = true
	}
	return nil
}

// SetScale forwards a buffer scale to backends that support one.
func (s *Surface) SetScale(scale int32) error {
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	if scale < 1 {
		return fmt.Errorf("invalid scale %d", scale)
	}
	if ss, ok := s.driver.(ScaleSetter); ok {
		if err := ss.SetScale(scale); err != nil {
			return fmt.Errorf("set scale: %w", err)
		}
	}
	s.scale = scale
	return nil
}

// CreateEGL binds a native window to the surface and wraps it in an EGL window
// surface. A second call returns the existing surface.
func (s *Surface) CreateEGL(dpy EGLDisplay, cfg EGLConfig, width, height int32) (EGLSurface, error) {
	if s.destroyed {
		return 0, ErrSurfaceDestroyed
	}
	if s.eglSurface != 0 {
		return s.eglSurface, nil
	}
	egl := s.backend.session.EGL
	if egl == nil {
		return 0, ErrNoEGL
	}

	native, err := s.driver.CreateEGLWindow(width, height)
	if err != nil {
		return 0, fmt.Errorf("create native window: %w", err)
	}
	surf, err := egl.CreateWindowSurface(dpy, cfg, native)
	if err != nil {
		if derr := s.driver.DestroyEGLWindow(); derr != nil {
			s.backend.log.Warnf("Failed to release native window: %v", derr)
		}
		return 0, fmt.Errorf("create EGL window surface: %w", err)
	}

	s.native = native
	s.eglDisplay = dpy
	s.eglSurface = surf
	return surf, nil
}

// ResizeEGL resizes the native window for backends that need it.
func (s *Surface) ResizeEGL(width, height int32) error {
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	if s.native == 0 {
		return nil
	}
	if r, ok := s.driver.(EGLResizer); ok {
		return r.ResizeEGLWindow(width, height)
	}
	return nil
}

// DestroyEGL releases the EGL surface and the native window.
func (s *Surface) DestroyEGL() error {
	if s.native == 0 && s.eglSurface == 0 {
		return nil
	}

	var firstErr error
	if s.eglSurface != 0 && s.backend.session.EGL != nil {
		if err := s.backend.session.EGL.DestroySurface(s.eglDisplay, s.eglSurface); err != nil {
			firstErr = fmt.Errorf("destroy EGL surface: %w", err)
		}
	}
	if err := s.driver.DestroyEGLWindow(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("destroy native window: %w", err)
	}

	s.native, s.eglSurface, s.eglDisplay = 0, 0, 0
	return firstErr
}

// Destroy releases the surface. Calling it twice is a no-op.
func (s *Surface) Destroy() error {
	if s.destroyed {
		return nil
	}

	var firstErr error
	if err := s.DestroyEGL(); err != nil {
		firstErr = err
	}
	if err := s.driver.Destroy(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("destroy surface: %w", err)
	}

	s.destroyed = true
	s.configured = false
	s.committed = false
	s.backend.forget(s)
	return firstErr
}
