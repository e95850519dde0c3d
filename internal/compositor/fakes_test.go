package compositor

import (
	"errors"

	"github.com/stretchr/testify/mock"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Init(sess *Session) (Driver, error) {
	args := m.Called(sess)
	drv, _ := args.Get(0).(Driver)
	return drv, args.Error(1)
}

// fakeDriver behaves like an immediate-mode backend when syncConfigure is set
// and like a Wayland backend waiting for the server otherwise.
type fakeDriver struct {
	outputs       *OutputSet
	caps          Capabilities
	syncConfigure bool
	createErr     error

	surfaces []*fakeSurface
	added    []*Output
	removed  []*Output
	cleaned  int
	capCalls int
}

func newFakeDriver(outputs ...*Output) *fakeDriver {
	set := NewOutputSet()
	for _, o := range outputs {
		_ = set.Insert(o)
	}
	return &fakeDriver{outputs: set, caps: CapAnchor | CapMultiOutput}
}

func (d *fakeDriver) Capabilities() Capabilities {
	d.capCalls++
	return d.caps
}

func (d *fakeDriver) Outputs() *OutputSet { return d.outputs }

func (d *fakeDriver) CreateSurface(s *Surface) (SurfaceDriver, error) {
	if d.createErr != nil {
		return nil, d.createErr
	}
	fs := &fakeSurface{drv: d, s: s}
	d.surfaces = append(d.surfaces, fs)
	if d.syncConfigure {
		w, h := s.Config().Size(s.Output())
		s.Acknowledge(w, h)
	}
	return fs, nil
}

func (d *fakeDriver) OutputAdded(o *Output)   { d.added = append(d.added, o) }
func (d *fakeDriver) OutputRemoved(o *Output) { d.removed = append(d.removed, o) }

func (d *fakeDriver) Cleanup() error {
	d.cleaned++
	return nil
}

type fakeSurface struct {
	drv *fakeDriver
	s   *Surface

	configureErr error
	configs      []SurfaceConfig
	commits      int
	destroys     int
	eglCreates   int
	eglDestroys  int
	scale        int32
}

func (f *fakeSurface) Destroy() error {
	f.destroys++
	return nil
}

func (f *fakeSurface) Configure(cfg SurfaceConfig) error {
	if f.configureErr != nil {
		return f.configureErr
	}
	f.configs = append(f.configs, cfg)
	if f.drv.syncConfigure {
		w, h := cfg.Size(f.s.Output())
		f.s.Acknowledge(w, h)
	}
	return nil
}

func (f *fakeSurface) Commit() error {
	f.commits++
	return nil
}

func (f *fakeSurface) CreateEGLWindow(width, height int32) (NativeWindow, error) {
	f.eglCreates++
	return NativeWindow(0x2a), nil
}

func (f *fakeSurface) DestroyEGLWindow() error {
	f.eglDestroys++
	return nil
}

func (f *fakeSurface) SetScale(scale int32) error {
	f.scale = scale
	return nil
}

type fakeEGL struct {
	created   []NativeWindow
	destroyed []EGLSurface
	fail      bool
}

func (e *fakeEGL) CreateWindowSurface(dpy EGLDisplay, cfg EGLConfig, win NativeWindow) (EGLSurface, error) {
	if e.fail {
		return 0, errors.New("eglCreateWindowSurface failed")
	}
	e.created = append(e.created, win)
	return EGLSurface(0x1000 + len(e.created)), nil
}

func (e *fakeEGL) DestroySurface(dpy EGLDisplay, surf EGLSurface) error {
	e.destroyed = append(e.destroyed, surf)
	return nil
}

type staticProber struct {
	globals []string
	err     error
}

func (p staticProber) Globals() ([]string, error) { return p.globals, p.err }

func envMap(m map[string]string) Env {
	return func(k string) string { return m[k] }
}

func testOutput(id OutputID, name string, w, h int32) *Output {
	return &Output{ID: id, Name: name, Width: w, Height: h, Scale: 1}
}
