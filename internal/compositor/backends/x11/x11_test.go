package x11

import (
	"errors"
	"testing"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/waywall/internal/compositor"
)

type fakeServer struct {
	width, height int32
	randr, xfixes bool
	outputs       []*compositor.Output
	outputsErr    error

	nextWindow xproto.Window
	calls      []string
	failOn     string
	events     []xgb.Event
	moved      [][4]int32
	destroyed  []xproto.Window
	wakes      int
	closed     bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{width: 1920, height: 1080, randr: true, xfixes: true, nextWindow: 0x400000}
}

func (f *fakeServer) step(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeServer) ScreenSize() (int32, int32) { return f.width, f.height }
func (f *fakeServer) HasRandR() bool             { return f.randr }
func (f *fakeServer) HasXFixes() bool            { return f.xfixes }

func (f *fakeServer) Outputs() ([]*compositor.Output, error) {
	out := make([]*compositor.Output, 0, len(f.outputs))
	for _, o := range f.outputs {
		c := *o
		out = append(out, &c)
	}
	return out, f.outputsErr
}

func (f *fakeServer) WatchOutputs() error { return f.step("watch") }

func (f *fakeServer) CreateWindow(x, y, width, height int32) (xproto.Window, error) {
	if err := f.step("create"); err != nil {
		return 0, err
	}
	f.nextWindow++
	return f.nextWindow, nil
}

func (f *fakeServer) SetDesktopHints(xproto.Window) error     { return f.step("hints") }
func (f *fakeServer) MapWindow(xproto.Window) error           { return f.step("map") }
func (f *fakeServer) SetEmptyInputRegion(xproto.Window) error { return f.step("input") }

func (f *fakeServer) MoveResize(_ xproto.Window, x, y, width, height int32) error {
	f.moved = append(f.moved, [4]int32{x, y, width, height})
	return f.step("move")
}

func (f *fakeServer) DestroyWindow(win xproto.Window) error {
	f.destroyed = append(f.destroyed, win)
	return f.step("destroy")
}

func (f *fakeServer) Flush() error { return f.step("flush") }

func (f *fakeServer) WaitForEvent() (xgb.Event, error) {
	if len(f.events) == 0 {
		return nil, nil
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, nil
}

func (f *fakeServer) Wake() error {
	f.wakes++
	return nil
}

func (f *fakeServer) Close() { f.closed = true }

func twoMonitors() []*compositor.Output {
	return []*compositor.Output{
		{ID: 0x42, Name: "DP-1", Width: 2560, Height: 1440, Scale: 1},
		{ID: 0x43, Name: "HDMI-1", X: 2560, Width: 1920, Height: 1080, Scale: 1},
	}
}

func selectX11(t *testing.T, srv *fakeServer) *compositor.Backend {
	t.Helper()
	reg := compositor.NewRegistry()
	require.NoError(t, reg.Register(compositor.X11Backend, Description, Priority,
		compositor.ProviderFunc(func(*compositor.Session) (compositor.Driver, error) {
			return newDriver(srv), nil
		})))

	sess := &compositor.Session{Env: func(string) string { return "" }, Preferred: compositor.X11Backend}
	b, err := compositor.Select(reg, sess, compositor.CompositorInfo{Type: compositor.CompositorX11})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Cleanup() })
	return b
}

func TestEnumerate(t *testing.T) {
	t.Run("randr outputs", func(t *testing.T) {
		srv := newFakeServer()
		srv.outputs = twoMonitors()
		d := newDriver(srv)

		require.Equal(t, 2, d.Outputs().Len())
		first, _ := d.Outputs().First()
		assert.Equal(t, "DP-1", first.Name)
		assert.Equal(t, compositor.CapMultiOutput, d.Capabilities())
		assert.Contains(t, srv.calls, "watch")
	})

	t.Run("no randr gives synthetic screen", func(t *testing.T) {
		srv := newFakeServer()
		srv.randr = false
		d := newDriver(srv)

		require.Equal(t, 1, d.Outputs().Len())
		out, _ := d.Outputs().First()
		assert.Equal(t, syntheticOutputID, out.ID)
		assert.Equal(t, "screen", out.Name)
		assert.Equal(t, int32(1920), out.Width)
		assert.Equal(t, int32(1080), out.Height)
		assert.Equal(t, compositor.CapNone, d.Capabilities())
		assert.NotContains(t, srv.calls, "watch")
	})

	t.Run("zero randr outputs gives synthetic screen", func(t *testing.T) {
		srv := newFakeServer()
		srv.outputsErr = errors.New("BadRequest")
		d := newDriver(srv)

		out, ok := d.Outputs().First()
		require.True(t, ok)
		assert.Equal(t, syntheticOutputID, out.ID)
	})
}

func TestCreateSurfaceStateMachine(t *testing.T) {
	srv := newFakeServer()
	srv.outputs = twoMonitors()
	b := selectX11(t, srv)

	cfg := compositor.DefaultSurfaceConfig()
	cfg.Output = 0x43
	s, err := b.CreateSurface(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"watch", "create", "hints", "map", "input", "flush"}, srv.calls)
	assert.True(t, s.Configured())
	w, h := s.Size()
	assert.Equal(t, int32(1920), w)
	assert.Equal(t, int32(1080), h)

	native, err := s.CreateEGL(0, 0, w, h)
	assert.ErrorIs(t, err, compositor.ErrNoEGL)
	assert.Zero(t, native)

	require.NoError(t, s.Commit())
	assert.True(t, s.Committed())
	require.NoError(t, s.Destroy())
	assert.Len(t, srv.destroyed, 1)
}

func TestWindowReachesReady(t *testing.T) {
	srv := newFakeServer()
	d := newDriver(srv)
	b := selectX11(t, srv)
	s, err := b.CreateSurface(compositor.DefaultSurfaceConfig())
	require.NoError(t, err)

	sd, err := d.CreateSurface(s)
	require.NoError(t, err)
	win := sd.(*window)
	assert.Equal(t, StateReady, win.state)

	native, err := win.CreateEGLWindow(1, 1)
	require.NoError(t, err)
	assert.Equal(t, compositor.NativeWindow(win.id), native)

	require.NoError(t, win.Destroy())
	assert.Equal(t, StateUninitialized, win.state)
	require.NoError(t, win.Destroy())
}

func TestCreateSurfaceWithoutXFixes(t *testing.T) {
	srv := newFakeServer()
	srv.xfixes = false
	b := selectX11(t, srv)

	s, err := b.CreateSurface(compositor.DefaultSurfaceConfig())
	require.NoError(t, err)
	assert.NotContains(t, srv.calls, "input")
	assert.True(t, s.Configured())
}

func TestCreateSurfaceFailures(t *testing.T) {
	for _, step := range []string{"create", "hints", "map", "flush"} {
		t.Run(step, func(t *testing.T) {
			srv := newFakeServer()
			srv.failOn = step
			b := selectX11(t, srv)

			s, err := b.CreateSurface(compositor.DefaultSurfaceConfig())
			require.Error(t, err)
			assert.Nil(t, s)
			assert.Empty(t, b.Surfaces())
			assert.Zero(t, len(b.Events()), "no configure for a window that never became ready")
			if step == "create" {
				assert.Empty(t, srv.destroyed)
			} else {
				assert.Len(t, srv.destroyed, 1)
			}
		})
	}

	t.Run("input passthrough failure degrades", func(t *testing.T) {
		srv := newFakeServer()
		srv.failOn = "input"
		b := selectX11(t, srv)

		s, err := b.CreateSurface(compositor.DefaultSurfaceConfig())
		require.NoError(t, err)
		assert.True(t, s.Configured())
	})
}

func TestConfigureResizes(t *testing.T) {
	srv := newFakeServer()
	srv.outputs = twoMonitors()
	b := selectX11(t, srv)

	s, err := b.CreateSurface(compositor.SurfaceConfig{Anchor: compositor.AnchorFill, Width: 800, Height: 600})
	require.NoError(t, err)

	// Same size is a no-op
	require.NoError(t, s.Configure(compositor.SurfaceConfig{Anchor: compositor.AnchorFill, Width: 800, Height: 600}))
	assert.Empty(t, srv.moved)

	// 0x0 is the output size
	var seen compositor.SurfaceConfig
	s.SetHandlers(func(s *compositor.Surface, _, _ int32) { seen = s.Config() }, nil)
	require.NoError(t, s.Configure(compositor.DefaultSurfaceConfig()))
	assert.Zero(t, seen.Width)
	require.Len(t, srv.moved, 1)
	assert.Equal(t, [4]int32{0, 0, 2560, 1440}, srv.moved[0])
	w, h := s.Size()
	assert.Equal(t, int32(2560), w)
	assert.Equal(t, int32(1440), h)
}

func TestDispatchRandRChanges(t *testing.T) {
	srv := newFakeServer()
	srv.outputs = twoMonitors()
	b := selectX11(t, srv)

	cfg := compositor.DefaultSurfaceConfig()
	cfg.Output = 0x43
	s, err := b.CreateSurface(cfg)
	require.NoError(t, err)

	// HDMI-1 unplugged, DP-2 plugged, DP-1 resized
	srv.outputs = []*compositor.Output{
		{ID: 0x42, Name: "DP-1", Width: 1920, Height: 1080, Scale: 1},
		{ID: 0x44, Name: "DP-2", X: 1920, Width: 1920, Height: 1200, Scale: 1},
	}
	srv.events = []xgb.Event{randr.ScreenChangeNotifyEvent{Width: 3840, Height: 1200}}
	require.NoError(t, b.Dispatch())

	assert.False(t, s.Configured())
	dp1, ok := b.Outputs().Get(0x42)
	require.True(t, ok)
	assert.Equal(t, int32(1920), dp1.Width)
	_, ok = b.Outputs().Get(0x43)
	assert.False(t, ok)

	var types []compositor.EventType
	for len(b.Events()) > 0 {
		ev := <-b.Events()
		types = append(types, ev.Type)
	}
	assert.Equal(t, []compositor.EventType{
		compositor.EventSurfaceConfigured,
		compositor.EventSurfaceClosed,
		compositor.EventOutputRemoved,
		compositor.EventOutputAdded,
	}, types)
}

func TestDispatchIgnoresOtherEvents(t *testing.T) {
	srv := newFakeServer()
	b := selectX11(t, srv)

	srv.events = []xgb.Event{xproto.ClientMessageEvent{}, xproto.ExposeEvent{}}
	require.NoError(t, b.Dispatch())
	require.NoError(t, b.Dispatch())
	assert.ErrorIs(t, b.Dispatch(), compositor.ErrBackendClosed)

	require.NoError(t, b.Wake())
	assert.Equal(t, 1, srv.wakes)
}

func TestCleanupClosesConnection(t *testing.T) {
	srv := newFakeServer()
	d := newDriver(srv)
	require.NoError(t, d.Cleanup())
	assert.True(t, srv.closed)
}

func TestInitWithoutDisplay(t *testing.T) {
	_, err := Init(&compositor.Session{Env: func(string) string { return "" }})
	assert.ErrorIs(t, err, ErrNoDisplay)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "input-passthrough-set", StateInputPassthroughSet.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "invalid", State(42).String())
}
