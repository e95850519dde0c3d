package output

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/config"
)

type fakeDriver struct {
	outputs *compositor.OutputSet
	sync    bool
	queue   chan func()

	onAdded, onRemoved func(*compositor.Output)

	surfaces []*fakeSurface
	cleaned  bool
}

func newFakeDriver(sync bool, outputs ...*compositor.Output) *fakeDriver {
	set := compositor.NewOutputSet()
	for _, o := range outputs {
		_ = set.Insert(o)
	}
	return &fakeDriver{outputs: set, sync: sync, queue: make(chan func(), 16)}
}

func (d *fakeDriver) Capabilities() compositor.Capabilities {
	return compositor.CapLayerShell | compositor.CapMultiOutput
}
func (d *fakeDriver) Outputs() *compositor.OutputSet { return d.outputs }
func (d *fakeDriver) OutputAdded(*compositor.Output) {}
func (d *fakeDriver) OutputRemoved(*compositor.Output) {}

func (d *fakeDriver) CreateSurface(s *compositor.Surface) (compositor.SurfaceDriver, error) {
	fs := &fakeSurface{s: s}
	d.surfaces = append(d.surfaces, fs)
	if d.sync {
		w, h := s.Config().Size(s.Output())
		s.Acknowledge(w, h)
	}
	return fs, nil
}

func (d *fakeDriver) Cleanup() error {
	d.cleaned = true
	return nil
}

func (d *fakeDriver) SetHotplugHandlers(added, removed func(*compositor.Output)) {
	d.onAdded, d.onRemoved = added, removed
}

func (d *fakeDriver) Dispatch() error {
	if fn := <-d.queue; fn != nil {
		fn()
	}
	return nil
}

func (d *fakeDriver) Wake() error {
	d.queue <- nil
	return nil
}

func (d *fakeDriver) plug(o *compositor.Output) {
	d.queue <- func() {
		_ = d.outputs.Insert(o)
		d.onAdded(o)
	}
}

func (d *fakeDriver) unplug(id compositor.OutputID) {
	d.queue <- func() {
		if o, ok := d.outputs.Remove(id); ok {
			d.onRemoved(o)
		}
	}
}

func (d *fakeDriver) live() []*fakeSurface {
	var out []*fakeSurface
	for _, s := range d.surfaces {
		if !s.destroyed {
			out = append(out, s)
		}
	}
	return out
}

type fakeSurface struct {
	s         *compositor.Surface
	configs   []compositor.SurfaceConfig
	commits   int
	destroyed bool
}

func (f *fakeSurface) Destroy() error {
	f.destroyed = true
	return nil
}

func (f *fakeSurface) Configure(cfg compositor.SurfaceConfig) error {
	f.configs = append(f.configs, cfg)
	return nil
}

func (f *fakeSurface) Commit() error {
	f.commits++
	return nil
}

func (f *fakeSurface) CreateEGLWindow(int32, int32) (compositor.NativeWindow, error) { return 1, nil }
func (f *fakeSurface) DestroyEGLWindow() error                                      { return nil }

func dp1() *compositor.Output {
	return &compositor.Output{ID: 10, Name: "DP-1", Width: 2560, Height: 1440, Scale: 1}
}

func hdmi() *compositor.Output {
	return &compositor.Output{ID: 11, Name: "HDMI-A-1", X: 2560, Width: 1920, Height: 1080, Scale: 1}
}

func newTestManager(t *testing.T, d *fakeDriver, outputs config.OutputsConfig) *Manager {
	t.Helper()
	reg := compositor.NewRegistry()
	require.NoError(t, reg.Register("fake", "test backend", 1,
		compositor.ProviderFunc(func(*compositor.Session) (compositor.Driver, error) { return d, nil })))

	sess := &compositor.Session{Env: func(string) string { return "" }, Preferred: "fake"}
	b, err := compositor.Select(reg, sess, compositor.CompositorInfo{Name: "Sway", Version: "1.10"})
	require.NoError(t, err)
	return NewManager(b, compositor.DefaultSurfaceConfig(), outputs)
}

// step runs one dispatch and drains the resulting events.
func step(t *testing.T, m *Manager) {
	t.Helper()
	require.NoError(t, m.backend.Dispatch())
	m.drain()
}

func TestStartCoversOutputs(t *testing.T) {
	d := newFakeDriver(true, dp1(), hdmi())
	m := newTestManager(t, d, config.OutputsConfig{Include: []string{"HDMI-A-1"}})

	require.NoError(t, m.Start())
	require.Len(t, d.surfaces, 1)
	_, ok := m.Surface(11)
	assert.True(t, ok)
	_, ok = m.Surface(10)
	assert.False(t, ok)
}

func TestStartWithoutCoveredOutputs(t *testing.T) {
	d := newFakeDriver(true, dp1())
	m := newTestManager(t, d, config.OutputsConfig{Include: []string{"eDP-1"}})

	assert.ErrorIs(t, m.Start(), ErrNoSurfaces)
}

func TestSyncBackendCommitsImmediately(t *testing.T) {
	d := newFakeDriver(true, dp1(), hdmi())
	m := newTestManager(t, d, config.OutputsConfig{})

	var ready []compositor.OutputID
	m.OnReady(func(s *compositor.Surface) { ready = append(ready, s.Output().ID) })
	require.NoError(t, m.Start())

	assert.ElementsMatch(t, []compositor.OutputID{10, 11}, ready)
	st := m.Status()
	assert.Equal(t, 2, st.Ready())
	assert.Equal(t, "fake", st.Backend)
	assert.Equal(t, "Sway", st.Compositor)
	assert.Equal(t, "layer-shell|multi-output", st.Capabilities)
	assert.Equal(t, uint32(10), st.Surfaces[0].OutputID)
	assert.Equal(t, int32(2560), st.Surfaces[0].Width)
}

func TestAsyncBackendCommitsOnConfigure(t *testing.T) {
	d := newFakeDriver(false, dp1())
	m := newTestManager(t, d, config.OutputsConfig{})
	require.NoError(t, m.Start())

	s, ok := m.Surface(10)
	require.True(t, ok)
	assert.False(t, s.Configured())
	assert.Equal(t, 0, d.surfaces[0].commits)

	d.queue <- func() { s.Acknowledge(0, 0) }
	step(t, m)
	assert.Equal(t, 1, d.surfaces[0].commits)
	assert.True(t, s.IsReady())
}

func TestHotplug(t *testing.T) {
	d := newFakeDriver(true, dp1())
	m := newTestManager(t, d, config.OutputsConfig{})
	require.NoError(t, m.Start())

	d.plug(hdmi())
	step(t, m)
	_, ok := m.Surface(11)
	assert.True(t, ok)
	assert.Len(t, d.live(), 2)

	d.unplug(10)
	step(t, m)
	_, ok = m.Surface(10)
	assert.False(t, ok)
	assert.Len(t, d.live(), 1)
	assert.True(t, d.surfaces[0].destroyed)
}

func TestHotplugIgnoresUncoveredOutput(t *testing.T) {
	d := newFakeDriver(true, dp1())
	m := newTestManager(t, d, config.OutputsConfig{Include: []string{"DP-1"}})
	require.NoError(t, m.Start())

	d.plug(hdmi())
	step(t, m)
	assert.Len(t, d.surfaces, 1)
}

func TestClosedSurfaceIsRecreated(t *testing.T) {
	d := newFakeDriver(true, dp1())
	m := newTestManager(t, d, config.OutputsConfig{})
	require.NoError(t, m.Start())

	old, _ := m.Surface(10)
	d.queue <- func() { old.Close() }
	step(t, m)

	cur, ok := m.Surface(10)
	require.True(t, ok)
	assert.NotSame(t, old, cur)
	assert.True(t, d.surfaces[0].destroyed)
	assert.True(t, cur.IsReady())
}

func TestReconfigure(t *testing.T) {
	d := newFakeDriver(true, dp1(), hdmi())
	m := newTestManager(t, d, config.OutputsConfig{Include: []string{"DP-1"}})
	require.NoError(t, m.Start())

	cfg := compositor.DefaultSurfaceConfig()
	cfg.Layer = compositor.LayerBottom
	require.NoError(t, m.Reconfigure(cfg, config.OutputsConfig{Include: []string{"HDMI-A-1"}}))

	_, ok := m.Surface(10)
	assert.False(t, ok)
	s, ok := m.Surface(11)
	require.True(t, ok)
	assert.Equal(t, compositor.LayerBottom, s.Config().Layer)

	// Covered surfaces get the new config in place
	require.NoError(t, m.Reconfigure(compositor.DefaultSurfaceConfig(), config.OutputsConfig{}))
	hdmiSurface := d.surfaces[1]
	require.Len(t, hdmiSurface.configs, 1)
	assert.Equal(t, compositor.OutputID(11), hdmiSurface.configs[0].Output)
	assert.Equal(t, compositor.LayerBackground, hdmiSurface.configs[0].Layer)
	assert.Len(t, d.live(), 2)
}

func TestRunAndSnapshot(t *testing.T) {
	d := newFakeDriver(true, dp1())
	m := newTestManager(t, d, config.OutputsConfig{})
	require.NoError(t, m.Start())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	snapCtx, snapCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer snapCancel()
	st, err := m.Snapshot(snapCtx)
	require.NoError(t, err)
	require.Len(t, st.Surfaces, 1)
	assert.Equal(t, "DP-1", st.Surfaces[0].Output)
	assert.True(t, st.Surfaces[0].Committed)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	require.NoError(t, m.Close())
	assert.True(t, d.cleaned)
	assert.Empty(t, d.live())
}

func TestDoHonorsContext(t *testing.T) {
	d := newFakeDriver(true, dp1())
	m := newTestManager(t, d, config.OutputsConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nobody drains: the request is queued but never run
	err := m.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.Canceled)
}
