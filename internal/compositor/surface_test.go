package compositor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(drv *fakeDriver, egl EGLPlatform) *Backend {
	return newBackend(Descriptor{Name: "test", Priority: 1}, drv, &Session{EGL: egl})
}

func TestCommitOnUnconfiguredSurface(t *testing.T) {
	drv := newFakeDriver(testOutput(1, "DP-1", 1920, 1080))
	b := newTestBackend(drv, nil)

	s, err := b.CreateSurface(DefaultSurfaceConfig())
	require.NoError(t, err)
	require.False(t, s.Configured())

	require.NoError(t, s.Commit())
	require.NoError(t, s.Commit())

	assert.False(t, s.Configured())
	assert.False(t, s.Committed())
	assert.False(t, s.IsReady())
	assert.Equal(t, 2, drv.surfaces[0].commits)

	s.Acknowledge(1920, 1080)
	require.NoError(t, s.Commit())
	assert.True(t, s.Committed())
	assert.True(t, s.IsReady())
}

func TestSurfaceSizeWithoutOutput(t *testing.T) {
	tests := []struct {
		name          string
		width, height int32
		wantW, wantH  int32
	}{
		{"explicit size", 800, 600, 800, 600},
		{"auto size uses first output", 0, 0, 3840, 2160},
		{"auto height only", 1280, 0, 1280, 2160},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := newFakeDriver(testOutput(7, "HDMI-A-1", 3840, 2160), testOutput(9, "DP-2", 1920, 1080))
			drv.syncConfigure = true
			b := newTestBackend(drv, nil)

			cfg := DefaultSurfaceConfig()
			cfg.Width, cfg.Height = tt.width, tt.height
			s, err := b.CreateSurface(cfg)
			require.NoError(t, err)

			w, h := s.Size()
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.Equal(t, OutputID(7), s.Output().ID)
		})
	}
}

func TestAnchorFillAutoSizeTakesOutputSize(t *testing.T) {
	out := testOutput(3, "eDP-1", 2880, 1800)
	drv := newFakeDriver(out)
	drv.syncConfigure = true
	b := newTestBackend(drv, nil)

	cfg := DefaultSurfaceConfig()
	cfg.Anchor = AnchorFill
	cfg.ExclusiveZone = -1
	cfg.Width, cfg.Height = 640, 480
	s, err := b.CreateSurface(cfg)
	require.NoError(t, err)

	cfg.Width, cfg.Height = 0, 0
	require.NoError(t, s.Configure(cfg))

	w, h := s.Size()
	assert.Equal(t, out.Width, w)
	assert.Equal(t, out.Height, h)
	assert.Equal(t, int32(0), s.Config().Width)
}

func TestCreateSurfaceOutputBinding(t *testing.T) {
	drv := newFakeDriver(testOutput(1, "DP-1", 1920, 1080), testOutput(2, "DP-2", 2560, 1440))
	b := newTestBackend(drv, nil)

	t.Run("matches requested output by id", func(t *testing.T) {
		cfg := DefaultSurfaceConfig()
		cfg.Output = 2
		s, err := b.CreateSurface(cfg)
		require.NoError(t, err)
		assert.Equal(t, "DP-2", s.Output().Name)
	})

	t.Run("rejects outputs the backend never enumerated", func(t *testing.T) {
		cfg := DefaultSurfaceConfig()
		cfg.Output = 42
		s, err := b.CreateSurface(cfg)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrUnknownOutput)
	})

	t.Run("no outputs leaves the surface unbound", func(t *testing.T) {
		b := newTestBackend(newFakeDriver(), nil)
		s, err := b.CreateSurface(DefaultSurfaceConfig())
		require.NoError(t, err)
		assert.Nil(t, s.Output())
	})
}

func TestSurfaceConfigure(t *testing.T) {
	drv := newFakeDriver(testOutput(1, "DP-1", 1920, 1080), testOutput(2, "DP-2", 1920, 1080))
	b := newTestBackend(drv, nil)

	s, err := b.CreateSurface(DefaultSurfaceConfig())
	require.NoError(t, err)
	fs := drv.surfaces[0]

	t.Run("keeps old config when the driver refuses", func(t *testing.T) {
		fs.configureErr = errors.New("protocol error")
		cfg := DefaultSurfaceConfig()
		cfg.Layer = LayerOverlay
		assert.Error(t, s.Configure(cfg))
		assert.Equal(t, LayerBackground, s.Config().Layer)
		fs.configureErr = nil
	})

	t.Run("rejects moving to another output", func(t *testing.T) {
		cfg := DefaultSurfaceConfig()
		cfg.Output = 2
		assert.ErrorIs(t, s.Configure(cfg), ErrOutputChange)
	})

	t.Run("applies accepted config", func(t *testing.T) {
		cfg := DefaultSurfaceConfig()
		cfg.Layer = LayerBottom
		require.NoError(t, s.Configure(cfg))
		assert.Equal(t, LayerBottom, s.Config().Layer)
		assert.Equal(t, OutputID(1), s.Config().Output)
	})

	t.Run("configure handler sees the new config", func(t *testing.T) {
		drv.syncConfigure = true
		defer func() { drv.syncConfigure = false }()

		var seen SurfaceConfig
		s.SetHandlers(func(s *Surface, _, _ int32) { seen = s.Config() }, nil)
		defer s.SetHandlers(nil, nil)

		cfg := SurfaceConfig{Anchor: AnchorFill, Width: 1024, Height: 768}
		require.NoError(t, s.Configure(cfg))
		assert.Equal(t, int32(1024), seen.Width)
		assert.Equal(t, int32(768), seen.Height)
		w, h := s.Size()
		assert.Equal(t, int32(1024), w)
		assert.Equal(t, int32(768), h)
	})
}

func TestSurfaceHandlersAndEvents(t *testing.T) {
	out := testOutput(5, "DP-1", 1920, 1080)
	drv := newFakeDriver(out)
	b := newTestBackend(drv, nil)

	s, err := b.CreateSurface(DefaultSurfaceConfig())
	require.NoError(t, err)

	var configured, closed int
	s.SetHandlers(func(_ *Surface, w, h int32) {
		configured++
		assert.Equal(t, int32(1920), w)
	}, func(*Surface) {
		closed++
	})

	s.Acknowledge(1920, 1080)
	ev := <-b.Events()
	assert.Equal(t, EventSurfaceConfigured, ev.Type)
	assert.Same(t, s, ev.Surface)

	_, ok := drv.outputs.Remove(out.ID)
	require.True(t, ok)
	b.NotifyOutputRemoved(out)

	ev = <-b.Events()
	assert.Equal(t, EventSurfaceClosed, ev.Type)
	ev = <-b.Events()
	assert.Equal(t, EventOutputRemoved, ev.Type)

	assert.Equal(t, 1, configured)
	assert.Equal(t, 1, closed)
	assert.False(t, s.Configured())
	assert.Equal(t, []*Output{out}, drv.removed)
	assert.Len(t, b.Surfaces(), 1, "closed surfaces stay owned by their consumer")
}

func TestSurfaceEGL(t *testing.T) {
	t.Run("without a platform", func(t *testing.T) {
		b := newTestBackend(newFakeDriver(testOutput(1, "DP-1", 10, 10)), nil)
		s, err := b.CreateSurface(DefaultSurfaceConfig())
		require.NoError(t, err)
		_, err = s.CreateEGL(1, 2, 10, 10)
		assert.ErrorIs(t, err, ErrNoEGL)
	})

	t.Run("create is cached and destroy releases both handles", func(t *testing.T) {
		egl := &fakeEGL{}
		drv := newFakeDriver(testOutput(1, "DP-1", 10, 10))
		b := newTestBackend(drv, egl)
		s, err := b.CreateSurface(DefaultSurfaceConfig())
		require.NoError(t, err)

		first, err := s.CreateEGL(1, 2, 10, 10)
		require.NoError(t, err)
		second, err := s.CreateEGL(1, 2, 10, 10)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, []NativeWindow{0x2a}, egl.created)

		require.NoError(t, s.Destroy())
		assert.Equal(t, []EGLSurface{first}, egl.destroyed)
		assert.Equal(t, 1, drv.surfaces[0].eglDestroys)
		assert.Equal(t, 1, drv.surfaces[0].destroys)
	})

	t.Run("platform failure releases the native window", func(t *testing.T) {
		drv := newFakeDriver(testOutput(1, "DP-1", 10, 10))
		b := newTestBackend(drv, &fakeEGL{fail: true})
		s, err := b.CreateSurface(DefaultSurfaceConfig())
		require.NoError(t, err)

		_, err = s.CreateEGL(1, 2, 10, 10)
		assert.Error(t, err)
		assert.Equal(t, 1, drv.surfaces[0].eglDestroys)
		assert.Equal(t, EGLSurface(0), s.EGLSurface())
	})
}

func TestSurfaceDestroy(t *testing.T) {
	drv := newFakeDriver(testOutput(1, "DP-1", 10, 10))
	b := newTestBackend(drv, nil)
	s, err := b.CreateSurface(DefaultSurfaceConfig())
	require.NoError(t, err)

	require.NoError(t, s.Destroy(), "never committed surfaces can be destroyed")
	require.NoError(t, s.Destroy())
	assert.Equal(t, 1, drv.surfaces[0].destroys)
	assert.Empty(t, b.Surfaces())

	assert.ErrorIs(t, s.Commit(), ErrSurfaceDestroyed)
	assert.ErrorIs(t, s.Configure(DefaultSurfaceConfig()), ErrSurfaceDestroyed)
	assert.ErrorIs(t, s.SetScale(2), ErrSurfaceDestroyed)
}

func TestSurfaceSetScale(t *testing.T) {
	drv := newFakeDriver(testOutput(1, "DP-1", 10, 10))
	b := newTestBackend(drv, nil)
	s, err := b.CreateSurface(DefaultSurfaceConfig())
	require.NoError(t, err)

	assert.Error(t, s.SetScale(0))
	require.NoError(t, s.SetScale(2))
	assert.Equal(t, int32(2), s.Scale())
	assert.Equal(t, int32(2), drv.surfaces[0].scale)
}

func TestBackendCleanup(t *testing.T) {
	drv := newFakeDriver(testOutput(1, "DP-1", 10, 10))
	b := newTestBackend(drv, nil)
	_, err := b.CreateSurface(DefaultSurfaceConfig())
	require.NoError(t, err)

	require.NoError(t, b.Cleanup())
	require.NoError(t, b.Cleanup())
	assert.Equal(t, 1, drv.cleaned)
	assert.Equal(t, 1, drv.surfaces[0].destroys)

	_, err = b.CreateSurface(DefaultSurfaceConfig())
	assert.ErrorIs(t, err, ErrBackendClosed)

	assert.ErrorIs(t, b.Dispatch(), ErrBackendClosed)
	assert.ErrorIs(t, b.Wake(), ErrBackendClosed)

	_, open := <-b.Events()
	assert.False(t, open)
}

func TestBackendDispatchWithoutLoop(t *testing.T) {
	b := newTestBackend(newFakeDriver(), nil)
	assert.ErrorIs(t, b.Dispatch(), ErrNotDispatchable)
	assert.ErrorIs(t, b.Wake(), ErrNotDispatchable)
}
