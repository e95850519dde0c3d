package gnome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/waywall/internal/compositor"
)

func TestFullscreenSize(t *testing.T) {
	out := &compositor.Output{ID: 3, Width: 3840, Height: 2160}
	cfg := compositor.DefaultSurfaceConfig()

	tests := []struct {
		name          string
		cfg           compositor.SurfaceConfig
		width, height int32
		wantW, wantH  int32
	}{
		{"compositor size wins", cfg, 1920, 1080, 1920, 1080},
		{"zero falls back to output", cfg, 0, 0, 3840, 2160},
		{"zero falls back to config", compositor.SurfaceConfig{Width: 1280, Height: 720}, 0, 0, 1280, 720},
		{"partial", cfg, 0, 1000, 3840, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fullscreenSize(tt.cfg, out, tt.width, tt.height)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestInitRequiresWaylandClient(t *testing.T) {
	_, err := Init(&compositor.Session{})
	assert.ErrorIs(t, err, compositor.ErrWrongDisplay)
}

func TestRegister(t *testing.T) {
	reg := compositor.NewRegistry()
	require.NoError(t, Register(reg))

	desc, ok := reg.Lookup(compositor.GnomeBackend)
	require.True(t, ok)
	assert.Equal(t, 80, desc.Priority)
}
