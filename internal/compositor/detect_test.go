package compositor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		globals []string
		want    CompositorType
	}{
		{
			name: "hyprland from desktop",
			env:  map[string]string{"XDG_CURRENT_DESKTOP": "Hyprland"},
			want: CompositorHyprland,
		},
		{
			name: "hyprland from socket name",
			env:  map[string]string{"WAYLAND_DISPLAY": "wayland-hyprland-1"},
			want: CompositorHyprland,
		},
		{
			name: "sway from SWAYSOCK",
			env:  map[string]string{"SWAYSOCK": "/run/user/1000/sway-ipc.sock"},
			want: CompositorSway,
		},
		{
			name: "river",
			env:  map[string]string{"XDG_SESSION_DESKTOP": "river"},
			want: CompositorRiver,
		},
		{
			name: "wayfire",
			env:  map[string]string{"XDG_CURRENT_DESKTOP": "wayfire"},
			want: CompositorWayfire,
		},
		{
			name: "kde from env",
			env:  map[string]string{"XDG_CURRENT_DESKTOP": "KDE"},
			want: CompositorKDEPlasma,
		},
		{
			name: "gnome from session",
			env:  map[string]string{"XDG_SESSION_DESKTOP": "gnome"},
			want: CompositorGNOMEShell,
		},
		{
			name: "mutter",
			env:  map[string]string{"XDG_SESSION_DESKTOP": "mutter"},
			want: CompositorMutter,
		},
		{
			name: "weston",
			env:  map[string]string{"XDG_CURRENT_DESKTOP": "weston"},
			want: CompositorWeston,
		},
		{
			name:    "environment wins over protocol presence",
			env:     map[string]string{"XDG_CURRENT_DESKTOP": "sway"},
			globals: []string{DesktopShellInterface, LayerShellInterface},
			want:    CompositorSway,
		},
		{
			name:    "desktop shell implies kde",
			globals: []string{"wl_compositor", DesktopShellInterface, LayerShellInterface},
			want:    CompositorKDEPlasma,
		},
		{
			name:    "gtk shell implies gnome",
			globals: []string{"wl_compositor", GTKShellInterface},
			want:    CompositorGNOMEShell,
		},
		{
			name:    "layer shell only is generic",
			globals: []string{"wl_compositor", LayerShellInterface},
			want:    CompositorGeneric,
		},
		{
			name: "x11 session",
			env:  map[string]string{"DISPLAY": ":0"},
			want: CompositorX11,
		},
		{
			name: "DISPLAY alongside wayland is not x11",
			env:  map[string]string{"DISPLAY": ":0", "WAYLAND_DISPLAY": "wayland-0"},
			want: CompositorUnknown,
		},
		{
			name:    "nothing recognizable",
			globals: []string{"wl_compositor", "wl_shm"},
			want:    CompositorUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Detect(staticProber{globals: tt.globals}, envMap(tt.env))
			assert.Equal(t, tt.want, info.Type)
			assert.Equal(t, tt.want.String(), info.Name)
		})
	}
}

func TestDetectFlagsAndVersion(t *testing.T) {
	prober := staticProber{globals: []string{LayerShellInterface, GTKShellInterface}}

	info := Detect(prober, envMap(map[string]string{"COMPOSITOR_VERSION": "0.41.2"}))
	assert.True(t, info.HasLayerShell)
	assert.True(t, info.HasGTKShell)
	assert.False(t, info.HasDesktopShell)
	assert.Equal(t, "0.41.2", info.Version)

	info = Detect(prober, envMap(nil))
	assert.Equal(t, "unknown", info.Version)
}

func TestDetectProberFailure(t *testing.T) {
	info := Detect(staticProber{err: errors.New("broken pipe")}, envMap(nil))
	assert.Equal(t, CompositorUnknown, info.Type)
	assert.False(t, info.HasLayerShell)

	info = Detect(nil, envMap(map[string]string{"XDG_CURRENT_DESKTOP": "GNOME"}))
	assert.Equal(t, CompositorGNOMEShell, info.Type)
}
