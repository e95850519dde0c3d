package compositor

import (
	"os"
	"strings"

	"github.com/bnema/waywall/internal/logger"
)

// Protocol globals that drive classification.
const (
	LayerShellInterface   = "zwlr_layer_shell_v1"
	DesktopShellInterface = "org_kde_plasma_shell"
	GTKShellInterface     = "gtk_shell1"
)

// CompositorType is the closed set of compositor families the engine knows.
type CompositorType int

const (
	CompositorUnknown CompositorType = iota
	CompositorHyprland
	CompositorSway
	CompositorRiver
	CompositorWayfire
	CompositorKDEPlasma
	CompositorGNOMEShell
	CompositorMutter
	CompositorWeston
	CompositorGeneric
	CompositorX11
)

func (t CompositorType) String() string {
	switch t {
	case CompositorHyprland:
		return "Hyprland"
	case CompositorSway:
		return "Sway"
	case CompositorRiver:
		return "River"
	case CompositorWayfire:
		return "Wayfire"
	case CompositorKDEPlasma:
		return "KDE Plasma"
	case CompositorGNOMEShell:
		return "GNOME Shell"
	case CompositorMutter:
		return "Mutter"
	case CompositorWeston:
		return "Weston"
	case CompositorGeneric:
		return "Generic wlroots"
	case CompositorX11:
		return "X11"
	default:
		return "Unknown"
	}
}

// CompositorInfo is the result of one detection pass.
type CompositorInfo struct {
	Type            CompositorType
	Name            string
	Version         string
	HasLayerShell   bool
	HasDesktopShell bool
	HasGTKShell     bool
}

// Env looks up a session environment variable.
type Env func(key string) string

// OSEnv reads the process environment.
var OSEnv Env = os.Getenv

// GlobalProber lists the interface names advertised by the display server. A
// call is one synchronous round trip.
type GlobalProber interface {
	Globals() ([]string, error)
}

// Detect classifies the running compositor. Environment hints win over protocol
// presence because several families expose the same generic protocols.
func Detect(prober GlobalProber, env Env) CompositorInfo {
	if env == nil {
		env = OSEnv
	}

	var info CompositorInfo
	if prober != nil {
		globals, err := prober.Globals()
		if err != nil {
			logger.Warnf("Failed to query display globals: %v", err)
		}
		for _, g := range globals {
			switch g {
			case LayerShellInterface:
				info.HasLayerShell = true
			case DesktopShellInterface:
				info.HasDesktopShell = true
			case GTKShellInterface:
				info.HasGTKShell = true
			}
		}
	}

	info.Type = classify(info, env)
	info.Name = info.Type.String()
	info.Version = env("COMPOSITOR_VERSION")
	if info.Version == "" {
		info.Version = "unknown"
	}

	logger.Infof("Detected compositor: %s", info.Name)
	logger.Debug("Protocol support",
		"layer_shell", info.HasLayerShell,
		"desktop_shell", info.HasDesktopShell,
		"gtk_shell", info.HasGTKShell)
	return info
}

func classify(info CompositorInfo, env Env) CompositorType {
	desktop := env("XDG_CURRENT_DESKTOP")
	session := env("XDG_SESSION_DESKTOP")
	waylandDisplay := env("WAYLAND_DISPLAY")

	has := func(value, sub string) bool {
		return value != "" && strings.Contains(value, sub)
	}

	switch {
	case has(desktop, "Hyprland") || has(session, "Hyprland") || has(waylandDisplay, "hyprland"):
		return CompositorHyprland
	case has(desktop, "sway") || has(session, "sway") || env("SWAYSOCK") != "":
		return CompositorSway
	case has(desktop, "river") || has(session, "river"):
		return CompositorRiver
	case has(desktop, "wayfire") || has(session, "wayfire"):
		return CompositorWayfire
	case has(desktop, "KDE") || has(session, "plasma"):
		return CompositorKDEPlasma
	case has(desktop, "GNOME") || has(session, "gnome"):
		return CompositorGNOMEShell
	case has(session, "mutter"):
		return CompositorMutter
	case has(desktop, "weston") || has(session, "weston"):
		return CompositorWeston
	}

	switch {
	case info.HasDesktopShell:
		return CompositorKDEPlasma
	case info.HasGTKShell:
		return CompositorGNOMEShell
	case info.HasLayerShell:
		return CompositorGeneric
	}

	if waylandDisplay == "" && (env("DISPLAY") != "" || strings.EqualFold(env("XDG_SESSION_TYPE"), "x11")) {
		return CompositorX11
	}
	return CompositorUnknown
}
