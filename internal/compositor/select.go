package compositor

import (
	"fmt"

	"github.com/bnema/waywall/internal/logger"
)

// PreferredBackend maps a compositor to the backend name tried first.
func PreferredBackend(info CompositorInfo) string {
	switch info.Type {
	case CompositorKDEPlasma, CompositorHyprland, CompositorSway, CompositorRiver, CompositorWayfire:
		return LayerShellBackend
	case CompositorGNOMEShell, CompositorMutter:
		return GnomeBackend
	case CompositorX11:
		return X11Backend
	default:
		if info.HasLayerShell {
			return LayerShellBackend
		}
		return FallbackBackend
	}
}

// Init detects the compositor behind sess and selects a backend for it.
func Init(reg *Registry, sess *Session) (*Backend, error) {
	info := Detect(sess.Display, sess.Env)
	return Select(reg, sess, info)
}

// Select initializes the preferred backend for info. When it is missing or its
// Init fails the fallback backend is tried once. ErrNoBackend means nothing
// could be initialized.
func Select(reg *Registry, sess *Session, info CompositorInfo) (*Backend, error) {
	preferred := sess.Preferred
	if preferred == "" {
		preferred = PreferredBackend(info)
	} else {
		logger.Infof("Backend %s requested by configuration", preferred)
	}
	logger.Infof("Selecting backend for %s compositor: %s", info.Name, preferred)

	b, err := initBackend(reg, sess, preferred)
	if err == nil {
		b.Info = info
		return b, nil
	}
	logger.Errorf("Failed to initialize preferred backend %s: %v", preferred, err)

	if preferred == FallbackBackend {
		return nil, fmt.Errorf("%w for %s: %w", ErrNoBackend, info.Name, err)
	}

	logger.Info("Preferred backend unavailable, trying fallback...")
	b, ferr := initBackend(reg, sess, FallbackBackend)
	if ferr != nil {
		logger.Errorf("Failed to initialize fallback backend: %v", ferr)
		return nil, fmt.Errorf("%w for %s: %s: %w; %s: %w", ErrNoBackend, info.Name, preferred, err, FallbackBackend, ferr)
	}
	b.Info = info
	return b, nil
}

func initBackend(reg *Registry, sess *Session, name string) (*Backend, error) {
	desc, ok := reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrBackendNotRegistered)
	}

	logger.Debugf("Initializing backend: %s", name)
	drv, err := desc.Provider.Init(sess)
	if err != nil {
		return nil, err
	}
	if drv == nil {
		return nil, fmt.Errorf("%s returned no driver", name)
	}

	b := newBackend(desc, drv, sess)
	logger.Infof("Using backend: %s - %s", b.Name, b.Description)
	logger.Infof("Backend capabilities: %s", b.capabilities)
	return b, nil
}
