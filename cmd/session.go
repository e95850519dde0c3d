package cmd

import (
	"fmt"
	"os"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/compositor/backends"
	"github.com/bnema/waywall/internal/config"
	"github.com/bnema/waywall/internal/logger"
	"github.com/bnema/waywall/internal/wayland"
)

// session is the display connection shared by one command
type session struct {
	*compositor.Session
	client *wayland.Client
}

// openSession connects to Wayland when WAYLAND_DISPLAY is set. Sessions with
// only DISPLAY get no Wayland client and default to the X11 backend whatever
// XDG_CURRENT_DESKTOP says.
func openSession(cfg *config.Config) (*session, error) {
	s := &session{Session: &compositor.Session{Preferred: cfg.Backend.Preferred}}

	if os.Getenv("WAYLAND_DISPLAY") == "" {
		if os.Getenv("DISPLAY") == "" {
			return nil, fmt.Errorf("neither WAYLAND_DISPLAY nor DISPLAY is set")
		}
		logger.Debug("No Wayland display, using X11")
		return s.x11Only(), nil
	}

	client, err := wayland.Connect("")
	if err != nil {
		if os.Getenv("DISPLAY") == "" {
			return nil, err
		}
		logger.Warnf("Wayland unavailable, trying X11: %v", err)
		return s.x11Only(), nil
	}

	s.client = client
	s.Display = client
	return s, nil
}

func (s *session) x11Only() *session {
	if s.Preferred == "" {
		s.Preferred = compositor.X11Backend
	}
	return s
}

// Outputs lists the Wayland outputs known at connect time. It is empty on X11.
func (s *session) Outputs() []*compositor.Output {
	if s.client == nil {
		return nil
	}
	return s.client.Outputs().All()
}

func (s *session) Close() {
	if s.client == nil {
		return
	}
	if err := s.client.Close(); err != nil {
		logger.Debugf("Failed to close Wayland connection: %v", err)
	}
}

// detect classifies the compositor without selecting a backend
func (s *session) detect() compositor.CompositorInfo {
	return compositor.Detect(s.Display, s.Env)
}

// selectBackend registers every backend and initializes the one for this
// session.
func (s *session) selectBackend() (*compositor.Backend, error) {
	reg, err := backends.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to register backends: %w", err)
	}
	return compositor.Init(reg, s.Session)
}
