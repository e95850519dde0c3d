// Package backends registers every compositor backend shipped with waywall.
package backends

import (
	"errors"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/compositor/backends/fallback"
	"github.com/bnema/waywall/internal/compositor/backends/gnome"
	"github.com/bnema/waywall/internal/compositor/backends/layershell"
	"github.com/bnema/waywall/internal/compositor/backends/plasma"
	"github.com/bnema/waywall/internal/compositor/backends/x11"
)

// Register adds all backends to reg.
func Register(reg *compositor.Registry) error {
	return errors.Join(
		layershell.Register(reg),
		plasma.Register(reg),
		gnome.Register(reg),
		x11.Register(reg),
		fallback.Register(reg),
	)
}

// NewRegistry returns a registry holding all backends.
func NewRegistry() (*compositor.Registry, error) {
	reg := compositor.NewRegistry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
