package compositor

import (
	"fmt"
	"sort"

	"github.com/bnema/waywall/internal/logger"
)

// MaxBackends bounds the registry.
const MaxBackends = 16

// Well known backend names.
const (
	LayerShellBackend = "wlr-layer-shell"
	PlasmaBackend     = "kde-plasma"
	GnomeBackend      = "gnome-shell"
	X11Backend        = "x11"
	FallbackBackend   = "fallback"
)

// Descriptor is an immutable registry entry.
type Descriptor struct {
	Name        string
	Description string
	Priority    int
	Provider    Provider
}

// Registry maps backend names to providers. It is filled once at startup by the
// owner of the process and only read afterwards; it is not safe for concurrent
// registration.
type Registry struct {
	entries []Descriptor
}

func NewRegistry() *Registry {
	return &Registry{entries: make([]Descriptor, 0, MaxBackends)}
}

// Register appends a backend. It never overwrites an existing name.
func (r *Registry) Register(name, description string, priority int, provider Provider) error {
	var err error
	switch {
	case len(r.entries) >= MaxBackends:
		err = ErrRegistryFull
	case name == "" || isNilProvider(provider):
		err = ErrInvalidDescriptor
	default:
		if _, ok := r.Lookup(name); ok {
			err = ErrDuplicateBackend
		}
	}
	if err != nil {
		logger.Warnf("Cannot register backend %q: %v", name, err)
		return fmt.Errorf("register %q: %w", name, err)
	}

	r.entries = append(r.entries, Descriptor{
		Name:        name,
		Description: description,
		Priority:    priority,
		Provider:    provider,
	})
	logger.Debugf("Registered backend: %s (priority %d) - %s", name, priority, description)
	return nil
}

func isNilProvider(p Provider) bool {
	switch f := p.(type) {
	case nil:
		return true
	case ProviderFunc:
		return f == nil
	}
	return false
}

// Lookup scans for name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	for _, d := range r.entries {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Descriptors returns a copy ordered by descending priority, then name.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.entries))
	copy(out, r.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *Registry) Len() int {
	return len(r.entries)
}
