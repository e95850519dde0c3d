// Package output keeps one wallpaper surface per output and follows output
// hotplug and configuration changes.
package output

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/config"
	"github.com/bnema/waywall/internal/logger"
)

// ErrNoSurfaces is returned by Start when no covered output got a surface.
var ErrNoSurfaces = errors.New("no surface could be created")

// Manager owns the surfaces of the active backend. Apart from Do and Snapshot,
// its methods must be called from the loop goroutine.
type Manager struct {
	backend  *compositor.Backend
	cfg      compositor.SurfaceConfig
	outputs  config.OutputsConfig
	surfaces map[compositor.OutputID]*compositor.Surface

	// onReady is called once a surface is configured and committed.
	onReady func(*compositor.Surface)

	requests chan func()
	log      *log.Logger
}

// NewManager prepares a manager for b. Nothing is created until Start.
func NewManager(b *compositor.Backend, cfg compositor.SurfaceConfig, outputs config.OutputsConfig) *Manager {
	return &Manager{
		backend:  b,
		cfg:      cfg,
		outputs:  outputs,
		surfaces: make(map[compositor.OutputID]*compositor.Surface),
		requests: make(chan func(), 16),
		log:      logger.WithPrefix("output"),
	}
}

// OnReady registers a callback for surfaces that became ready, typically the
// renderer attaching its EGL surface.
func (m *Manager) OnReady(fn func(*compositor.Surface)) {
	m.onReady = fn
}

// Start creates a surface on every covered output.
func (m *Manager) Start() error {
	var errs []error
	for _, o := range m.backend.Outputs().All() {
		if !m.covers(o) {
			m.log.Debugf("Skipping output %s", o.Identifier())
			continue
		}
		if err := m.add(o); err != nil {
			errs = append(errs, err)
		}
	}

	if len(m.surfaces) == 0 {
		errs = append(errs, ErrNoSurfaces)
		return errors.Join(errs...)
	}
	if len(errs) > 0 {
		m.log.Warnf("Some outputs have no wallpaper: %v", errors.Join(errs...))
	}
	m.log.Infof("Wallpaper surfaces created on %d outputs", len(m.surfaces))
	return nil
}

func (m *Manager) covers(o *compositor.Output) bool {
	return m.outputs.Covers(o.Identifier())
}

func (m *Manager) add(o *compositor.Output) error {
	if _, ok := m.surfaces[o.ID]; ok {
		return nil
	}

	cfg := m.cfg
	cfg.Output = o.ID
	s, err := m.backend.CreateSurface(cfg)
	if err != nil {
		return fmt.Errorf("output %s: %w", o.Identifier(), err)
	}
	m.surfaces[o.ID] = s
	s.SetHandlers(m.handleConfigure, m.handleClosed)

	// Synchronous backends are configured before handlers exist
	if s.Configured() {
		m.handleConfigure(s, 0, 0)
	}
	return nil
}

func (m *Manager) remove(id compositor.OutputID) {
	s, ok := m.surfaces[id]
	if !ok {
		return
	}
	delete(m.surfaces, id)
	if err := s.Destroy(); err != nil {
		m.log.Warnf("Failed to destroy surface: %v", err)
	}
}

func (m *Manager) handleConfigure(s *compositor.Surface, _, _ int32) {
	if err := s.Commit(); err != nil {
		m.log.Errorf("Commit failed: %v", err)
		return
	}
	w, h := s.Size()
	m.log.Debug("Surface ready", "output", outputName(s.Output()), "width", w, "height", h)
	if m.onReady != nil {
		m.onReady(s)
	}
}

func (m *Manager) handleClosed(s *compositor.Surface) {
	m.log.Info("Surface closed by the compositor", "output", outputName(s.Output()))
}

// HandleEvent reacts to one backend event.
func (m *Manager) HandleEvent(ev compositor.Event) {
	switch ev.Type {
	case compositor.EventOutputAdded:
		if !m.covers(ev.Output) {
			return
		}
		if err := m.add(ev.Output); err != nil {
			m.log.Errorf("Cannot cover new output: %v", err)
		}
	case compositor.EventOutputRemoved:
		m.remove(ev.Output.ID)
	case compositor.EventSurfaceClosed:
		if ev.Output == nil {
			return
		}
		m.remove(ev.Output.ID)
		// A closed surface on a live output is recreated
		if o, ok := m.backend.Outputs().Get(ev.Output.ID); ok && m.covers(o) {
			if err := m.add(o); err != nil {
				m.log.Errorf("Cannot recreate surface: %v", err)
			}
		}
	}
}

// Reconfigure applies new surface settings and output filters.
func (m *Manager) Reconfigure(cfg compositor.SurfaceConfig, outputs config.OutputsConfig) error {
	m.cfg = cfg
	m.outputs = outputs

	var errs []error
	for id, s := range m.surfaces {
		o := s.Output()
		if o != nil && !m.covers(o) {
			m.log.Infof("Output %s no longer covered", o.Identifier())
			m.remove(id)
			continue
		}
		next := cfg
		next.Output = id
		if err := s.Configure(next); err != nil {
			errs = append(errs, err)
		}
	}

	for _, o := range m.backend.Outputs().All() {
		if m.covers(o) {
			if err := m.add(o); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Run dispatches backend events on the calling goroutine until ctx is done or
// dispatching fails.
func (m *Manager) Run(ctx context.Context) error {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			if err := m.backend.Wake(); err != nil {
				m.log.Debugf("Wake failed: %v", err)
			}
		case <-stop:
		}
	}()
	defer wg.Wait()
	defer close(stop)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := m.backend.Dispatch(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("dispatch: %w", err)
		}
		m.drain()
	}
}

func (m *Manager) drain() {
	for {
		select {
		case ev, ok := <-m.backend.Events():
			if !ok {
				return
			}
			m.HandleEvent(ev)
		case req := <-m.requests:
			req()
		default:
			return
		}
	}
}

// Do runs fn on the loop goroutine and waits for it. Safe from any goroutine.
func (m *Manager) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case m.requests <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := m.backend.Wake(); err != nil {
		return fmt.Errorf("wake loop: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close destroys every surface and releases the backend.
func (m *Manager) Close() error {
	for id := range m.surfaces {
		m.remove(id)
	}
	return m.backend.Cleanup()
}

func outputName(o *compositor.Output) string {
	if o == nil {
		return "none"
	}
	return o.Identifier()
}
