package compositor

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/waywall/internal/logger"
)

// Provider is a backend's entry point. Init connects to the display server and
// enumerates outputs; it is called at most once per selection.
type Provider interface {
	Init(sess *Session) (Driver, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(sess *Session) (Driver, error)

func (f ProviderFunc) Init(sess *Session) (Driver, error) {
	if f == nil {
		return nil, ErrInvalidDescriptor
	}
	return f(sess)
}

// Driver is an initialized backend. Every call happens on the goroutine that
// owns the display connection.
type Driver interface {
	// Capabilities is queried once after Init.
	Capabilities() Capabilities
	Outputs() *OutputSet
	// CreateSurface performs the protocol handshake for s. Drivers without an
	// asynchronous configure step call s.Acknowledge before returning.
	CreateSurface(s *Surface) (SurfaceDriver, error)
	OutputAdded(o *Output)
	OutputRemoved(o *Output)
	Cleanup() error
}

// SurfaceDriver is the protocol side of one Surface.
type SurfaceDriver interface {
	Destroy() error
	Configure(cfg SurfaceConfig) error
	Commit() error
	CreateEGLWindow(width, height int32) (NativeWindow, error)
	DestroyEGLWindow() error
}

// EGLResizer is implemented by surfaces whose native window needs an explicit
// resize.
type EGLResizer interface {
	ResizeEGLWindow(width, height int32) error
}

// ScaleSetter is implemented by surfaces that forward a buffer scale.
type ScaleSetter interface {
	SetScale(scale int32) error
}

// Dispatcher is implemented by drivers that own an event stream. Dispatch blocks
// until at least one event was handled; Wake may be called from any goroutine to
// unblock it.
type Dispatcher interface {
	Dispatch() error
	Wake() error
}

// HotplugSource is implemented by drivers that observe output changes
// themselves. The backend installs its notifiers after Init.
type HotplugSource interface {
	SetHotplugHandlers(added, removed func(*Output))
}

// Session is the process state handed to every provider.
type Session struct {
	Env Env
	// Display is the Wayland connection, nil on X11-only sessions.
	Display GlobalProber
	EGL     EGLPlatform
	// Preferred overrides the selection policy when set.
	Preferred string
}

// Getenv reads from Env, or the process environment when unset.
func (s *Session) Getenv(key string) string {
	if s == nil || s.Env == nil {
		return OSEnv(key)
	}
	return s.Env(key)
}

// EventType tags Backend events.
type EventType int

const (
	EventOutputAdded EventType = iota
	EventOutputRemoved
	EventSurfaceConfigured
	EventSurfaceClosed
)

func (t EventType) String() string {
	switch t {
	case EventOutputAdded:
		return "output-added"
	case EventOutputRemoved:
		return "output-removed"
	case EventSurfaceConfigured:
		return "surface-configured"
	case EventSurfaceClosed:
		return "surface-closed"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event reports a lifecycle change to consumers.
type Event struct {
	Type    EventType
	Output  *Output
	Surface *Surface
}

const eventBuffer = 64

// Backend is the one active backend of the process.
type Backend struct {
	Name        string
	Description string
	Priority    int
	Info        CompositorInfo

	driver       Driver
	session      *Session
	capabilities Capabilities
	surfaces     []*Surface
	events       chan Event
	log          *log.Logger
}

func newBackend(desc Descriptor, drv Driver, sess *Session) *Backend {
	b := &Backend{
		Name:        desc.Name,
		Description: desc.Description,
		Priority:    desc.Priority,
		driver:      drv,
		session:     sess,
		events:      make(chan Event, eventBuffer),
		log:         logger.WithPrefix(desc.Name),
	}
	b.capabilities = drv.Capabilities()

	if hs, ok := drv.(HotplugSource); ok {
		hs.SetHotplugHandlers(b.NotifyOutputAdded, b.NotifyOutputRemoved)
	}
	return b
}

// Capabilities returns the bitmask cached at selection time.
func (b *Backend) Capabilities() Capabilities {
	if b == nil {
		return CapNone
	}
	return b.capabilities
}

func (b *Backend) Outputs() *OutputSet {
	if b.driver == nil {
		return NewOutputSet()
	}
	return b.driver.Outputs()
}

// Surfaces returns the live surfaces in creation order.
func (b *Backend) Surfaces() []*Surface {
	out := make([]*Surface, len(b.surfaces))
	copy(out, b.surfaces)
	return out
}

// Events delivers output and surface lifecycle events. The channel is closed by
// Cleanup.
func (b *Backend) Events() <-chan Event {
	return b.events
}

func (b *Backend) emit(ev Event) {
	select {
	case b.events <- ev:
	default:
		b.log.Warn("Event queue full, dropping event", "type", ev.Type)
	}
}

// Dispatch runs one iteration of the driver's event loop.
func (b *Backend) Dispatch() error {
	if b.driver == nil {
		return ErrBackendClosed
	}
	d, ok := b.driver.(Dispatcher)
	if !ok {
		return ErrNotDispatchable
	}
	return d.Dispatch()
}

// Wake unblocks a pending Dispatch. Safe from any goroutine.
func (b *Backend) Wake() error {
	if b.driver == nil {
		return ErrBackendClosed
	}
	d, ok := b.driver.(Dispatcher)
	if !ok {
		return ErrNotDispatchable
	}
	return d.Wake()
}

// CreateSurface creates a surface bound to cfg.Output, or to the first
// enumerated output when cfg.Output is 0.
func (b *Backend) CreateSurface(cfg SurfaceConfig) (*Surface, error) {
	if b.driver == nil {
		return nil, ErrBackendClosed
	}

	out, err := b.resolveOutput(cfg.Output)
	if err != nil {
		b.log.Errorf("Cannot create surface: %v", err)
		return nil, err
	}
	if out != nil {
		cfg.Output = out.ID
	}

	s := &Surface{
		backend: b,
		output:  out,
		config:  cfg,
		scale:   1,
	}
	sd, err := b.driver.CreateSurface(s)
	if err != nil {
		b.log.Errorf("Failed to create surface: %v", err)
		return nil, fmt.Errorf("create surface on %s: %w", b.Name, err)
	}
	s.driver = sd
	b.surfaces = append(b.surfaces, s)

	b.log.Debug("Surface created", "output", outputName(out), "configured", s.configured)
	return s, nil
}

func (b *Backend) resolveOutput(id OutputID) (*Output, error) {
	outputs := b.driver.Outputs()
	if id == 0 {
		o, _ := outputs.First()
		return o, nil
	}
	o, ok := outputs.Get(id)
	if !ok {
		return nil, fmt.Errorf("output %d: %w", id, ErrUnknownOutput)
	}
	return o, nil
}

func (b *Backend) forget(s *Surface) {
	for i, cur := range b.surfaces {
		if cur == s {
			b.surfaces = append(b.surfaces[:i], b.surfaces[i+1:]...)
			return
		}
	}
}

// NotifyOutputAdded is called once o is in the driver's OutputSet.
func (b *Backend) NotifyOutputAdded(o *Output) {
	if b.driver == nil {
		return
	}
	b.log.Info("Output added", "output", o.String())
	b.driver.OutputAdded(o)
	b.emit(Event{Type: EventOutputAdded, Output: o})
}

// NotifyOutputRemoved closes surfaces bound to o and reports the removal. The
// surfaces stay owned by their consumers.
func (b *Backend) NotifyOutputRemoved(o *Output) {
	if b.driver == nil {
		return
	}
	b.log.Info("Output removed", "output", o.Identifier())
	for _, s := range b.Surfaces() {
		if s.output != nil && s.output.ID == o.ID {
			s.Close()
		}
	}
	b.driver.OutputRemoved(o)
	b.emit(Event{Type: EventOutputRemoved, Output: o})
}

// Cleanup releases the driver. Surfaces should be destroyed first; any left are
// destroyed here with a warning.
func (b *Backend) Cleanup() error {
	if b == nil || b.driver == nil {
		return nil
	}

	if len(b.surfaces) > 0 {
		b.log.Warnf("Cleaning up with %d live surfaces, destroying them first", len(b.surfaces))
		for _, s := range b.Surfaces() {
			if err := s.Destroy(); err != nil {
				b.log.Warnf("Failed to destroy surface: %v", err)
			}
		}
	}

	b.log.Debug("Cleaning up compositor backend")
	err := b.driver.Cleanup()
	b.driver = nil
	close(b.events)
	if err != nil {
		return fmt.Errorf("cleanup %s: %w", b.Name, err)
	}
	return nil
}

func outputName(o *Output) string {
	if o == nil {
		return "none"
	}
	return o.Identifier()
}
