// Package wayland owns the Wayland display connection shared by the Wayland
// backends: global discovery, the output arena and the event loop.
package wayland

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/bnema/wlturbo/wl"
	"github.com/charmbracelet/log"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/logger"
	"github.com/bnema/waywall/internal/protocols"
)

const (
	compositorInterface = "wl_compositor"
	compositorVersion   = 4
	outputVersion       = 4

	// wl_registry.global_remove
	globalRemoveOpcode = 1
)

// ErrGlobalMissing is returned by Bind when the compositor does not advertise an
// interface.
var ErrGlobalMissing = errors.New("global not advertised")

// Client is a connection to a Wayland compositor. It is used from the display
// goroutine only, except for Wake.
type Client struct {
	display    *wl.Display
	registry   *wl.Registry
	compositor *wl.Compositor

	outputs   *compositor.OutputSet
	wlOutputs map[compositor.OutputID]*protocols.Output
	onAdded   func(*compositor.Output)
	onRemoved func(*compositor.Output)

	eglWindows EGLWindowFactory
	log        *log.Logger
}

// Connect opens the display named by socket (WAYLAND_DISPLAY when empty), binds
// wl_compositor and waits until the initial outputs are described.
func Connect(socket string) (*Client, error) {
	display, err := wl.Connect(socket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Wayland display: %w", err)
	}

	c := &Client{
		display:   display,
		registry:  display.Registry(),
		outputs:   compositor.NewOutputSet(),
		wlOutputs: make(map[compositor.OutputID]*protocols.Output),
		log:       logger.WithPrefix("wayland"),
	}
	c.registry.AddHandler(protocols.OutputInterface, c.handleOutputGlobal)
	display.AddListener(c.registry.ID(), globalRemoveOpcode, c.handleGlobalRemove)

	// First round trip announces globals and binds outputs, the second one
	// delivers their geometry
	for i := 0; i < 2; i++ {
		if err := display.Roundtrip(); err != nil {
			display.Close()
			return nil, fmt.Errorf("initial roundtrip failed: %w", err)
		}
	}

	comp := wl.NewCompositor(display.Context())
	if _, err := c.Bind(compositorInterface, compositorVersion, comp); err != nil {
		display.Close()
		return nil, err
	}
	c.compositor = comp

	c.log.Debugf("Connected, %d outputs", c.outputs.Len())
	return c, nil
}

// Globals lists the advertised interface names after one round trip. It makes
// Client a compositor.GlobalProber.
func (c *Client) Globals() ([]string, error) {
	if err := c.display.Roundtrip(); err != nil {
		return nil, fmt.Errorf("registry roundtrip failed: %w", err)
	}

	seen := make(map[string]struct{})
	for _, g := range c.registry.GetGlobals() {
		seen[g.Interface] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Has reports whether iface is advertised.
func (c *Client) Has(iface string) bool {
	_, ok := c.registry.FindGlobal(iface)
	return ok
}

// Bind binds the first global implementing iface at min(advertised, maxVersion)
// and returns the bound version.
func (c *Client) Bind(iface string, maxVersion uint32, proxy wl.Proxy) (uint32, error) {
	g, ok := c.registry.FindGlobal(iface)
	if !ok {
		return 0, fmt.Errorf("%s: %w", iface, ErrGlobalMissing)
	}
	version := min(g.Version, maxVersion)
	if err := c.registry.Bind(g.Name, iface, version, proxy); err != nil {
		return 0, fmt.Errorf("failed to bind %s: %w", iface, err)
	}
	return version, nil
}

// Context is the proxy context for new objects.
func (c *Client) Context() *wl.Context {
	return c.display.Context()
}

// CreateSurface creates a wl_surface.
func (c *Client) CreateSurface() (*wl.Surface, error) {
	surface, err := c.compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("failed to create wl_surface: %w", err)
	}
	return surface, nil
}

// SetEmptyInputRegion makes surface transparent to pointer and touch input.
func (c *Client) SetEmptyInputRegion(surface *wl.Surface) error {
	region, err := c.compositor.CreateRegion()
	if err != nil {
		return fmt.Errorf("failed to create region: %w", err)
	}
	if err := surface.SetInputRegion(region); err != nil {
		_ = region.Destroy()
		return fmt.Errorf("failed to set input region: %w", err)
	}
	return region.Destroy()
}

// Outputs is the arena of described outputs, keyed by global name.
func (c *Client) Outputs() *compositor.OutputSet {
	return c.outputs
}

// OutputProxy returns the bound wl_output for id.
func (c *Client) OutputProxy(id compositor.OutputID) (*protocols.Output, bool) {
	o, ok := c.wlOutputs[id]
	return o, ok
}

// SetHotplugHandlers is called for outputs described or removed after Connect.
func (c *Client) SetHotplugHandlers(added, removed func(*compositor.Output)) {
	c.onAdded = added
	c.onRemoved = removed
}

// Dispatch blocks until one event has been read and handled.
func (c *Client) Dispatch() error {
	return c.display.Dispatch()
}

// Roundtrip waits until the compositor processed every request sent so far.
func (c *Client) Roundtrip() error {
	return c.display.Roundtrip()
}

// Wake makes a blocked Dispatch return by requesting a sync callback. It is the
// only method safe to call from another goroutine.
func (c *Client) Wake() error {
	if _, err := c.display.Sync(); err != nil {
		return fmt.Errorf("failed to send sync: %w", err)
	}
	return nil
}

// Close releases outputs and closes the connection.
func (c *Client) Close() error {
	for id, o := range c.wlOutputs {
		_ = o.Release()
		delete(c.wlOutputs, id)
	}
	return c.display.Close()
}

func (c *Client) handleOutputGlobal(r *wl.Registry, name, version uint32) {
	id := compositor.OutputID(name)
	out := protocols.NewOutput(c.display.Context())
	out.Version = min(version, outputVersion)
	out.SetDoneHandler(func(o *protocols.Output) {
		c.outputDone(id, o.Info())
	})

	if err := r.Bind(name, protocols.OutputInterface, out.Version, out); err != nil {
		c.log.Warnf("Failed to bind output %d: %v", name, err)
		return
	}
	c.wlOutputs[id] = out
}

func (c *Client) outputDone(id compositor.OutputID, info protocols.OutputInfo) {
	if existing, ok := c.outputs.Get(id); ok {
		applyOutputInfo(existing, info)
		c.log.Debug("Output changed", "output", existing.String())
		return
	}

	out := &compositor.Output{ID: id}
	applyOutputInfo(out, info)
	if err := c.outputs.Insert(out); err != nil {
		c.log.Warnf("Ignoring output: %v", err)
		return
	}
	if c.onAdded != nil {
		c.onAdded(out)
	}
}

func (c *Client) handleGlobalRemove(data []byte) {
	if len(data) < 4 {
		return
	}
	id := compositor.OutputID(binary.LittleEndian.Uint32(data[0:4]))

	proxy, ok := c.wlOutputs[id]
	if !ok {
		return
	}
	delete(c.wlOutputs, id)

	if out, ok := c.outputs.Remove(id); ok && c.onRemoved != nil {
		c.onRemoved(out)
	}
	if err := proxy.Release(); err != nil {
		c.log.Debugf("Failed to release output %d: %v", id, err)
	}
}

func applyOutputInfo(out *compositor.Output, info protocols.OutputInfo) {
	out.Name = info.Name
	out.Make = info.Make
	out.Model = info.Model
	out.Description = info.Description
	out.X, out.Y = info.X, info.Y
	out.PhysicalWidth, out.PhysicalHeight = info.PhysicalWidth, info.PhysicalHeight
	out.Transform = info.Transform
	out.RefreshMHz = info.Refresh
	out.Scale = max(info.Scale, 1)

	// Logical size; rotated outputs swap their mode dimensions
	w, h := info.Width, info.Height
	if info.Transform%2 == 1 {
		w, h = h, w
	}
	out.Width, out.Height = w, h
}
