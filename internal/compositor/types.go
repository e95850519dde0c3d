// Package compositor hides the windowing protocols of a desktop session behind one
// backend contract. It detects the running compositor, selects a backend from a
// Registry and drives wallpaper surfaces through create, configure, commit and
// destroy without callers knowing which protocol is underneath.
package compositor

import (
	"fmt"
	"strings"
)

// Capabilities is the set of optional features a backend supports.
type Capabilities uint32

const (
	CapLayerShell Capabilities = 1 << iota
	CapSubsurfaces
	CapViewport
	CapExclusiveZone
	CapKeyboardInteractivity
	CapAnchor
	CapMultiOutput

	CapNone Capabilities = 0
)

var capabilityNames = []struct {
	cap  Capabilities
	name string
}{
	{CapLayerShell, "layer-shell"},
	{CapSubsurfaces, "subsurfaces"},
	{CapViewport, "viewport"},
	{CapExclusiveZone, "exclusive-zone"},
	{CapKeyboardInteractivity, "keyboard-interactivity"},
	{CapAnchor, "anchor"},
	{CapMultiOutput, "multi-output"},
}

// Has reports whether every flag in f is set.
func (c Capabilities) Has(f Capabilities) bool {
	return c&f == f
}

func (c Capabilities) String() string {
	if c == CapNone {
		return "none"
	}
	var names []string
	for _, n := range capabilityNames {
		if c.Has(n.cap) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// Layer is the stacking layer requested for a surface.
type Layer int

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay
)

func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerBottom:
		return "bottom"
	case LayerTop:
		return "top"
	case LayerOverlay:
		return "overlay"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// ParseLayer accepts the names printed by Layer.String.
func ParseLayer(s string) (Layer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "background":
		return LayerBackground, nil
	case "bottom":
		return LayerBottom, nil
	case "top":
		return LayerTop, nil
	case "overlay":
		return LayerOverlay, nil
	default:
		return LayerBackground, fmt.Errorf("unknown layer %q", s)
	}
}

// Anchor is a bitmask of the output edges a surface is attached to.
type Anchor uint32

const (
	AnchorTop    Anchor = 1
	AnchorBottom Anchor = 2
	AnchorLeft   Anchor = 4
	AnchorRight  Anchor = 8

	AnchorFill = AnchorTop | AnchorBottom | AnchorLeft | AnchorRight
)

func (a Anchor) String() string {
	if a == AnchorFill {
		return "fill"
	}
	if a == 0 {
		return "none"
	}
	var edges []string
	for _, e := range []struct {
		bit  Anchor
		name string
	}{{AnchorTop, "top"}, {AnchorBottom, "bottom"}, {AnchorLeft, "left"}, {AnchorRight, "right"}} {
		if a&e.bit != 0 {
			edges = append(edges, e.name)
		}
	}
	return strings.Join(edges, ",")
}

// ParseAnchor parses "fill", "none" or a comma separated list of edges.
func ParseAnchor(s string) (Anchor, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "fill":
		return AnchorFill, nil
	case "none":
		return 0, nil
	}

	var a Anchor
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "top":
			a |= AnchorTop
		case "bottom":
			a |= AnchorBottom
		case "left":
			a |= AnchorLeft
		case "right":
			a |= AnchorRight
		default:
			return 0, fmt.Errorf("unknown anchor edge %q", part)
		}
	}
	return a, nil
}

// SurfaceConfig describes how a wallpaper surface should be placed.
type SurfaceConfig struct {
	Layer  Layer
	Anchor Anchor
	// ExclusiveZone is -1 for auto, 0 for none, or a size in pixels.
	ExclusiveZone         int32
	KeyboardInteractivity bool
	// Width and Height of 0 mean "use the output size".
	Width  int32
	Height int32
	// Output of 0 lets the backend choose.
	Output OutputID
}

// DefaultSurfaceConfig is a full-output background surface.
func DefaultSurfaceConfig() SurfaceConfig {
	return SurfaceConfig{
		Layer:         LayerBackground,
		Anchor:        AnchorFill,
		ExclusiveZone: -1,
	}
}

// Size returns the requested size, substituting the output size for zero
// dimensions.
func (c SurfaceConfig) Size(out *Output) (int32, int32) {
	w, h := c.Width, c.Height
	if out != nil {
		if w == 0 {
			w = out.Width
		}
		if h == 0 {
			h = out.Height
		}
	}
	return w, h
}

// Native handles exchanged with the EGL platform.
type (
	NativeWindow uintptr
	EGLDisplay   uintptr
	EGLConfig    uintptr
	EGLSurface   uintptr
)

// EGLPlatform turns native windows into EGL window surfaces. The renderer
// provides it.
type EGLPlatform interface {
	CreateWindowSurface(dpy EGLDisplay, cfg EGLConfig, win NativeWindow) (EGLSurface, error)
	DestroySurface(dpy EGLDisplay, surf EGLSurface) error
}
