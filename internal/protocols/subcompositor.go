package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// SubcompositorInterface is the wl_subcompositor global
const SubcompositorInterface = "wl_subcompositor"

// Subcompositor creates subsurfaces
type Subcompositor struct {
	wl.BaseProxy
}

// NewSubcompositor creates an unbound subcompositor proxy
func NewSubcompositor(ctx *wl.Context) *Subcompositor {
	sc := &Subcompositor{}
	sc.SetContext(ctx)
	ctx.Register(sc)
	return sc
}

// GetSubsurface gives surface the subsurface role below parent's tree
func (sc *Subcompositor) GetSubsurface(surface, parent *wl.Surface) (*Subsurface, error) {
	sub := &Subsurface{}
	sub.SetContext(sc.Context())
	sub.SetID(sc.Context().AllocateID())
	sc.Context().Register(sub)

	// Opcode 1: get_subsurface
	const opcode = 1
	if err := sc.Context().SendRequest(sc, opcode, sub, surface, parent); err != nil {
		sc.Context().Unregister(sub)
		return nil, err
	}
	return sub, nil
}

// Destroy destroys the subcompositor
func (sc *Subcompositor) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := sc.Context().SendRequest(sc, opcode)
	sc.Context().Unregister(sc)
	return err
}

// Dispatch handles incoming events (subcompositor has no events)
func (sc *Subcompositor) Dispatch(_ *wl.Event) {}

// Subsurface is a wl_subsurface role object
type Subsurface struct {
	wl.BaseProxy
}

// Destroy removes the subsurface role
func (s *Subsurface) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := s.Context().SendRequest(s, opcode)
	s.Context().Unregister(s)
	return err
}

// SetPosition sets the offset from the parent surface
func (s *Subsurface) SetPosition(x, y int32) error {
	// Opcode 1: set_position
	const opcode = 1
	return s.Context().SendRequest(s, opcode, x, y)
}

// PlaceBelow stacks the subsurface below sibling
func (s *Subsurface) PlaceBelow(sibling *wl.Surface) error {
	// Opcode 3: place_below
	const opcode = 3
	return s.Context().SendRequest(s, opcode, sibling)
}

// SetDesync lets the subsurface commit independently of its parent
func (s *Subsurface) SetDesync() error {
	// Opcode 5: set_desync
	const opcode = 5
	return s.Context().SendRequest(s, opcode)
}

// Dispatch handles incoming events (subsurface has no events)
func (s *Subsurface) Dispatch(_ *wl.Event) {}
