package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// PlasmaShellInterface is KDE's desktop shell global
const PlasmaShellInterface = "org_kde_plasma_shell"

// org_kde_plasma_surface.role
const (
	PlasmaRoleNormal  uint32 = 0
	PlasmaRoleDesktop uint32 = 1
	PlasmaRolePanel   uint32 = 2
)

// PlasmaShell is the org_kde_plasma_shell global
type PlasmaShell struct {
	wl.BaseProxy
}

// NewPlasmaShell creates an unbound plasma shell proxy
func NewPlasmaShell(ctx *wl.Context) *PlasmaShell {
	shell := &PlasmaShell{}
	shell.SetContext(ctx)
	ctx.Register(shell)
	return shell
}

// GetSurface creates the plasma extension object for surface
func (s *PlasmaShell) GetSurface(surface *wl.Surface) (*PlasmaSurface, error) {
	ps := &PlasmaSurface{}
	ps.SetContext(s.Context())
	ps.SetID(s.Context().AllocateID())
	s.Context().Register(ps)

	// Opcode 0: get_surface
	const opcode = 0
	if err := s.Context().SendRequest(s, opcode, ps, surface); err != nil {
		s.Context().Unregister(ps)
		return nil, err
	}
	return ps, nil
}

// Dispatch handles incoming events (plasma shell has no events)
func (s *PlasmaShell) Dispatch(_ *wl.Event) {}

// PlasmaSurface is an org_kde_plasma_surface
type PlasmaSurface struct {
	wl.BaseProxy
}

// Destroy destroys the plasma surface
func (p *PlasmaSurface) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := p.Context().SendRequest(p, opcode)
	p.Context().Unregister(p)
	return err
}

// SetOutput pins the surface to an output
func (p *PlasmaSurface) SetOutput(output *Output) error {
	// Opcode 1: set_output
	const opcode = 1
	return p.Context().SendRequest(p, opcode, output)
}

// SetPosition places the surface in global compositor space
func (p *PlasmaSurface) SetPosition(x, y int32) error {
	// Opcode 2: set_position
	const opcode = 2
	return p.Context().SendRequest(p, opcode, x, y)
}

// SetRole assigns a plasma role such as PlasmaRoleDesktop
func (p *PlasmaSurface) SetRole(role uint32) error {
	// Opcode 3: set_role
	const opcode = 3
	return p.Context().SendRequest(p, opcode, role)
}

// Dispatch ignores the auto-hide panel events
func (p *PlasmaSurface) Dispatch(_ *wl.Event) {}
