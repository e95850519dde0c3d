package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// OutputInterface is the wl_output global
const OutputInterface = "wl_output"

// wl_output.mode flags
const outputModeCurrent = 0x1

// OutputInfo is the state accumulated from wl_output events up to a done event
type OutputInfo struct {
	X, Y                          int32
	PhysicalWidth, PhysicalHeight int32
	Make, Model                   string
	Transform                     int32
	Width, Height                 int32
	Refresh                       int32 // mHz
	Scale                         int32
	Name                          string // since v4
	Description                   string // since v4
}

// Output is a bound wl_output. wlturbo's own wl.Output ignores events, this one
// decodes them.
type Output struct {
	wl.BaseProxy
	Version uint32

	pending OutputInfo
	current OutputInfo
	done    bool
	onDone  func(*Output)
}

// NewOutput creates an unbound output proxy
func NewOutput(ctx *wl.Context) *Output {
	output := &Output{pending: OutputInfo{Scale: 1}}
	output.SetContext(ctx)
	ctx.Register(output)
	return output
}

// SetDoneHandler is called after every done event with the applied state
func (o *Output) SetDoneHandler(fn func(*Output)) {
	o.onDone = fn
}

// Info returns the state applied by the last done event
func (o *Output) Info() OutputInfo {
	return o.current
}

// Ready reports whether at least one done event was received
func (o *Output) Ready() bool {
	return o.done
}

// Release destroys the output proxy (since v3)
func (o *Output) Release() error {
	// Opcode 0: release
	const opcode = 0
	var err error
	if o.Version >= 3 {
		err = o.Context().SendRequest(o, opcode)
	}
	o.Context().Unregister(o)
	return err
}

// Dispatch decodes wl_output events
func (o *Output) Dispatch(event *wl.Event) {
	o.handle(event.Opcode, event)
}

func (o *Output) handle(opcode uint16, event eventArgs) {
	switch opcode {
	case 0: // geometry
		o.pending.X = event.Int32()
		o.pending.Y = event.Int32()
		o.pending.PhysicalWidth = event.Int32()
		o.pending.PhysicalHeight = event.Int32()
		_ = event.Int32() // subpixel
		o.pending.Make = event.String()
		o.pending.Model = event.String()
		o.pending.Transform = event.Int32()
	case 1: // mode
		flags := event.Uint32()
		width := event.Int32()
		height := event.Int32()
		refresh := event.Int32()
		if flags&outputModeCurrent != 0 {
			o.pending.Width = width
			o.pending.Height = height
			o.pending.Refresh = refresh
		}
	case 2: // done
		o.current = o.pending
		o.done = true
		if o.onDone != nil {
			o.onDone(o)
		}
	case 3: // scale
		o.pending.Scale = event.Int32()
	case 4: // name
		o.pending.Name = event.String()
	case 5: // description
		o.pending.Description = event.String()
	}
}
