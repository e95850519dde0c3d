package x11

// State is the setup progress of a desktop window.
type State int

const (
	StateUninitialized State = iota
	StateWindowCreated
	StateTypeHintsSet
	StateMapped
	StateInputPassthroughSet
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateWindowCreated:
		return "window-created"
	case StateTypeHintsSet:
		return "type-hints-set"
	case StateMapped:
		return "mapped"
	case StateInputPassthroughSet:
		return "input-passthrough-set"
	case StateReady:
		return "ready"
	default:
		return "invalid"
	}
}
