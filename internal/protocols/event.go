package protocols

// eventArgs reads event arguments in wire order. *wl.Event satisfies it.
type eventArgs interface {
	Uint32() uint32
	Int32() int32
	String() string
	Array() []byte
}
