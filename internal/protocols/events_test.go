package protocols

import (
	"testing"
)

// wireArgs replays event arguments in wire order
type wireArgs struct {
	t    *testing.T
	vals []any
}

func args(t *testing.T, vals ...any) *wireArgs {
	return &wireArgs{t: t, vals: vals}
}

func (a *wireArgs) next() any {
	a.t.Helper()
	if len(a.vals) == 0 {
		a.t.Fatal("event read past its last argument")
	}
	v := a.vals[0]
	a.vals = a.vals[1:]
	return v
}

func (a *wireArgs) Uint32() uint32 { return a.next().(uint32) }
func (a *wireArgs) Int32() int32   { return a.next().(int32) }
func (a *wireArgs) String() string { return a.next().(string) }
func (a *wireArgs) Array() []byte  { return a.next().([]byte) }

func (a *wireArgs) consumed() {
	a.t.Helper()
	if len(a.vals) != 0 {
		a.t.Errorf("%d arguments left unread", len(a.vals))
	}
}

func TestOutputEvents(t *testing.T) {
	o := &Output{pending: OutputInfo{Scale: 1}}
	var done []OutputInfo
	o.SetDoneHandler(func(o *Output) { done = append(done, o.Info()) })

	events := []struct {
		opcode uint16
		args   *wireArgs
	}{
		{0, args(t, int32(2560), int32(0), int32(597), int32(336), int32(0), "Dell Inc.", "U2720Q", int32(0))},
		{1, args(t, uint32(0), int32(1920), int32(1080), int32(60000))}, // not current
		{1, args(t, uint32(outputModeCurrent), int32(3840), int32(2160), int32(59997))},
		{3, args(t, int32(2))},
		{4, args(t, "DP-1")},
		{5, args(t, "Dell U2720Q (DP-1)")},
	}
	for _, ev := range events {
		o.handle(ev.opcode, ev.args)
		ev.args.consumed()
	}

	if o.Ready() {
		t.Fatal("Expected output not ready before done")
	}
	if o.Info().Width != 0 {
		t.Errorf("Expected pending state hidden before done, got width %d", o.Info().Width)
	}

	o.handle(2, args(t))

	if !o.Ready() {
		t.Fatal("Expected output ready after done")
	}
	if len(done) != 1 {
		t.Fatalf("Expected 1 done callback, got %d", len(done))
	}
	info := o.Info()
	if info.X != 2560 || info.Y != 0 {
		t.Errorf("Expected position 2560,0, got %d,%d", info.X, info.Y)
	}
	if info.Width != 3840 || info.Height != 2160 || info.Refresh != 59997 {
		t.Errorf("Expected current mode 3840x2160@59997, got %dx%d@%d", info.Width, info.Height, info.Refresh)
	}
	if info.Make != "Dell Inc." || info.Model != "U2720Q" {
		t.Errorf("Expected make/model Dell Inc./U2720Q, got %s/%s", info.Make, info.Model)
	}
	if info.Scale != 2 {
		t.Errorf("Expected scale 2, got %d", info.Scale)
	}
	if info.Name != "DP-1" || info.Description != "Dell U2720Q (DP-1)" {
		t.Errorf("Expected name DP-1, got %q (%q)", info.Name, info.Description)
	}

	// A later mode change only lands with the next done
	o.handle(1, args(t, uint32(outputModeCurrent), int32(2560), int32(1440), int32(144000)))
	if o.Info().Width != 3840 {
		t.Errorf("Expected applied width to stay 3840, got %d", o.Info().Width)
	}
	o.handle(2, args(t))
	if o.Info().Width != 2560 || len(done) != 2 {
		t.Errorf("Expected second done to apply 2560, got %d after %d callbacks", o.Info().Width, len(done))
	}
}

func TestLayerSurfaceEvents(t *testing.T) {
	l := &LayerSurface{}

	// No handlers installed
	l.handle(0, args(t, uint32(1), uint32(10), uint32(10)))
	l.handle(1, args(t))

	var serial, width, height uint32
	closed := 0
	l.SetHandlers(func(s, w, h uint32) {
		serial, width, height = s, w, h
	}, func() { closed++ })

	a := args(t, uint32(42), uint32(1920), uint32(1080))
	l.handle(0, a)
	a.consumed()
	if serial != 42 || width != 1920 || height != 1080 {
		t.Errorf("Expected configure 42 1920x1080, got %d %dx%d", serial, width, height)
	}

	l.handle(1, args(t))
	if closed != 1 {
		t.Errorf("Expected 1 closed callback, got %d", closed)
	}
}

func TestXdgEvents(t *testing.T) {
	xs := &XdgSurface{}
	var serials []uint32
	xs.SetConfigureHandler(func(serial uint32) { serials = append(serials, serial) })

	xs.handle(0, args(t, uint32(7)))
	if len(serials) != 1 || serials[0] != 7 {
		t.Errorf("Expected xdg_surface configure serial 7, got %v", serials)
	}

	tl := &Toplevel{}
	var width, height int32
	closed := false
	tl.SetHandlers(func(w, h int32) { width, height = w, h }, func() { closed = true })

	a := args(t, int32(1280), int32(720), []byte{2, 0, 0, 0}) // fullscreen state
	tl.handle(0, a)
	a.consumed()
	if width != 1280 || height != 720 {
		t.Errorf("Expected toplevel configure 1280x720, got %dx%d", width, height)
	}

	tl.handle(1, args(t))
	if !closed {
		t.Error("Expected close callback")
	}
}
