package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnchor(t *testing.T) {
	tests := []struct {
		in      string
		want    Anchor
		wantErr bool
	}{
		{"fill", AnchorFill, false},
		{"", AnchorFill, false},
		{"none", 0, false},
		{"top,left", AnchorTop | AnchorLeft, false},
		{" Bottom , right ", AnchorBottom | AnchorRight, false},
		{"top,middle", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAnchor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "fill", AnchorFill.String())
	assert.Equal(t, "top,left", (AnchorTop | AnchorLeft).String())
}

func TestParseLayer(t *testing.T) {
	for _, l := range []Layer{LayerBackground, LayerBottom, LayerTop, LayerOverlay} {
		got, err := ParseLayer(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParseLayer("wallpaper")
	assert.Error(t, err)
}

func TestCapabilitiesString(t *testing.T) {
	assert.Equal(t, "none", CapNone.String())
	assert.Equal(t, "layer-shell|anchor|multi-output", (CapLayerShell | CapAnchor | CapMultiOutput).String())
	assert.True(t, (CapAnchor | CapViewport).Has(CapViewport))
	assert.False(t, CapAnchor.Has(CapAnchor|CapViewport))
}

func TestOutputSet(t *testing.T) {
	set := NewOutputSet()
	require.NoError(t, set.Insert(&Output{ID: 30, Name: "DP-1"}))
	require.NoError(t, set.Insert(&Output{ID: 12, Model: "LG HDR 4K"}))
	require.NoError(t, set.Insert(&Output{ID: 50}))

	assert.Error(t, set.Insert(&Output{ID: 30}))
	assert.Error(t, set.Insert(&Output{}))

	first, ok := set.First()
	require.True(t, ok)
	assert.Equal(t, OutputID(30), first.ID)

	o, ok := set.FindByName("LG HDR 4K")
	require.True(t, ok)
	assert.Equal(t, OutputID(12), o.ID)

	o, _ = set.Get(50)
	assert.Equal(t, "unknown", o.Identifier())

	_, ok = set.Remove(30)
	require.True(t, ok)
	first, _ = set.First()
	assert.Equal(t, OutputID(12), first.ID)
	assert.Equal(t, 2, set.Len())

	_, ok = set.Remove(30)
	assert.False(t, ok)
}
