package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/waywall/internal/compositor"
)

func TestInitRequiresWaylandClient(t *testing.T) {
	_, err := Init(&compositor.Session{})
	assert.ErrorIs(t, err, compositor.ErrWrongDisplay)
}

func TestRegister(t *testing.T) {
	reg := compositor.NewRegistry()
	require.NoError(t, Register(reg))

	desc, ok := reg.Lookup(compositor.FallbackBackend)
	require.True(t, ok)
	assert.Equal(t, 10, desc.Priority)
	assert.Equal(t, Description, desc.Description)
}
