package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterCancelRemove(t *testing.T) {
	r := NewRegistry()

	flag := r.Register("u1")
	require.NotNil(t, flag)
	assert.False(t, flag.Load())

	assert.True(t, r.Cancel("u1"))
	assert.True(t, flag.Load())

	r.Remove("u1")
	assert.False(t, r.Cancel("u1"))
}

func TestRegistry_CancelUnknownIdReturnsFalse(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Cancel("nope"))
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	r := NewRegistry()

	first := r.Register("u1")
	require.True(t, r.Cancel("u1"))
	require.True(t, first.Load())

	// Re-registering the same id yields a fresh, unset flag; the old
	// reference stays cancelled but is no longer reachable via the registry.
	second := r.Register("u1")
	assert.False(t, second.Load())
	assert.True(t, first.Load())

	assert.True(t, r.Cancel("u1"))
	assert.True(t, second.Load())
}

func TestRegistry_RemoveIsUnconditionalAndIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Register("u1")
	r.Remove("u1")
	r.Remove("u1")
	r.Remove("never-registered")

	assert.False(t, r.Cancel("u1"))
}
