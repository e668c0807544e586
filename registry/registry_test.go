package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perfgraph/perfgraph/perferrors"
	"github.com/perfgraph/perfgraph/registry"
)

func TestHashOfIsStableAndIdempotent(t *testing.T) {
	r := registry.New()

	h1, err := r.HashOf("fib")
	require.NoError(t, err)

	h2, err := r.HashOf("fib")
	require.NoError(t, err)

	require.Equal(t, h1, h2)
}

func TestHashOfTrimsWhitespace(t *testing.T) {
	r := registry.New()

	h1, err := r.HashOf("fib")
	require.NoError(t, err)

	h2, err := r.HashOf("  fib  ")
	require.NoError(t, err)

	require.Equal(t, h1, h2)
}

func TestHashOfRejectsEmptyLabel(t *testing.T) {
	r := registry.New()
	_, err := r.HashOf("   ")
	require.ErrorIs(t, err, perferrors.ErrEmptyLabel)
}

func TestLabelForRoundTrips(t *testing.T) {
	r := registry.New()
	h, err := r.HashOf("fib")
	require.NoError(t, err)

	label, ok := r.LabelFor(h)
	require.True(t, ok)
	require.Equal(t, "fib", label)
}

func TestLabelForUnknownHash(t *testing.T) {
	r := registry.New()
	_, ok := r.LabelFor(registry.Hash(12345))
	require.False(t, ok)
}

func TestClearResetsState(t *testing.T) {
	r := registry.New()
	h, err := r.HashOf("fib")
	require.NoError(t, err)

	r.Clear()

	_, ok := r.LabelFor(h)
	require.False(t, ok)
	require.Zero(t, r.Collisions())
}
