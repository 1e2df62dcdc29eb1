package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerations(t *testing.T) {
	var g generations
	stored := 0
	set := func() error { stored++; return nil }

	gen := g.current("NAVDATA-Acme-1.0")
	ok, err := g.store("NAVDATA-Acme-1.0", gen, set)
	require.NoError(t, err)
	assert.True(t, ok)

	// A build that started before an invalidation cannot store
	stale := g.current("NAVDATA-Acme-1.0")
	require.NoError(t, g.invalidate("NAVDATA-Acme-1.0", func() error { return nil }))
	ok, err = g.store("NAVDATA-Acme-1.0", stale, set)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, stored)

	// Other keys are unaffected
	ok, _ = g.store("NAVDATA-Acme-2.0", 0, set)
	assert.True(t, ok)
	assert.Equal(t, 2, stored)
}
