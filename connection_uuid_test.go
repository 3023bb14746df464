package spdy3

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Each Connection gets its own log-correlation id; it must parse as a
// UUID and must not collide between two connections built back to back.
func TestConnectionIDIsUniqueAndWellFormed(t *testing.T) {
	a := NewConnection("a.example.com", &fakeTransport{})
	b := NewConnection("b.example.com", &fakeTransport{})

	require.NotEmpty(t, a.id)
	require.NotEmpty(t, b.id)
	assert.NotEqual(t, a.id, b.id)

	_, err := uuid.Parse(a.id)
	assert.NoError(t, err)
}
