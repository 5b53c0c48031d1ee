package xid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsPrefixedUUIDv7(t *testing.T) {
	id := New("req")
	require.True(t, strings.HasPrefix(id, "req-"))

	parsed, err := uuid.Parse(strings.TrimPrefix(id, "req-"))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestNewWithoutPrefix(t *testing.T) {
	_, err := uuid.Parse(New(""))
	assert.NoError(t, err)
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		id := New("req")
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
