package passwords

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	c := NewCache()

	_, ok := c.Get("s1")
	require.False(t, ok)

	c.Set("s1", "hunter2")
	pw, ok := c.Get("s1")
	require.True(t, ok)
	require.Equal(t, "hunter2", pw)

	// Other spaces are independent.
	_, ok = c.Get("s2")
	require.False(t, ok)

	c.Clear("s1")
	_, ok = c.Get("s1")
	require.False(t, ok)

	// Clearing a missing entry is a no-op.
	c.Clear("missing")
}
