package gossip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendUnique(t *testing.T) {
	got := appendUnique([]string{"a", "b"}, "b", "c", "a", "d")
	require.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestRelayStreamRoundRobin(t *testing.T) {
	rs := NewRelayStream("wss://a.relay", "wss://b.relay")
	require.Equal(t, "wss://a.relay", rs.Next())
	require.Equal(t, "wss://b.relay", rs.Next())
	require.Equal(t, "wss://a.relay", rs.Next())
}

func TestPerQueryLimitInBatch(t *testing.T) {
	require.Equal(t, 100, PerQueryLimitInBatch(100, 1))
	require.Equal(t, 12, PerQueryLimitInBatch(12, 2))

	// large batches get their per-query share shrunk, never to zero
	limit := PerQueryLimitInBatch(50, 100)
	require.Greater(t, limit, 0)
	require.Less(t, limit, 50)
}

func TestDoThisNotMoreThanOnceAnHour(t *testing.T) {
	key := "helpers-test-once-an-hour"
	require.True(t, doThisNotMoreThanOnceAnHour(key))
	require.False(t, doThisNotMoreThanOnceAnHour(key))
}
