package cache_memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	c := New32[string](1000)

	c.Set("3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d", "fiatjaf")
	c.Cache.Wait()

	v, ok := c.Get("3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d")
	require.True(t, ok)
	require.Equal(t, "fiatjaf", v)

	c.Delete("3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d")
	c.Cache.Wait()
	_, ok = c.Get("3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d")
	require.False(t, ok)
}

func TestSetWithTTL(t *testing.T) {
	c := New32[int](1000)

	c.SetWithTTL("79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798", 42, 50*time.Millisecond)
	c.Cache.Wait()

	v, ok := c.Get("79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	require.True(t, ok)
	require.Equal(t, 42, v)

	time.Sleep(80 * time.Millisecond)
	_, ok = c.Get("79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	require.False(t, ok)
}

func TestNonHexKeys(t *testing.T) {
	c := New32[int](1000)

	c.Set("wss://relay.example.com", 1)
	c.Set("short", 2)
	c.Cache.Wait()

	v, ok := c.Get("wss://relay.example.com")
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = c.Get("short")
	require.True(t, ok)
	require.Equal(t, 2, v)
}
