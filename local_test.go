package gossip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsLocalRelayURL(t *testing.T) {
	local := []string{
		"ws://localhost:4869",
		"ws://127.0.0.1",
		"ws://192.168.1.77:3334",
		"ws://10.0.0.5",
		"ws://172.16.44.2:8080",
		"ws://pi.local",
		"ws://169.254.10.10",
	}
	for _, u := range local {
		require.True(t, IsLocalRelayURL(u), "%s should be local", u)
	}

	public := []string{
		"wss://relay.damus.io",
		"wss://nos.lol",
		"wss://8.8.8.8",
		"wss://172.32.0.1", // just outside the 172.16/12 private block
	}
	for _, u := range public {
		require.False(t, IsLocalRelayURL(u), "%s should not be local", u)
	}
}

func TestForeignLocalRelayFiltering(t *testing.T) {
	own := []string{"ws://192.168.1.77:3334", "wss://relay.damus.io"}

	// someone else's LAN relay is foreign, ours is not
	require.True(t, isForeignLocalRelay("ws://192.168.1.10:3334", own))
	require.False(t, isForeignLocalRelay("ws://192.168.1.77:3334", own))

	// public relays are never "foreign local" no matter whose they are
	require.False(t, isForeignLocalRelay("wss://nos.lol", own))

	got := dropForeignLocalRelays([]string{
		"wss://nos.lol",
		"ws://192.168.1.10:3334",
		"ws://192.168.1.77:3334",
		"ws://localhost:4869",
	}, own)
	require.Equal(t, []string{"wss://nos.lol", "ws://192.168.1.77:3334"}, got)
}

func TestDropForeignLocalRelaysDoesNotMutateInput(t *testing.T) {
	in := []string{"ws://10.0.0.1", "wss://relay.damus.io"}
	out := dropForeignLocalRelays(in, nil)
	require.Equal(t, []string{"wss://relay.damus.io"}, out)
	require.Equal(t, []string{"ws://10.0.0.1", "wss://relay.damus.io"}, in)
}

func TestIsVirtualRelay(t *testing.T) {
	require.True(t, IsVirtualRelay("wss://cache2.primal.net/v1"))
	require.True(t, IsVirtualRelay("wss://feeds.nostr.band/newstr"))
	require.True(t, IsVirtualRelay("wss://filter.nostr.wine/npub1xxx?broadcast=true"))
	require.True(t, IsVirtualRelay("no"))
	require.False(t, IsVirtualRelay("wss://relay.damus.io"))
	require.False(t, IsVirtualRelay("ws://localhost:4869"))
}
