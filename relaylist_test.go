package gossip

import (
	"context"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
)

func TestParseRelayList(t *testing.T) {
	evt := &nostr.Event{
		PubKey: testAlice,
		Kind:   nostr.KindRelayListMetadata,
		Tags: nostr.Tags{
			{"r", "wss://both.example.com"},
			{"r", "wss://read.example.com", "read"},
			{"r", "wss://write.example.com/", "write"},
			{"r", "wss://both.example.com"}, // duplicate
			{"r", "https://not-a-relay.example.com"},
			{"r", ""},
			{"p", testBob}, // not an r tag
		},
	}

	rl := ParseRelayList(evt)
	require.Equal(t, []Relay{
		{URL: "wss://both.example.com", Inbox: true, Outbox: true},
		{URL: "wss://read.example.com", Inbox: true},
		{URL: "wss://write.example.com", Outbox: true},
	}, rl.Items)

	require.Equal(t, []string{"wss://both.example.com", "wss://read.example.com"}, rl.Read())
	require.Equal(t, []string{"wss://both.example.com", "wss://write.example.com"}, rl.Write())
}

func TestParseRelaysFromContactList(t *testing.T) {
	evt := &nostr.Event{
		PubKey: testAlice,
		Kind:   nostr.KindFollowList,
		Content: `{
			"wss://legacy.example.com": {"read": true, "write": true},
			"wss://readonly.example.com/": {"read": true, "write": false},
			"not a url at all": {"read": true, "write": true}
		}`,
	}

	items := ParseRelaysFromContactList(evt)
	require.Equal(t, []Relay{
		{URL: "wss://legacy.example.com", Inbox: true, Outbox: true},
		{URL: "wss://readonly.example.com", Inbox: true},
	}, items)

	require.Nil(t, ParseRelaysFromContactList(&nostr.Event{Content: "not json"}))
}

func TestFetchRelayListLegacyFallback(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	suppressNetworkFetch(sys, testBob)

	testEventSerial++
	require.NoError(t, sys.StoreRelay.Publish(context.Background(), nostr.Event{
		ID:        nostr.GeneratePrivateKey(),
		PubKey:    testBob,
		CreatedAt: nostr.Now() + nostr.Timestamp(testEventSerial),
		Kind:      nostr.KindFollowList,
		Content:   `{"wss://old-school.example.com": {"read": true, "write": true}}`,
	}))

	rl := sys.FetchRelayList(context.Background(), testBob)
	require.Equal(t, []string{"wss://old-school.example.com"}, rl.Write())
}

func TestFetchRelayListMergesCacheRelays(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	seedRelayList(t, sys, testAlice, nostr.Tags{
		{"r", "wss://alice.example.com"},
	})
	require.NoError(t, sys.RegisterCacheRelays(testAlice, "ws://192.168.1.20:4869"))

	rl := sys.FetchRelayList(context.Background(), testAlice)

	// the local relay goes first, on both sides, without duplicating the rest
	require.Equal(t, []string{"ws://192.168.1.20:4869", "wss://alice.example.com"}, rl.Read())
	require.Equal(t, []string{"ws://192.168.1.20:4869", "wss://alice.example.com"}, rl.Write())
}

func TestFetchRelayListFailureYieldsEmpty(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	suppressNetworkFetch(sys, testNoList)

	rl := sys.FetchRelayList(context.Background(), testNoList)
	require.Empty(t, rl.Items)
	require.Empty(t, rl.Read())
	require.Empty(t, rl.Write())
}

func TestFetchRelaySets(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	testEventSerial++
	require.NoError(t, sys.StoreRelay.Publish(context.Background(), nostr.Event{
		ID:        nostr.GeneratePrivateKey(),
		PubKey:    testCarol,
		CreatedAt: nostr.Now() + nostr.Timestamp(testEventSerial),
		Kind:      KindRelaySets,
		Tags: nostr.Tags{
			{"d", "buddies"},
			{"title", "Buddies"},
			{"relay", "wss://buddy1.example.com"},
			{"relay", "wss://buddy2.example.com"},
		},
	}))

	sets := sys.FetchRelaySets(context.Background(), testCarol)
	require.Len(t, sets, 1)
	require.Equal(t, "buddies", sets[0].ID)
	require.Equal(t, "Buddies", sets[0].Name)
	require.Equal(t, []string{"wss://buddy1.example.com", "wss://buddy2.example.com"}, sets[0].URLs)
}
