package gossip

import (
	"context"
	"errors"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
)

func TestGatherPartial(t *testing.T) {
	got := gatherPartial([]func() ([]string, error){
		func() ([]string, error) { return []string{"wss://one.relay", "wss://two.relay"}, nil },
		func() ([]string, error) { return nil, errors.New("connection refused") },
		func() ([]string, error) { return []string{"wss://two.relay", "wss://three.relay"}, nil },
	})

	// input order kept, failures dropped, duplicates collapsed
	require.Equal(t, []string{"wss://one.relay", "wss://two.relay", "wss://three.relay"}, got)
}

func TestCollectNothingForPlainPosts(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	got := sys.CollectContextualRelays(context.Background(), PublishRequest{
		UserPubKey:      testUser,
		UserWriteRelays: []string{"wss://a.relay"},
	})
	require.Empty(t, got)
}

func TestCollectParentAuthorInboxCapped(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	seedRelayList(t, sys, testAlice, nostr.Tags{
		{"r", "wss://r1.example.com", "read"},
		{"r", "wss://r2.example.com", "read"},
		{"r", "wss://r3.example.com", "read"},
		{"r", "wss://r4.example.com", "read"},
		{"r", "wss://r5.example.com", "read"},
		{"r", "wss://r6.example.com", "read"},
	})

	parent := &nostr.Event{
		ID:        "1212121212121212121212121212121212121212121212121212121212121212",
		PubKey:    testAlice,
		Kind:      nostr.KindTextNote,
		CreatedAt: nostr.Now(),
	}

	got := sys.CollectContextualRelays(context.Background(), PublishRequest{
		UserPubKey:      testUser,
		UserWriteRelays: []string{"wss://a.relay"},
		ParentEvent:     parent,
	})

	require.Contains(t, got, "wss://r4.example.com")
	require.NotContains(t, got, "wss://r5.example.com")
	require.NotContains(t, got, "wss://r6.example.com")
}

func TestCollectFiltersForeignLocalRelays(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	seedRelayList(t, sys, testAlice, nostr.Tags{
		{"r", "wss://public.example.com", "read"},
		{"r", "ws://192.168.1.50:3334", "read"},  // alice's LAN, unreachable from here
		{"r", "ws://192.168.1.77:3334", "read"},  // happens to be the user's own
	})

	parent := &nostr.Event{
		ID:        "1313131313131313131313131313131313131313131313131313131313131313",
		PubKey:    testAlice,
		Kind:      nostr.KindTextNote,
		CreatedAt: nostr.Now(),
	}

	got := sys.CollectContextualRelays(context.Background(), PublishRequest{
		UserPubKey:      testUser,
		UserWriteRelays: []string{"ws://192.168.1.77:3334", "wss://a.relay"},
		ParentEvent:     parent,
	})

	require.Contains(t, got, "wss://public.example.com")
	require.Contains(t, got, "ws://192.168.1.77:3334")
	require.NotContains(t, got, "ws://192.168.1.50:3334")
}

func TestCollectEventHintRelays(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	suppressNetworkFetch(sys, testAlice)

	quoted := "1515151515151515151515151515151515151515151515151515151515151515"
	sys.trackEventRelay(quoted, "wss://quoted-seen.example.com", false)

	parent := &nostr.Event{
		ID:        "1414141414141414141414141414141414141414141414141414141414141414",
		PubKey:    testAlice,
		Kind:      nostr.KindTextNote,
		CreatedAt: nostr.Now(),
		Tags: nostr.Tags{
			{"e", quoted, "wss://hinted.example.com"},
		},
	}
	sys.trackEventRelay(parent.ID, "wss://parent-seen.example.com", false)

	got := sys.CollectContextualRelays(context.Background(), PublishRequest{
		UserPubKey:      testUser,
		UserWriteRelays: []string{"wss://a.relay"},
		ParentEvent:     parent,
	})

	require.Contains(t, got, "wss://parent-seen.example.com")
	require.Contains(t, got, "wss://hinted.example.com")
	require.Contains(t, got, "wss://quoted-seen.example.com")
}

func TestCollectMentionedUsersScopeDependsOnAction(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	seedRelayList(t, sys, testAlice, nostr.Tags{
		{"r", "wss://alice-outbox.example.com", "write"},
		{"r", "wss://alice-inbox.example.com", "read"},
	})

	parent := &nostr.Event{
		ID:        "1616161616161616161616161616161616161616161616161616161616161616",
		PubKey:    testAlice,
		Kind:      nostr.KindTextNote,
		CreatedAt: nostr.Now(),
	}

	reply := sys.CollectContextualRelays(context.Background(), PublishRequest{
		UserPubKey:      testUser,
		UserWriteRelays: []string{"wss://a.relay"},
		ParentEvent:     parent,
	})
	require.Contains(t, reply, "wss://alice-outbox.example.com")

	pm := sys.CollectContextualRelays(context.Background(), PublishRequest{
		UserPubKey:      testUser,
		UserWriteRelays: []string{"wss://a.relay"},
		ParentEvent:     parent,
		PublicMessage:   true,
	})
	require.Contains(t, pm, "wss://alice-inbox.example.com")
	require.NotContains(t, pm, "wss://alice-outbox.example.com")
}
