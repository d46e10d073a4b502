package gossip

import (
	"context"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/require"
)

func TestExtractMentionsParentAuthorFirst(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	npubBob, _ := nip19.EncodePublicKey(testBob)
	npubCarol, _ := nip19.EncodePublicKey(testCarol)

	parent := &nostr.Event{
		ID:        "0101010101010101010101010101010101010101010101010101010101010101",
		PubKey:    testAlice,
		Kind:      nostr.KindTextNote,
		CreatedAt: nostr.Now(),
	}

	content := "cc nostr:" + npubBob + " and nostr:" + npubCarol + " on this"
	mentions := sys.ExtractMentions(context.Background(), content, parent)

	require.Equal(t, []string{testAlice, testBob, testCarol}, mentions)
}

func TestExtractMentionsDeduplicatesParentAuthor(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	npubAlice, _ := nip19.EncodePublicKey(testAlice)

	parent := &nostr.Event{
		ID:        "0202020202020202020202020202020202020202020202020202020202020202",
		PubKey:    testAlice,
		Kind:      nostr.KindTextNote,
		CreatedAt: nostr.Now(),
	}

	mentions := sys.ExtractMentions(context.Background(), "hi again nostr:"+npubAlice+" !", parent)
	require.Equal(t, []string{testAlice}, mentions)
}

func TestExtractMentionsIncludesParentParticipants(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	parent := &nostr.Event{
		ID:        "0303030303030303030303030303030303030303030303030303030303030303",
		PubKey:    testAlice,
		Kind:      nostr.KindTextNote,
		CreatedAt: nostr.Now(),
		Tags: nostr.Tags{
			{"p", testBob},
			{"p", testAlice}, // already present as author, must not repeat
			{"p", "notahexkey"},
		},
	}

	mentions := sys.ExtractMentions(context.Background(), "", parent)
	require.Equal(t, []string{testAlice, testBob}, mentions)
}

func TestExtractMentionsEventPointerWithEmbeddedAuthor(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	nevent := nip19.EncodePointer(nostr.EventPointer{
		ID:     "0404040404040404040404040404040404040404040404040404040404040404",
		Author: testCarol,
	})

	mentions := sys.ExtractMentions(context.Background(), "look at nostr:"+nevent+" wow", nil)
	require.Equal(t, []string{testCarol}, mentions)
}

func TestExtractMentionsEventPointerResolvedFromStore(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	referenced := nostr.Event{
		ID:        "0505050505050505050505050505050505050505050505050505050505050505",
		PubKey:    testBob,
		Kind:      nostr.KindTextNote,
		CreatedAt: nostr.Now(),
	}
	require.NoError(t, sys.StoreRelay.Publish(context.Background(), referenced))

	nevent := nip19.EncodePointer(nostr.EventPointer{ID: referenced.ID})

	mentions := sys.ExtractMentions(context.Background(), "re: nostr:"+nevent+" indeed", nil)
	require.Equal(t, []string{testBob}, mentions)
}

func TestExtractMentionsSkipsMalformedReferences(t *testing.T) {
	sys := NewSystem()
	defer sys.Close()

	npubBob, _ := nip19.EncodePublicKey(testBob)

	content := "bad nostr:npub1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqustak" +
		" but good nostr:" + npubBob + " anyway"
	mentions := sys.ExtractMentions(context.Background(), content, nil)

	require.Equal(t, []string{testBob}, mentions)
}
