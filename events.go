package gossip

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
)

// FetchEventByID tries to get an event from its hex id. It checks the local store
// first, then relays we have seen the event on before plus whatever hints are given,
// and finally falls back to general-purpose relays that are likely to have anything.
func (sys *System) FetchEventByID(ctx context.Context, id string, relayHints ...string) (*nostr.Event, error) {
	if !nostr.IsValid32ByteHex(id) {
		return nil, fmt.Errorf("invalid event id '%s'", id)
	}

	filter := nostr.Filter{IDs: []string{id}}

	// try to fetch in our internal eventstore first
	if res, _ := sys.StoreRelay.QuerySync(ctx, filter); len(res) != 0 {
		return res[0], nil
	}

	relays := make([]string, 0, 10)
	for _, hint := range relayHints {
		if url := NormalizeRelayURL(hint); url != "" {
			relays = appendUnique(relays, url)
		}
	}
	if seenAt, _ := sys.GetEventRelays(id); len(seenAt) > 0 {
		relays = appendUnique(relays, seenAt...)
	}
	relays = appendUnique(relays, sys.FallbackRelays.Next())

	fallback := make([]string, 0, 10)
	fallback = append(fallback, sys.JustIDRelays.URLs...)
	fallback = appendUnique(fallback, sys.FallbackRelays.Next())

	for _, attempt := range []struct {
		label  string
		relays []string
	}{
		{"fetchbyid", relays},
		{"fetchbyid-f", fallback},
	} {
		for ie := range sys.Pool.FetchMany(ctx, attempt.relays, filter, nostr.WithLabel(attempt.label)) {
			// ids are verified by the pool so the first match is the event
			sys.StoreRelay.Publish(ctx, *ie.Event)
			return ie.Event, nil
		}
	}

	return nil, fmt.Errorf("couldn't find event %s anywhere", id)
}

// FetchEventByPointer is like FetchEventByID, but takes relay and author hints from
// a parsed nevent pointer.
func (sys *System) FetchEventByPointer(ctx context.Context, pointer nostr.EventPointer) (*nostr.Event, error) {
	relayHints := pointer.Relays
	if pointer.Author != "" && nostr.IsValidPublicKey(pointer.Author) {
		relayHints = append(relayHints, sys.FetchOutboxRelays(ctx, pointer.Author, 2)...)
	}
	return sys.FetchEventByID(ctx, pointer.ID, relayHints...)
}
