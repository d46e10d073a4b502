package gossip

import (
	"context"
	"encoding/hex"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/nbd-wtf/go-nostr"
)

const (
	pubkeyStreamLatestPrefix = byte('L')
	pubkeyStreamOldestPrefix = byte('O')
)

func makePubkeyStreamKey(prefix byte, pubkey string) []byte {
	key := make([]byte, 1+8)
	key[0] = prefix
	hex.Decode(key[1:], []byte(pubkey[0:16]))
	return key
}

// PlanAuthorsQuery splits a multi-author filter into one filter per relay, using each
// author's outbox relays, so a feed can be read from the places its authors actually
// publish to instead of from everywhere.
func (sys *System) PlanAuthorsQuery(
	ctx context.Context,
	filter nostr.Filter,
	maxRelaysPerAuthor int,
) (map[string]nostr.Filter, error) {
	n := len(filter.Authors)
	if n == 0 {
		return nil, fmt.Errorf("no authors in filter")
	}
	if maxRelaysPerAuthor <= 0 {
		maxRelaysPerAuthor = 2
	}

	relaysForPubkey := make(map[string][]string, n)
	mu := sync.Mutex{}

	wg := sync.WaitGroup{}
	wg.Add(n)
	for _, pubkey := range filter.Authors {
		go func(pubkey string) {
			defer wg.Done()
			relays := sys.FetchOutboxRelays(ctx, pubkey, maxRelaysPerAuthor)
			if len(relays) == 0 {
				return
			}
			mu.Lock()
			relaysForPubkey[pubkey] = relays
			mu.Unlock()
		}(pubkey)
	}
	wg.Wait()

	base := filter.Clone()
	base.Authors = nil

	filterForRelay := make(map[string]nostr.Filter, n)
	for pubkey, relays := range relaysForPubkey {
		for _, relay := range relays {
			flt, ok := filterForRelay[relay]
			if !ok {
				flt = base.Clone()
			}
			flt.Authors = append(flt.Authors, pubkey)
			filterForRelay[relay] = flt
		}
	}

	return filterForRelay, nil
}

// FetchAuthorsEvents fetches events from each author's outbox relays, grouping
// queries to the same relay, and returns them keyed by author.
func (sys *System) FetchAuthorsEvents(ctx context.Context, filter nostr.Filter) (map[string][]*nostr.Event, error) {
	filters, err := sys.PlanAuthorsQuery(ctx, filter, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to expand queries: %w", err)
	}

	results := make(map[string][]*nostr.Event)
	mu := sync.Mutex{}

	wg := sync.WaitGroup{}
	wg.Add(len(filters))
	for relayURL, filter := range filters {
		go func(relayURL string, filter nostr.Filter) {
			defer wg.Done()
			filter.Limit = filter.Limit * len(filter.Authors)
			for ie := range sys.Pool.FetchMany(ctx, []string{relayURL}, filter, nostr.WithLabel("authorevts")) {
				mu.Lock()
				results[ie.PubKey] = append(results[ie.PubKey], ie.Event)
				mu.Unlock()
			}
		}(relayURL, filter)
	}
	wg.Wait()

	return results, nil
}

// WatchAuthors starts listening for new events from the given pubkeys, taking into
// account their outbox relays. It returns a channel that emits events continuously.
// The events are fetched from the time of the last seen event for each pubkey
// (stored in the kvstore) onwards.
func (sys *System) WatchAuthors(
	ctx context.Context,
	pubkeys []string,
	kinds []int,
) (<-chan *nostr.Event, error) {
	events := make(chan *nostr.Event)

	active := atomic.Int32{}
	active.Add(int32(len(pubkeys)))

	// start a subscription for each relay group
	for _, pubkey := range pubkeys {
		if !nostr.IsValidPublicKey(pubkey) {
			if active.Add(-1) == 0 {
				close(events)
			}
			continue
		}

		relays := sys.FetchOutboxRelays(ctx, pubkey, 2)
		if len(relays) == 0 {
			if active.Add(-1) == 0 {
				close(events)
			}
			continue
		}

		latestKey := makePubkeyStreamKey(pubkeyStreamLatestPrefix, pubkey)
		latest := nostr.Timestamp(0)
		oldestKey := makePubkeyStreamKey(pubkeyStreamOldestPrefix, pubkey)
		oldest := nostr.Timestamp(0)

		serial := 0

		var since *nostr.Timestamp
		if data, _ := sys.KVStore.Get(latestKey); data != nil {
			latest = decodeTimestamp(data)
			since = &latest
		}
		if data, _ := sys.KVStore.Get(oldestKey); data != nil {
			oldest = decodeTimestamp(data)
		}
		if oldest == 0 {
			oldest = nostr.Now()
		}

		filter := nostr.Filter{
			Authors: []string{pubkey},
			Since:   since,
			Kinds:   kinds,
		}

		go func() {
			sub := sys.Pool.SubscribeMany(ctx, relays, filter, nostr.WithLabel("livefeed"))
			for evt := range sub {
				sys.StoreRelay.Publish(ctx, *evt.Event)
				if latest < evt.CreatedAt {
					latest = evt.CreatedAt
					serial++
					if serial%10 == 0 {
						sys.KVStore.Set(latestKey, encodeTimestamp(latest))
					}
				} else if oldest > evt.CreatedAt {
					oldest = evt.CreatedAt
					sys.KVStore.Set(oldestKey, encodeTimestamp(oldest))
				}

				events <- evt.Event
			}

			if active.Add(-1) == 0 {
				close(events)
			}
		}()
	}

	return events, nil
}

// FetchFeedPage fetches historical events from the given pubkeys in descending order
// starting from the given until timestamp. The limit argument is just a hint of how
// much content you want for the entire list, it isn't guaranteed that this quantity
// of events will be returned -- it could be more or less.
//
// It relies on the kvstore's latest and oldest markers in order to determine if we
// should go to relays to ask for events or if we should just return what we have
// stored locally.
func (sys *System) FetchFeedPage(
	ctx context.Context,
	pubkeys []string,
	kinds []int,
	until nostr.Timestamp,
	totalLimit int,
) ([]*nostr.Event, error) {
	limitPerKey := PerQueryLimitInBatch(totalLimit, len(pubkeys))
	events := make([]*nostr.Event, 0, len(pubkeys)*limitPerKey)
	mu := sync.Mutex{}

	wg := sync.WaitGroup{}
	wg.Add(len(pubkeys))

	for _, pubkey := range pubkeys {
		go func(pubkey string) {
			defer wg.Done()

			if !nostr.IsValidPublicKey(pubkey) {
				return
			}

			oldestKey := makePubkeyStreamKey(pubkeyStreamOldestPrefix, pubkey)
			var oldestTimestamp nostr.Timestamp

			if data, _ := sys.KVStore.Get(oldestKey); data != nil {
				oldestTimestamp = decodeTimestamp(data)
				if oldestTimestamp == 0 {
					oldestTimestamp = nostr.Now()
				}
			}

			filter := nostr.Filter{Authors: []string{pubkey}, Kinds: kinds}

			if until > oldestTimestamp {
				// we can use our local database
				filter.Until = &until
				filter.Limit = limitPerKey
				res, err := sys.StoreRelay.QuerySync(ctx, filter)
				if err == nil && len(res) >= limitPerKey {
					// we got enough from the local store
					mu.Lock()
					events = append(events, res...)
					mu.Unlock()
					return
				}
			}

			// if we didn't get enough events from the local database
			// OR if we are requesting very old stuff
			// then we will query relays -- always with Until set to our oldestTimestamp+1
			// (so we don't get events we already have)
			relays := sys.FetchOutboxRelays(ctx, pubkey, 2)
			if len(relays) == 0 {
				return
			}
			fUntil := oldestTimestamp + 1
			filter.Until = &fUntil
			filter.Since = nil
			for ie := range sys.Pool.FetchMany(ctx, relays, filter, nostr.WithLabel("feedpage")) {
				sys.StoreRelay.Publish(ctx, *ie.Event)

				// we shouldn't need this check here, but against rogue relays we'll do it
				if ie.Event.CreatedAt < oldestTimestamp {
					oldestTimestamp = ie.Event.CreatedAt
				}

				// events newer than the requested offset only go to the local store (above),
				// not to the results
				if ie.Event.CreatedAt < until {
					mu.Lock()
					events = append(events, ie.Event)
					mu.Unlock()
				}
			}
			sys.KVStore.Set(oldestKey, encodeTimestamp(oldestTimestamp))
		}(pubkey)
	}

	wg.Wait()
	slices.SortFunc(events, nostr.CompareEventPtrReverse)

	return events, nil
}
