package gossip

import (
	"context"
	"slices"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nostr-net/gossip/cache"
)

// this is similar to list.go and inherits code from that.

type GenericSets[I TagItemWithValue] struct {
	PubKey string         `json:"-"`
	Events []*nostr.Event `json:"-"`

	Sets map[string][]I
}

func fetchGenericSets[I TagItemWithValue](
	sys *System,
	ctx context.Context,
	pubkey string,
	actualKind int,
	index addressableIndex,
	parseTag func(nostr.Tag) (I, bool),
	cache cache.Cache32[GenericSets[I]],
) (fl GenericSets[I], fromInternal bool) {
	if cache != nil {
		if v, ok := cache.Get(pubkey); ok {
			return v, true
		}
	}

	v := GenericSets[I]{PubKey: pubkey}

	events, _ := sys.StoreRelay.QuerySync(ctx, nostr.Filter{Kinds: []int{actualKind}, Authors: []string{pubkey}})
	if len(events) != 0 {
		v.Events = events
		v.Sets = parseSetsFromEvents(events, parseTag)
		if cache != nil {
			cache.SetWithTTL(pubkey, v, listCacheTTL)
		}
		return v, true
	}

	thunk := sys.addressableLoaders[index].Load(ctx, pubkey)
	events, err := thunk()
	if err == nil {
		v.Events = events
		v.Sets = parseSetsFromEvents(events, parseTag)
		if cache != nil {
			cache.SetWithTTL(pubkey, v, listCacheTTL)
		}
		for _, evt := range events {
			sys.StoreRelay.Publish(ctx, *evt)
		}
	} else if cache != nil {
		cache.SetWithTTL(pubkey, v, emptyListCacheTTL)
	}

	return v, false
}

func parseSetsFromEvents[I TagItemWithValue](
	events []*nostr.Event,
	parseTag func(nostr.Tag) (I, bool),
) map[string][]I {
	sets := make(map[string][]I, len(events))
	for _, evt := range events {
		items := make([]I, 0, len(evt.Tags))
		for _, tag := range evt.Tags {
			item, ok := parseTag(tag)
			if ok {
				// check if this already exists before adding
				if slices.IndexFunc(items, func(i I) bool { return i.Value() == item.Value() }) == -1 {
					items = append(items, item)
				}
			}
		}
		sets[evt.Tags.GetD()] = items
	}
	return sets
}
