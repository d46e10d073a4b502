package gossip

import (
	"context"

	"github.com/fiatjaf/eventstore"
	"github.com/fiatjaf/eventstore/slicestore"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nostr-net/gossip/cache"
	cache_memory "github.com/nostr-net/gossip/cache/memory"
	"github.com/nostr-net/gossip/hints"
	hints_memory "github.com/nostr-net/gossip/hints/memory"
	"github.com/nostr-net/gossip/kvstore"
	kvstore_memory "github.com/nostr-net/gossip/kvstore/memory"
)

var (
	// DefaultWriteRelays are used when a user has no write relays declared.
	DefaultWriteRelays = []string{
		"wss://relay.damus.io",
		"wss://nos.lol",
		"wss://relay.primal.net",
		"wss://relay.nostr.band",
	}

	// DefaultRelayListRelays are indexers known to carry kind:10002 events
	// for a large portion of the network.
	DefaultRelayListRelays = []string{
		"wss://purplepag.es",
		"wss://user.kindpag.es",
		"wss://relay.nos.social",
	}

	// DefaultJustIDRelays can answer queries for bare event ids.
	DefaultJustIDRelays = []string{
		"wss://cache2.primal.net/v1",
		"wss://relay.nostr.band",
	}
)

// System aggregates the caches, stores and network pool that relay routing
// decisions are made from. Create it once with NewSystem and share it.
type System struct {
	RelayListCache     cache.Cache32[GenericList[Relay]]
	RelaySetsCache     cache.Cache32[GenericSets[RelayURL]]
	BlockedRelaysCache cache.Cache32[GenericList[RelayURL]]

	Pool            *nostr.SimplePool
	RelayListRelays *RelayStream
	FallbackRelays  *RelayStream
	JustIDRelays    *RelayStream
	Hints           hints.HintsDB
	Store           eventstore.Store
	StoreRelay      nostr.RelayStore
	KVStore         kvstore.KVStore

	cacheRelays []string
	poolOptions []nostr.PoolOption

	replaceableLoaders []*dataloader.Loader[string, *nostr.Event]
	addressableLoaders []*dataloader.Loader[string, []*nostr.Event]
}

type SystemModifier func(sys *System)

// NewSystem fills a System with sane defaults: in-memory caches, hints and
// key-value store, a slicestore-backed local event store and a SimplePool
// wired to feed the hint and event-relay trackers. Pass modifiers to replace
// any of those.
func NewSystem(mods ...SystemModifier) *System {
	sys := &System{
		RelayListCache:     cache_memory.New32[GenericList[Relay]](1000),
		RelaySetsCache:     cache_memory.New32[GenericSets[RelayURL]](1000),
		BlockedRelaysCache: cache_memory.New32[GenericList[RelayURL]](1000),
		RelayListRelays:    NewRelayStream(DefaultRelayListRelays...),
		FallbackRelays:     NewRelayStream(DefaultWriteRelays...),
		JustIDRelays:       NewRelayStream(DefaultJustIDRelays...),
		Hints:              hints_memory.NewHintDB(),
	}

	for _, mod := range mods {
		mod(sys)
	}

	if sys.KVStore == nil {
		sys.KVStore = kvstore_memory.NewStore()
	}

	if sys.Pool == nil {
		opts := append([]nostr.PoolOption{
			nostr.WithEventMiddleware(sys.TrackEventHintsAndRelays),
			nostr.WithDuplicateMiddleware(sys.TrackEventRelaysD),
			nostr.WithPenaltyBox(),
		}, sys.poolOptions...)
		sys.Pool = nostr.NewSimplePool(context.Background(), opts...)
	}

	if sys.Store == nil {
		store := &slicestore.SliceStore{}
		store.Init()
		sys.Store = store
	}
	sys.StoreRelay = eventstore.RelayWrapper{Store: sys.Store}

	sys.initializeReplaceableDataloaders()
	sys.initializeAddressableDataloaders()

	return sys
}

func (sys *System) Close() {
	if sys.KVStore != nil {
		sys.KVStore.Close()
	}
	if sys.Store != nil {
		sys.Store.Close()
	}
}

// CacheRelays returns the local relays configured as belonging to the acting
// user, already normalized.
func (sys *System) CacheRelays() []string { return sys.cacheRelays }

func WithHintsDB(hdb hints.HintsDB) SystemModifier {
	return func(sys *System) {
		sys.Hints = hdb
	}
}

func WithKVStore(store kvstore.KVStore) SystemModifier {
	return func(sys *System) {
		sys.KVStore = store
	}
}

func WithStore(store eventstore.Store) SystemModifier {
	return func(sys *System) {
		sys.Store = store
	}
}

func WithRelayListRelays(list []string) SystemModifier {
	return func(sys *System) {
		sys.RelayListRelays = NewRelayStream(list...)
	}
}

func WithFallbackRelays(list []string) SystemModifier {
	return func(sys *System) {
		sys.FallbackRelays = NewRelayStream(list...)
	}
}

// WithCacheRelays declares the acting user's own local-network relays. They
// are exempt from foreign-local filtering and always appended to selections.
func WithCacheRelays(list []string) SystemModifier {
	return func(sys *System) {
		sys.cacheRelays = NormalizeRelayURLs(list)
	}
}

func WithPoolOptions(opts ...nostr.PoolOption) SystemModifier {
	return func(sys *System) {
		sys.poolOptions = opts
	}
}
