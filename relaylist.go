package gossip

import (
	"context"
	"slices"

	"github.com/nbd-wtf/go-nostr"
)

// Relay is a single declared entry of a user's relay list, with the scope
// they declared for it.
type Relay struct {
	URL    string
	Inbox  bool
	Outbox bool
}

func (r Relay) Value() string { return r.URL }

type RelayURL string

func (r RelayURL) Value() string { return string(r) }

// RelayList is a user's relay list: the declared entries of their
// kind:10002 (or, for legacy users, the relay object embedded in their
// kind:3 content), with any known local cache relays for that user
// prepended.
type RelayList struct {
	PubKey string
	Event  *nostr.Event // nil when no kind:10002 was found
	Items  []Relay
}

// Read returns the URLs the user reads from, i.e. where events addressed to
// them should be delivered.
func (rl RelayList) Read() []string {
	urls := make([]string, 0, len(rl.Items))
	for _, r := range rl.Items {
		if r.Inbox {
			urls = append(urls, r.URL)
		}
	}
	return urls
}

// Write returns the URLs the user publishes to.
func (rl RelayList) Write() []string {
	urls := make([]string, 0, len(rl.Items))
	for _, r := range rl.Items {
		if r.Outbox {
			urls = append(urls, r.URL)
		}
	}
	return urls
}

// RelaySet is a user-curated named group of relays (kind:30002).
type RelaySet struct {
	ID   string
	Name string
	URLs []string
}

// FetchRelayList returns the relay list for a pubkey, from cache or the
// local store when possible, hitting the network otherwise. Failures yield
// an empty list, never an error: routing degrades to fewer relays.
func (sys *System) FetchRelayList(ctx context.Context, pubkey string) RelayList {
	gl, _ := fetchGenericList(sys, ctx, pubkey, nostr.KindRelayListMetadata, kind_10002, parseRelayFromKind10002, sys.RelayListCache, false)

	rl := RelayList{PubKey: pubkey, Event: gl.Event, Items: gl.Items}

	if len(rl.Items) == 0 {
		rl.Items = sys.fetchLegacyRelayList(ctx, pubkey)
	}

	// local cache relays known for this pubkey take priority for connection
	// ordering, so they go first, on both sides
	if known := sys.KnownCacheRelays(pubkey); len(known) > 0 {
		merged := make([]Relay, 0, len(known)+len(rl.Items))
		for _, u := range known {
			merged = append(merged, Relay{URL: u, Inbox: true, Outbox: true})
		}
		for _, r := range rl.Items {
			if slices.IndexFunc(merged, func(m Relay) bool { return m.URL == r.URL }) == -1 {
				merged = append(merged, r)
			}
		}
		rl.Items = merged
	}

	return rl
}

// fetchLegacyRelayList digs into kind:3 contents for the relay map that
// predates kind:10002.
func (sys *System) fetchLegacyRelayList(ctx context.Context, pubkey string) []Relay {
	events, _ := sys.StoreRelay.QuerySync(ctx, nostr.Filter{Kinds: []int{nostr.KindFollowList}, Authors: []string{pubkey}})
	if len(events) != 0 {
		return ParseRelaysFromContactList(events[0])
	}

	thunk := sys.replaceableLoaders[kind_3].Load(ctx, pubkey)
	evt, err := thunk()
	if err != nil {
		return nil
	}

	sys.StoreRelay.Publish(ctx, *evt)
	return ParseRelaysFromContactList(evt)
}

// FetchBlockedRelays returns the relays a user declared they never want to
// connect to (kind:10006), normalized.
func (sys *System) FetchBlockedRelays(ctx context.Context, pubkey string) []string {
	gl, _ := fetchGenericList(sys, ctx, pubkey, KindBlockedRelayList, kind_10006, parseRelayURL, sys.BlockedRelaysCache, false)
	urls := make([]string, 0, len(gl.Items))
	for _, item := range gl.Items {
		urls = append(urls, string(item))
	}
	return urls
}

// FetchRelaySets returns all the named relay groups a user maintains
// (kind:30002), one RelaySet per "d" identifier.
func (sys *System) FetchRelaySets(ctx context.Context, pubkey string) []RelaySet {
	gs, _ := fetchGenericSets(sys, ctx, pubkey, KindRelaySets, kind_30002, parseRelayURL, sys.RelaySetsCache)

	sets := make([]RelaySet, 0, len(gs.Sets))
	for _, evt := range gs.Events {
		id := evt.Tags.GetD()
		items, ok := gs.Sets[id]
		if !ok {
			continue
		}

		set := RelaySet{ID: id, Name: id, URLs: make([]string, 0, len(items))}
		if title := evt.Tags.Find("title"); title != nil {
			set.Name = title[1]
		}
		for _, item := range items {
			set.URLs = append(set.URLs, string(item))
		}
		sets = append(sets, set)
	}

	slices.SortFunc(sets, func(a, b RelaySet) int {
		if a.ID < b.ID {
			return -1
		} else if a.ID > b.ID {
			return 1
		}
		return 0
	})

	return sets
}

// ParseRelayList reads the declared relay entries out of a raw kind:10002
// event, normalized and deduplicated.
func ParseRelayList(evt *nostr.Event) RelayList {
	return RelayList{
		PubKey: evt.PubKey,
		Event:  evt,
		Items:  parseItemsFromEventTags(evt, parseRelayFromKind10002),
	}
}

func parseRelayFromKind10002(tag nostr.Tag) (rl Relay, ok bool) {
	if u := tag.Value(); u != "" && tag[0] == "r" {
		u := NormalizeRelayURL(u)
		if u == "" {
			return rl, false
		}

		relay := Relay{
			URL: u,
		}

		if len(tag) == 2 {
			relay.Inbox = true
			relay.Outbox = true
		} else if tag[2] == "write" {
			relay.Outbox = true
		} else if tag[2] == "read" {
			relay.Inbox = true
		}

		return relay, true
	}

	return rl, false
}

func parseRelayURL(tag nostr.Tag) (rl RelayURL, ok bool) {
	if u := tag.Value(); u != "" && tag[0] == "relay" {
		u := NormalizeRelayURL(u)
		if u == "" {
			return rl, false
		}
		return RelayURL(u), true
	}

	return rl, false
}

// ParseRelaysFromContactList handles the ancient practice of storing relays
// as a JSON object in the kind:3 content.
func ParseRelaysFromContactList(evt *nostr.Event) []Relay {
	type legacyItem struct {
		Read  bool `json:"read"`
		Write bool `json:"write"`
	}

	items := make(map[string]legacyItem, 20)
	if err := json.UnmarshalFromString(evt.Content, &items); err != nil {
		return nil
	}

	urls := make([]string, 0, len(items))
	for u := range items {
		urls = append(urls, u)
	}
	slices.Sort(urls)

	results := make([]Relay, 0, len(items))
	for _, u := range urls {
		item := items[u]

		normalized := NormalizeRelayURL(u)
		if normalized == "" {
			continue
		}

		relay := Relay{
			URL:    normalized,
			Inbox:  item.Read,
			Outbox: item.Write,
		}

		if slices.IndexFunc(results, func(r Relay) bool { return r.URL == relay.URL }) == -1 {
			results = append(results, relay)
		}
	}

	return results
}
