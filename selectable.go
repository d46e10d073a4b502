package gossip

import (
	"context"
	"slices"
)

// BuildSelectableRelays assembles the full pool of relays a user may choose for a
// publish action: their own write relays (or the well-known defaults), favorites,
// everything referenced by their relay sets and, when the action has context, the
// contextual relays plus any explicitly requested ones. Everything is normalized on
// the way in and blocked relays are removed at the end.
func (sys *System) BuildSelectableRelays(ctx context.Context, req PublishRequest) []string {
	selectable := make([]string, 0, 12)
	add := func(urls ...string) {
		for _, raw := range urls {
			if url := NormalizeRelayURL(raw); url != "" {
				selectable = appendUnique(selectable, url)
			}
		}
	}

	if len(req.UserWriteRelays) > 0 {
		add(req.UserWriteRelays...)
	} else {
		add(DefaultWriteRelays...)
	}

	add(req.FavoriteRelays...)
	for _, set := range req.RelaySets {
		add(set.URLs...)
	}

	if req.ParentEvent != nil || req.PublicMessage || len(req.OpenFrom) > 0 {
		add(sys.CollectContextualRelays(ctx, req)...)
		add(req.OpenFrom...)
	}

	// the user's local relays are normally already in their write relays, but a
	// relay-list refresh may race with this call and momentarily drop them
	add(sys.cacheRelays...)

	return dropBlockedRelays(selectable, req.BlockedRelays)
}

// dropBlockedRelays removes every relay the user has blocked. This runs as the last
// step of both the selectable and the selected builders, no rule bypasses it.
func dropBlockedRelays(urls []string, blocked []string) []string {
	if len(blocked) == 0 {
		return urls
	}

	blocked = NormalizeRelayURLs(blocked)
	result := make([]string, 0, len(urls))
	for _, url := range urls {
		if slices.Contains(blocked, url) {
			continue
		}
		result = append(result, url)
	}
	return result
}
