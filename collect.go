package gossip

import (
	"context"
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// gatherPartial runs every fetch concurrently and flattens whatever succeeded,
// keeping input order and dropping duplicates. A failed fetch contributes nothing:
// one dead lookup must not abort a whole collection round.
func gatherPartial(fetches []func() ([]string, error)) []string {
	results := make([][]string, len(fetches))

	wg := sync.WaitGroup{}
	wg.Add(len(fetches))
	for i, fetch := range fetches {
		go func(i int, fetch func() ([]string, error)) {
			defer wg.Done()
			if urls, err := fetch(); err == nil {
				results[i] = urls
			}
		}(i, fetch)
	}
	wg.Wait()

	flat := make([]string, 0, len(fetches)*3)
	for _, urls := range results {
		flat = appendUnique(flat, urls...)
	}
	return flat
}

// ownLocalExemptions is the set of relays we consider the acting user's own for the
// purposes of local-relay filtering.
func (sys *System) ownLocalExemptions(req PublishRequest) []string {
	own := make([]string, 0, len(req.UserWriteRelays)+len(req.UserReadRelays)+len(sys.cacheRelays))
	own = append(own, req.UserWriteRelays...)
	own = append(own, req.UserReadRelays...)
	own = NormalizeRelayURLs(own)
	own = appendUnique(own, sys.cacheRelays...)
	return own
}

// eventHintRelays returns the relays an event is known to live on: wherever we have
// seen it before, plus relay hints and thread pointers carried on its tags.
func (sys *System) eventHintRelays(evt *nostr.Event) []string {
	relays := make([]string, 0, 4)

	if seenAt, _ := sys.GetEventRelays(evt.ID); len(seenAt) > 0 {
		relays = appendUnique(relays, NormalizeRelayURLs(seenAt)...)
	}

	for _, tag := range evt.Tags {
		if len(tag) < 2 || (tag[0] != "e" && tag[0] != "E" && tag[0] != "q") {
			continue
		}
		if len(tag) >= 3 {
			if url := NormalizeRelayURL(tag[2]); url != "" {
				relays = appendUnique(relays, url)
			}
		}
		// the referenced event may have been seen around here too
		if nostr.IsValid32ByteHex(tag[1]) {
			if seenAt, _ := sys.GetEventRelays(tag[1]); len(seenAt) > 0 {
				relays = appendUnique(relays, NormalizeRelayURLs(seenAt)...)
			}
		}
	}

	return relays
}

// CollectContextualRelays gathers relays that are relevant to a publish action but
// are not the acting user's own: the parent author's inbox, wherever the parent event
// was seen, and the relay lists of everyone mentioned. It returns nothing for a plain
// new post, which has no context to draw from.
func (sys *System) CollectContextualRelays(ctx context.Context, req PublishRequest) []string {
	publicMessage := isPublicMessageAction(req)
	if req.ParentEvent == nil && !publicMessage {
		return nil
	}

	own := sys.ownLocalExemptions(req)
	fetches := make([]func() ([]string, error), 0, 8)

	if parent := req.ParentEvent; parent != nil {
		fetches = append(fetches, func() ([]string, error) {
			// the parent author reads replies on their inbox relays; a handful is
			// enough, except for a public message, which must reach every inbox
			// its recipient reads
			relays := sys.FetchRelayList(ctx, parent.PubKey).Read()
			if !publicMessage && len(relays) > 4 {
				relays = relays[0:4]
			}
			return dropForeignLocalRelays(relays, own), nil
		})

		fetches = append(fetches, func() ([]string, error) {
			return sys.eventHintRelays(parent), nil
		})
	}

	// everyone mentioned gets their relay list consulted: inbox relays when the
	// message is delivered to them, outbox relays when they're part of a thread
	// others will read
	for _, pubkey := range sys.ExtractMentions(ctx, req.Content, req.ParentEvent) {
		if pubkey == req.UserPubKey {
			continue
		}

		fetches = append(fetches, func() ([]string, error) {
			rl := sys.FetchRelayList(ctx, pubkey)
			var relays []string
			if publicMessage {
				relays = rl.Read()
			} else {
				relays = rl.Write()
			}
			return dropForeignLocalRelays(relays, own), nil
		})
	}

	return gatherPartial(fetches)
}
