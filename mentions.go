package gossip

import (
	"context"
	"sync"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip27"
)

// ExtractMentions returns the pubkeys mentioned by an event draft, in a stable order:
// the author of the event being replied to first, then profiles referenced in the
// content, then whoever was already tagged in the parent. Mentions of events count as
// mentions of their authors, fetching the event when the author isn't embedded in the
// code. Anything that can't be resolved is skipped.
func (sys *System) ExtractMentions(ctx context.Context, content string, parent *nostr.Event) []string {
	// each pointer in the content gets a slot so failed resolutions don't disturb ordering
	slots := make([]string, 0, 4)
	type eventToResolve struct {
		slot    int
		pointer nostr.EventPointer
	}
	toResolve := make([]eventToResolve, 0, 2)

	for block := range nip27.Parse(content) {
		switch pointer := block.Pointer.(type) {
		case nostr.ProfilePointer:
			slots = append(slots, pointer.PublicKey)
		case nostr.EntityPointer:
			slots = append(slots, pointer.PublicKey)
		case nostr.EventPointer:
			if nostr.IsValidPublicKey(pointer.Author) {
				// nevent codes may carry the author, in which case there is nothing to fetch
				slots = append(slots, pointer.Author)
			} else {
				slots = append(slots, "")
				toResolve = append(toResolve, eventToResolve{len(slots) - 1, pointer})
			}
		}
	}

	if len(toResolve) > 0 {
		wg := sync.WaitGroup{}
		wg.Add(len(toResolve))
		for _, r := range toResolve {
			go func(r eventToResolve) {
				defer wg.Done()
				evt, err := sys.FetchEventByID(ctx, r.pointer.ID, r.pointer.Relays...)
				if err != nil {
					return
				}
				slots[r.slot] = evt.PubKey
			}(r)
		}
		wg.Wait()
	}

	mentions := make([]string, 0, len(slots)+4)

	if parent != nil && nostr.IsValidPublicKey(parent.PubKey) {
		mentions = append(mentions, parent.PubKey)
	}

	for _, pk := range slots {
		if nostr.IsValidPublicKey(pk) {
			mentions = appendUnique(mentions, pk)
		}
	}

	// people already tagged in the parent stay in the conversation
	if parent != nil {
		for _, tag := range parent.Tags {
			if len(tag) >= 2 && tag[0] == "p" && nostr.IsValidPublicKey(tag[1]) {
				mentions = appendUnique(mentions, tag[1])
			}
		}
	}

	return mentions
}
