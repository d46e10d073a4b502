package gossip

import (
	"context"
	"strconv"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip22"
)

// a selectionRule decides whether it applies to a publish action and, if so, which
// relays start out selected. Rules are evaluated top to bottom and the first match
// wins, so their order in the table is part of the contract.
type selectionRule struct {
	name    string
	when    func(*System, context.Context, PublishRequest) bool
	resolve func(*System, context.Context, PublishRequest) []string
}

var selectionRules = []selectionRule{
	{"explicit", whenOpenFrom, resolveOpenFrom},
	{"discussion", whenDiscussionReply, resolveDiscussionRelay},
	{"public-message", whenPublicMessage, resolvePublicMessageRelays},
	{"reply", whenReply, resolveReplyRelays},
	{"default", whenAlways, resolveOwnWriteRelays},
}

// ResolveSelectedRelays computes which relays should start out checked for a publish
// action, by running the action through the rule table. Whatever the rule says, the
// user's local relays are appended afterwards and blocked relays removed.
func (sys *System) ResolveSelectedRelays(ctx context.Context, req PublishRequest) []string {
	var selected []string
	for _, rule := range selectionRules {
		if rule.when(sys, ctx, req) {
			selected = rule.resolve(sys, ctx, req)
			break
		}
	}

	// local relays are always selected so the event reaches the local network no
	// matter which rule fired
	selected = appendUnique(selected, sys.cacheRelays...)

	return dropBlockedRelays(selected, req.BlockedRelays)
}

func whenOpenFrom(_ *System, _ context.Context, req PublishRequest) bool {
	return len(req.OpenFrom) > 0
}

func resolveOpenFrom(_ *System, _ context.Context, req PublishRequest) []string {
	return NormalizeRelayURLs(req.OpenFrom)
}

// whenDiscussionReply matches replies inside a discussion thread: either directly to
// the discussion root or to a comment whose root is a discussion.
func whenDiscussionReply(_ *System, _ context.Context, req PublishRequest) bool {
	parent := req.ParentEvent
	if parent == nil {
		return false
	}
	if parent.Kind == KindDiscussion {
		return true
	}
	if parent.Kind == KindComment {
		if k := parent.Tags.Find("K"); k != nil && k[1] == strconv.Itoa(KindDiscussion) {
			return true
		}
	}
	return false
}

// resolveDiscussionRelay picks the one relay the thread lives on. Replies inside a
// discussion deliberately go to a single relay instead of being broadcast: the thread
// only stays readable as a whole where all of it is.
func resolveDiscussionRelay(sys *System, _ context.Context, req PublishRequest) []string {
	parent := req.ParentEvent

	if parent.Kind == KindComment {
		// comments point at their thread root and usually carry a relay hint there
		if root, ok := nip22.GetThreadRoot(parent.Tags).(nostr.EventPointer); ok {
			for _, hint := range root.Relays {
				if url := NormalizeRelayURL(hint); url != "" {
					return []string{url}
				}
			}
			// no hint on the tag, but we may have seen the root somewhere
			if seenAt, _ := sys.GetEventRelays(root.ID); len(seenAt) > 0 {
				if url := NormalizeRelayURL(seenAt[0]); url != "" {
					return []string{url}
				}
			}
		}
		return nil
	}

	// replying to the discussion root itself: use wherever we discovered it
	if seenAt, _ := sys.GetEventRelays(parent.ID); len(seenAt) > 0 {
		if url := NormalizeRelayURL(seenAt[0]); url != "" {
			return []string{url}
		}
	}
	return nil
}

// isPublicMessageAction reports whether a publish action addresses recipients
// directly: either flagged as a public message or replying to one. Selection and
// collection must agree on this, otherwise a reply to a public message could be
// routed to inboxes that were never collected.
func isPublicMessageAction(req PublishRequest) bool {
	return req.PublicMessage || (req.ParentEvent != nil && req.ParentEvent.Kind == KindPublicMessage)
}

func whenPublicMessage(_ *System, _ context.Context, req PublishRequest) bool {
	return isPublicMessageAction(req)
}

// resolvePublicMessageRelays targets the recipients' inboxes: the sender's own write
// relays plus the read relays of everyone addressed. When replying to an existing
// public message the addressee is its sender, so their read relays are used directly.
func resolvePublicMessageRelays(sys *System, ctx context.Context, req PublishRequest) []string {
	selected := sys.ownWriteRelays(req)
	own := sys.ownLocalExemptions(req)

	if parent := req.ParentEvent; parent != nil && parent.Kind == KindPublicMessage {
		relays := sys.FetchRelayList(ctx, parent.PubKey).Read()
		return appendUnique(selected, dropForeignLocalRelays(relays, own)...)
	}

	fetches := make([]func() ([]string, error), 0, 4)
	for _, pubkey := range sys.ExtractMentions(ctx, req.Content, req.ParentEvent) {
		if pubkey == req.UserPubKey {
			continue
		}
		fetches = append(fetches, func() ([]string, error) {
			return dropForeignLocalRelays(sys.FetchRelayList(ctx, pubkey).Read(), own), nil
		})
	}

	return appendUnique(selected, gatherPartial(fetches)...)
}

func whenReply(_ *System, _ context.Context, req PublishRequest) bool {
	return req.ParentEvent != nil
}

// resolveReplyRelays broadcasts a reply from the user's own write relays plus the
// write relays of everyone mentioned, so the thread shows up where its participants
// publish.
func resolveReplyRelays(sys *System, ctx context.Context, req PublishRequest) []string {
	selected := sys.ownWriteRelays(req)
	own := sys.ownLocalExemptions(req)

	fetches := make([]func() ([]string, error), 0, 4)
	for _, pubkey := range sys.ExtractMentions(ctx, req.Content, req.ParentEvent) {
		if pubkey == req.UserPubKey {
			continue
		}
		fetches = append(fetches, func() ([]string, error) {
			return dropForeignLocalRelays(sys.FetchRelayList(ctx, pubkey).Write(), own), nil
		})
	}

	return appendUnique(selected, gatherPartial(fetches)...)
}

func whenAlways(_ *System, _ context.Context, _ PublishRequest) bool {
	return true
}

func resolveOwnWriteRelays(sys *System, _ context.Context, req PublishRequest) []string {
	return sys.ownWriteRelays(req)
}

// ownWriteRelays is the base selection every broadcast rule starts from.
func (sys *System) ownWriteRelays(req PublishRequest) []string {
	if relays := NormalizeRelayURLs(req.UserWriteRelays); len(relays) > 0 {
		return relays
	}
	out := make([]string, len(DefaultWriteRelays))
	copy(out, DefaultWriteRelays)
	return out
}
