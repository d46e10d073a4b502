package gossip

import "github.com/nbd-wtf/go-nostr"

// PublishRequest carries everything the relay selection engine needs to know about an
// event that is about to be composed or published: the acting user's relay
// configuration plus whatever context the action has (the event being replied to, the
// draft content, explicitly requested relays).
//
// It is built fresh for each action and never stored.
type PublishRequest struct {
	// UserPubKey is the acting user. Mentions of this key never contribute relays.
	UserPubKey string

	// UserWriteRelays and UserReadRelays are the user's own relay list, as the caller
	// currently knows it. When UserWriteRelays is empty a fixed list of well-known
	// relays takes its place.
	UserWriteRelays []string
	UserReadRelays  []string

	// FavoriteRelays and RelaySets are user-curated groups that are always offered as
	// candidates.
	FavoriteRelays []string
	RelaySets      []RelaySet

	// BlockedRelays are never selected nor suggested. If nil (as opposed to empty),
	// the engine fetches the user's blocked-relay list itself.
	BlockedRelays []string

	// ParentEvent is the event being replied to, if any.
	ParentEvent *nostr.Event

	// PublicMessage marks the action as a message delivered to the mentioned
	// recipients' inboxes instead of broadcast to the author's outbox.
	PublicMessage bool

	// Content is the draft text, scanned for profile and event mentions.
	Content string

	// OpenFrom overrides the selection entirely: when non-empty these relays (and
	// only these) are pre-selected.
	OpenFrom []string
}

// SelectionResult is what the engine answers: the full candidate pool, the subset
// that should start out checked, and a short human-readable summary of the latter.
type SelectionResult struct {
	SelectableRelays []string
	SelectedRelays   []string
	Description      string
}
