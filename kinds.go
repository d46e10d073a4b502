package gossip

// Event kinds with routing-relevant semantics that the protocol library
// doesn't export.
const (
	// KindDiscussion is a NIP-7D thread root.
	KindDiscussion = 11

	// KindPublicMessage is a message delivered to the inboxes of the
	// pubkeys tagged on it instead of broadcast to followers.
	KindPublicMessage = 24

	// KindComment is a NIP-22 comment. Its root is carried on uppercase
	// tags ("E", "A", "K"), its immediate parent on lowercase ones.
	KindComment = 1111

	// KindBlockedRelayList is the NIP-51 list of relays a user refuses to
	// connect to.
	KindBlockedRelayList = 10006

	// KindRelaySets is the NIP-51 addressable kind holding user-curated
	// named groups of relays.
	KindRelaySets = 30002
)
