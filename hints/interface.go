package hints

import "github.com/nbd-wtf/go-nostr"

// HintKey labels the kind of evidence that ties a pubkey to a relay. Each
// kind carries a different weight when relays are ranked.
type HintKey int

const (
	LastFetchAttempt HintKey = iota
	MostRecentEventFetched
	LastInRelayList
	LastInHint
)

// BasePoints is the weight a hint of this kind contributes before decay.
// Attempts count against a relay since they may have failed; a successful
// fetch more than cancels that out. Relay list membership is the strongest
// signal, while loose hints (tags, nprofile, nevent, nip05) barely register.
func (hk HintKey) BasePoints() int64 {
	switch hk {
	case LastFetchAttempt:
		return -500
	case MostRecentEventFetched:
		return 700
	case LastInRelayList:
		return 350
	case LastInHint:
		return 20
	}
	return 0
}

func (hk HintKey) String() string {
	switch hk {
	case LastFetchAttempt:
		return "last_fetch_attempt"
	case MostRecentEventFetched:
		return "most_recent_event_fetched"
	case LastInRelayList:
		return "last_in_relay_list"
	case LastInHint:
		return "last_in_hint"
	}
	return "<unexpected>"
}

type RelayScores struct {
	Relay  string
	Scores [4]nostr.Timestamp
	Sum    int64
}

// HintsDB keeps track of scores for relays associated with pubkeys, so we
// can decide which relays to try when looking for events from someone.
type HintsDB interface {
	TopN(pubkey string, n int) []string
	Save(pubkey string, relay string, key HintKey, score nostr.Timestamp)
	PrintScores()
	GetDetailedScores(pubkey string, n int) []RelayScores
}
