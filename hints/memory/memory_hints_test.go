package memory

import (
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nostr-net/gossip/hints"
	"github.com/stretchr/testify/require"
)

func TestHintDBScoring(t *testing.T) {
	hdb := NewHintDB()

	const key1 = "0000000000000000000000000000000000000000000000000000000000000001"
	const key2 = "0000000000000000000000000000000000000000000000000000000000000002"
	const key3 = "0000000000000000000000000000000000000000000000000000000000000003"
	const key4 = "0000000000000000000000000000000000000000000000000000000000000004"
	const relayA = "wss://aaa.com"
	const relayB = "wss://bbb.net"
	const relayC = "wss://ccc.org"

	hour := nostr.Timestamp((time.Hour).Seconds())
	day := hour * 24

	// key1: a relay list membership beats older scattered hints
	hdb.Save(key1, relayA, hints.LastInHint, nostr.Now()-60*hour)
	hdb.Save(key1, relayB, hints.LastInRelayList, nostr.Now()-day*10)
	hdb.Save(key1, relayB, hints.LastInHint, nostr.Now()-day*30)
	hdb.Save(key1, relayA, hints.LastInHint, nostr.Now()-hour*6)

	require.Equal(t, []string{relayB, relayA}, hdb.TopN(key1, 3))

	// a failed fetch attempt pushes a relay down
	hdb.Save(key1, relayA, hints.LastFetchAttempt, nostr.Now()-5*hour)
	hdb.Save(key1, relayC, hints.LastInHint, nostr.Now()-5*hour)

	require.Equal(t, []string{relayB, relayC, relayA}, hdb.TopN(key1, 3))

	hdb.Save(key1, relayA, hints.LastInHint, nostr.Now()-1*hour)
	hdb.Save(key1, relayC, hints.LastFetchAttempt, nostr.Now()-5*hour)

	require.Equal(t, []string{relayB, relayA, relayC}, hdb.TopN(key1, 3))

	hdb.Save(key1, relayA, hints.MostRecentEventFetched, nostr.Now()-day*60)

	require.Equal(t, []string{relayB, relayA, relayC}, hdb.TopN(key1, 3))

	// key2: an old relay list against one recent hint
	hdb.Save(key2, relayA, hints.LastInRelayList, nostr.Now()-day*25)
	hdb.Save(key2, relayB, hints.LastInRelayList, nostr.Now()-day*25)
	hdb.Save(key2, relayC, hints.LastInHint, nostr.Now()-4*hour)

	require.Equal(t, []string{relayC, relayA, relayB}, hdb.TopN(key2, 3))

	// key3: no relay list at all, only tag hints
	hdb.Save(key3, relayA, hints.LastInHint, nostr.Now()-day*2)
	hdb.Save(key3, relayB, hints.LastInHint, nostr.Now()-day)
	hdb.Save(key3, relayB, hints.LastInHint, nostr.Now()-day)
	require.Equal(t, []string{relayB, relayA}, hdb.TopN(key3, 3))

	// fetches succeed on A with fresh events, B only has old ones
	hdb.Save(key3, relayA, hints.LastFetchAttempt, nostr.Now()-5*hour)
	hdb.Save(key3, relayA, hints.MostRecentEventFetched, nostr.Now()-day)
	hdb.Save(key3, relayB, hints.LastFetchAttempt, nostr.Now()-5*hour)
	hdb.Save(key3, relayB, hints.MostRecentEventFetched, nostr.Now()-day*30)
	require.Equal(t, []string{relayA, relayB}, hdb.TopN(key3, 3))

	// key4: banned from the big relays, moved to a personal one; hints about
	// the new relay spread through tags only
	banDate := nostr.Now() - day*10
	hdb.Save(key4, relayA, hints.LastInRelayList, banDate)
	hdb.Save(key4, relayA, hints.LastFetchAttempt, banDate)
	hdb.Save(key4, relayA, hints.MostRecentEventFetched, banDate)
	hdb.Save(key4, relayA, hints.LastInHint, banDate+12*day)
	hdb.Save(key4, relayB, hints.LastInRelayList, banDate)
	hdb.Save(key4, relayB, hints.LastFetchAttempt, banDate)
	hdb.Save(key4, relayB, hints.MostRecentEventFetched, banDate)
	hdb.Save(key4, relayB, hints.LastInHint, banDate+2*day)
	require.Equal(t, []string{relayA, relayB}, hdb.TopN(key4, 3))

	hdb.Save(key4, relayC, hints.LastInHint, nostr.Now()-3*day)

	// one tag hint is enough to get the new relay into the map
	require.Equal(t, []string{relayA, relayB, relayC}, hdb.TopN(key4, 3))

	// fetching from the old relays yields nothing new, so the new relay wins
	hdb.Save(key4, relayA, hints.LastFetchAttempt, nostr.Now()-5*hour)
	hdb.Save(key4, relayB, hints.LastFetchAttempt, nostr.Now()-5*hour)

	require.Equal(t, []string{relayC, relayA, relayB}, hdb.TopN(key4, 3))

	// old relays letting the odd event through still outweigh a bare hint
	hdb.Save(key4, relayA, hints.MostRecentEventFetched, nostr.Now()-5*hour)
	hdb.Save(key4, relayB, hints.MostRecentEventFetched, nostr.Now()-5*hour)
	require.Equal(t, []string{relayA, relayB, relayC}, hdb.TopN(key4, 3))

	// until the new relay shows up in an actual relay list
	hdb.Save(key4, relayC, hints.LastFetchAttempt, nostr.Now()-5*hour)
	hdb.Save(key4, relayC, hints.MostRecentEventFetched, nostr.Now()-6*hour)
	hdb.Save(key4, relayC, hints.LastInRelayList, nostr.Now()-6*hour)
	require.Equal(t, []string{relayC, relayA, relayB}, hdb.TopN(key4, 3))

	// unrelated keys are unaffected
	require.Equal(t, []string{relayC, relayA}, hdb.TopN(key2, 2))
	require.Equal(t, []string{relayB, relayA, relayC}, hdb.TopN(key1, 3))
	require.Equal(t, []string{relayA, relayB}, hdb.TopN(key3, 3))
}

func TestHintDBFutureTimestampsClamped(t *testing.T) {
	hdb := NewHintDB()

	const key = "00000000000000000000000000000000000000000000000000000000000000b1"

	// a timestamp from the future is stored as "right now", which still beats
	// a genuinely older hint but never poisons the score
	hdb.Save(key, "wss://past.example.com", hints.LastInHint, nostr.Now()-300)
	hdb.Save(key, "wss://future.example.com", hints.LastInHint, nostr.Now()+365*24*3600)

	scores := hdb.GetDetailedScores(key, 2)
	require.Len(t, scores, 2)
	require.Equal(t, "wss://future.example.com", scores[0].Relay)
	require.LessOrEqual(t, scores[0].Scores[hints.LastInHint], nostr.Now())
	require.Positive(t, scores[0].Sum)
}

func TestHintDBDetailedScores(t *testing.T) {
	hdb := NewHintDB()

	const key = "00000000000000000000000000000000000000000000000000000000000000aa"

	hdb.Save(key, "wss://aaa.com", hints.LastInRelayList, nostr.Now()-100)
	hdb.Save(key, "wss://bbb.net", hints.LastInHint, nostr.Now()-100)

	scores := hdb.GetDetailedScores(key, 10)
	require.Len(t, scores, 2)
	require.Equal(t, "wss://aaa.com", scores[0].Relay)
	require.Greater(t, scores[0].Sum, scores[1].Sum)
	require.NotZero(t, scores[0].Scores[hints.LastInRelayList])
}
