package gossip

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/nbd-wtf/go-nostr"
)

var kvStoreLastFetchPrefix = byte('f')

func makeLastFetchKey(kind int, pubkey string) []byte {
	buf := make([]byte, 1+5+32)
	buf[0] = kvStoreLastFetchPrefix
	binary.LittleEndian.PutUint32(buf[1:], uint32(kind))
	hex.Decode(buf[5:], []byte(pubkey))
	return buf
}

// shouldAttemptFetch checks the kvstore for the last time we tried to fetch a
// kind+pubkey combination and refuses to try again if that was too recent.
// when it says yes it also registers the current attempt, so callers don't have to.
func (sys *System) shouldAttemptFetch(kind int, pubkey string) bool {
	lastFetchKey := makeLastFetchKey(kind, pubkey)
	lastFetchData, _ := sys.KVStore.Get(lastFetchKey)
	if len(lastFetchData) == 4 && nostr.Now()-decodeTimestamp(lastFetchData) < 60*60 {
		return false
	}

	// register this attempt even before we know if it will succeed
	// (if it fails we won't try again for an hour, if it succeeds the result will be in the local store)
	sys.KVStore.Set(lastFetchKey, encodeTimestamp(nostr.Now()))
	return true
}

// encodeTimestamp encodes a unix timestamp as 4 bytes
func encodeTimestamp(t nostr.Timestamp) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(t))
	return b
}

// decodeTimestamp decodes a 4-byte timestamp into unix seconds
func decodeTimestamp(b []byte) nostr.Timestamp {
	return nostr.Timestamp(binary.BigEndian.Uint32(b))
}
