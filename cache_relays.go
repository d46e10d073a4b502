package gossip

import (
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nostr-net/gossip/kvstore"
)

const cacheRelayPrefix = byte('c')

func makeCacheRelayKey(pubkey string) []byte {
	// format: 'c' + 32 bytes of pubkey
	key := make([]byte, 1+32)
	key[0] = cacheRelayPrefix
	hex.Decode(key[1:], []byte(pubkey))
	return key
}

// RegisterCacheRelays records local-network relays announced as carrying events for
// the given pubkey. These relays take priority when that pubkey's relay list is
// assembled, but they are never shared with third parties as routing targets.
func (sys *System) RegisterCacheRelays(pubkey string, urls ...string) error {
	if !nostr.IsValidPublicKey(pubkey) {
		return fmt.Errorf("invalid public key '%s'", pubkey)
	}

	urls = NormalizeRelayURLs(urls)
	if len(urls) == 0 {
		return nil
	}

	key := makeCacheRelayKey(pubkey)
	return sys.KVStore.Update(key, func(data []byte) ([]byte, error) {
		var relays []string
		if data != nil {
			relays = decodeRelayList(data)
		}

		changed := false
		for _, url := range urls {
			if !slices.Contains(relays, url) {
				relays = append(relays, url)
				changed = true
			}
		}
		if !changed {
			return nil, kvstore.NoOp
		}

		return encodeRelayList(relays), nil
	})
}

// UnregisterCacheRelays removes previously registered cache relays for a pubkey.
// With no urls it removes the entire record.
func (sys *System) UnregisterCacheRelays(pubkey string, urls ...string) error {
	if !nostr.IsValidPublicKey(pubkey) {
		return fmt.Errorf("invalid public key '%s'", pubkey)
	}

	key := makeCacheRelayKey(pubkey)
	if len(urls) == 0 {
		return sys.KVStore.Delete(key)
	}

	urls = NormalizeRelayURLs(urls)
	return sys.KVStore.Update(key, func(data []byte) ([]byte, error) {
		if data == nil {
			return nil, kvstore.NoOp
		}

		relays := decodeRelayList(data)
		kept := relays[:0]
		for _, relay := range relays {
			if !slices.Contains(urls, relay) {
				kept = append(kept, relay)
			}
		}
		if len(kept) == len(relays) {
			return nil, kvstore.NoOp
		}
		if len(kept) == 0 {
			return nil, nil // delete the record entirely
		}

		return encodeRelayList(kept), nil
	})
}

// KnownCacheRelays returns the cache relays registered for a pubkey, if any.
func (sys *System) KnownCacheRelays(pubkey string) []string {
	if !nostr.IsValidPublicKey(pubkey) {
		return nil
	}

	data, err := sys.KVStore.Get(makeCacheRelayKey(pubkey))
	if err != nil || data == nil {
		return nil
	}

	return decodeRelayList(data)
}
