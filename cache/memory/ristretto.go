package cache_memory

import (
	"encoding/binary"
	"encoding/hex"
	"hash/fnv"
	"time"

	"github.com/dgraph-io/ristretto"
)

type RistrettoCache[V any] struct {
	Cache *ristretto.Cache[string, V]
}

// New32 creates a cache sized for max entries, keyed by 32-byte hex strings.
func New32[V any](max int64) *RistrettoCache[V] {
	cache, _ := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: max * 10,
		MaxCost:     max,
		BufferItems: 64,
		KeyToHash:   hashHexKey,
	})
	return &RistrettoCache[V]{Cache: cache}
}

func (s RistrettoCache[V]) Get(k string) (v V, ok bool) { return s.Cache.Get(k) }
func (s RistrettoCache[V]) Delete(k string)             { s.Cache.Del(k) }
func (s RistrettoCache[V]) Set(k string, v V) bool      { return s.Cache.Set(k, v, 1) }
func (s RistrettoCache[V]) SetWithTTL(k string, v V, d time.Duration) bool {
	return s.Cache.SetWithTTL(k, v, 1, d)
}

// hashHexKey takes the first 8 bytes of a hex key as the hash. Keys that are
// not hex (or too short) go through fnv instead.
func hashHexKey(key string) (uint64, uint64) {
	if len(key) >= 16 {
		if v, err := hex.DecodeString(key[0:16]); err == nil {
			return binary.BigEndian.Uint64(v), 0
		}
	}
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64(), 0
}
