package gossip

import (
	"math"
	"slices"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/puzpuzpuz/xsync/v3"
)

var json = jsoniter.ConfigFastest

// appendUnique adds items to an array only if they don't already exist in the array.
// Returns the modified array.
func appendUnique[I comparable](arr []I, items ...I) []I {
	for _, item := range items {
		if slices.Contains(arr, item) {
			continue
		}
		arr = append(arr, item)
	}
	return arr
}

var lastAttempts = xsync.NewMapOf[string, time.Time]()

// doThisNotMoreThanOnceAnHour rate-limits attempts at anything keyed by an
// arbitrary string, so failed queries aren't repeated over and over.
func doThisNotMoreThanOnceAnHour(key string) (doItNow bool) {
	now := time.Now()

	if last, ok := lastAttempts.Load(key); ok && now.Sub(last) < time.Hour {
		return false
	}

	// prevent the map from growing forever
	if lastAttempts.Size() > 10000 {
		lastAttempts.Range(func(k string, v time.Time) bool {
			if now.Sub(v) >= time.Hour {
				lastAttempts.Delete(k)
			}
			return true
		})
	}

	lastAttempts.Store(key, now)
	return true
}

// PerQueryLimitInBatch tries to make an educated guess for the batch size given the total filter limit and
// the number of abstract queries we'll be conducting at the same time
func PerQueryLimitInBatch(totalFilterLimit int, numberOfQueries int) int {
	if numberOfQueries == 1 || totalFilterLimit*numberOfQueries < 50 {
		return totalFilterLimit
	}

	return int(
		math.Ceil(
			math.Pow(float64(totalFilterLimit), 0.80) / math.Pow(float64(numberOfQueries), 0.71),
		),
	)
}
