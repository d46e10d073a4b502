package kvstore

import "errors"

// NoOp can be returned from an Update callback to signal that the stored
// value must be kept as it is.
var NoOp = errors.New("kvstore: no-op")

// KVStore is a simple key-value store interface
type KVStore interface {
	// Get retrieves a value for a given key. Returns nil if not found.
	Get(key []byte) ([]byte, error)

	// Set stores a value for a given key
	Set(key []byte, value []byte) error

	// Delete removes a key and its value
	Delete(key []byte) error

	// Update atomically modifies the value for a key. The callback receives
	// the current value (nil if absent) and returns the new value: nil
	// deletes the key, NoOp leaves it untouched.
	Update(key []byte, f func([]byte) ([]byte, error)) error

	// Scan calls fn for each key-value pair whose key starts with prefix,
	// stopping early when fn returns false.
	Scan(prefix []byte, fn func(key []byte, value []byte) bool) error

	// Close releases any resources held by the store
	Close() error
}
