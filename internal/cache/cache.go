package cache

import "time"

// EvictCallback is called when an entry is evicted from the cache.
// Not all providers support eviction callbacks (e.g., Redis relies on server-side eviction).
type EvictCallback func(key string, value []byte)

// Logger receives error reports from cache operations that have no caller to
// return to (background eviction, backend failures). A nil Logger silently
// drops them.
type Logger interface {
	Error(msg string, err error)
}

// Cache defines the interface for key-value caching with per-entry TTL.
// The cache itself is TTL-agnostic: every Set names its own lifetime, so one
// instance can hold entries with different expirations. Implementations may
// use in-memory storage or external backends like Redis/Valkey.
//
// A backend failure is never surfaced as an error; a Get that cannot be
// served reports a miss and the caller takes its cold path.
type Cache interface {
	// Get retrieves a live (non-expired) value by key. Returns the value and
	// true if found, or nil and false otherwise.
	Get(key string) ([]byte, bool)

	// Set stores a value with the given key and TTL, resetting the expiry
	// window from the moment of the call. An existing value for the key is
	// overwritten. A TTL <= 0 stores the entry without expiry.
	Set(key string, value []byte, ttl time.Duration)

	// Contains checks whether a key holds a live entry without affecting LRU ordering.
	Contains(key string) bool

	// Len returns the number of live entries currently in the cache.
	// For external backends like Redis, this may reflect the total key count in the configured database.
	Len() int

	// Close releases any resources held by the cache (e.g., network connections).
	// For in-memory caches, this is a no-op.
	Close() error
}
