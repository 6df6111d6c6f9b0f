package cache

import (
	"sync"
	"time"
)

func init() {
	Register("memory", newMemoryCache)
}

// memoryEntry is one cached value with its expiry deadline. A zero deadline
// means the entry never expires.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// memoryCache is a size-bounded in-process cache with per-entry TTL.
// Reads never observe expired entries; physical removal happens
// opportunistically on writes and Len so the read path stays lock-cheap.
// When the cache grows past its capacity, the entries closest to expiry are
// evicted first.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	maxSize int
	onEvict EvictCallback

	// now is swapped out by tests to drive expiry deterministically.
	now func() time.Time
}

func newMemoryCache(cfg ProviderConfig) (Cache, error) {
	return &memoryCache{
		entries: make(map[string]memoryEntry),
		maxSize: cfg.Size,
		onEvict: cfg.OnEvict,
		now:     time.Now,
	}, nil
}

func (m *memoryCache) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	now := m.now()
	m.mu.RUnlock()

	if !ok || entry.expired(now) {
		return nil, false
	}
	return entry.value, true
}

func (m *memoryCache) Set(key string, value []byte, ttl time.Duration) {
	var expiresAt time.Time
	now := m.now()
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	m.mu.Lock()
	evicted := m.pruneLocked(now)
	m.entries[key] = memoryEntry{value: value, expiresAt: expiresAt}
	evicted = append(evicted, m.trimLocked(key)...)
	m.mu.Unlock()

	// Callbacks run outside the lock so they may touch the cache again.
	if m.onEvict != nil {
		for _, ev := range evicted {
			m.onEvict(ev.key, ev.value)
		}
	}
}

func (m *memoryCache) Contains(key string) bool {
	m.mu.RLock()
	entry, ok := m.entries[key]
	now := m.now()
	m.mu.RUnlock()

	return ok && !entry.expired(now)
}

func (m *memoryCache) Len() int {
	m.mu.Lock()
	evicted := m.pruneLocked(m.now())
	n := len(m.entries)
	m.mu.Unlock()

	if m.onEvict != nil {
		for _, ev := range evicted {
			m.onEvict(ev.key, ev.value)
		}
	}
	return n
}

func (m *memoryCache) Close() error {
	return nil
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type evictedEntry struct {
	key   string
	value []byte
}

// pruneLocked removes entries whose deadline has passed. Caller holds mu.
func (m *memoryCache) pruneLocked(now time.Time) []evictedEntry {
	var evicted []evictedEntry
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
			evicted = append(evicted, evictedEntry{key: key, value: entry.value})
		}
	}
	return evicted
}

// trimLocked evicts live entries until the cache fits its capacity again,
// choosing the entry closest to expiry each round. The entry just written is
// never the victim. Caller holds mu.
func (m *memoryCache) trimLocked(justSet string) []evictedEntry {
	if m.maxSize <= 0 {
		return nil
	}

	var evicted []evictedEntry
	for len(m.entries) > m.maxSize {
		victim := ""
		var victimAt time.Time
		for key, entry := range m.entries {
			if key == justSet {
				continue
			}
			// Entries without expiry lose to any expiring entry.
			candidateAt := entry.expiresAt
			if victim == "" || earlierDeadline(candidateAt, victimAt) {
				victim = key
				victimAt = candidateAt
			}
		}
		if victim == "" {
			break
		}
		evicted = append(evicted, evictedEntry{key: victim, value: m.entries[victim].value})
		delete(m.entries, victim)
	}
	return evicted
}

// earlierDeadline reports whether a expires before b, treating the zero time
// as "never expires".
func earlierDeadline(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	if b.IsZero() {
		return true
	}
	return a.Before(b)
}
