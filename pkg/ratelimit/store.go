package ratelimit

import (
	"sort"
	"sync"
	"time"
)

// windowCounter tracks admitted requests for one key inside one fixed window.
type windowCounter struct {
	count       int
	windowStart time.Time
	lastAccess  time.Time
}

// WindowStore is a thread-safe registry of fixed-window counters keyed by an
// arbitrary string (client IP, user ID).
//
// The check-then-increment sequence runs as one critical section under a
// single mutex, so concurrent bursts for the same key can never admit more
// than the limit. Counters whose window has elapsed are reset in place on
// next access; counters not touched for a window plus a grace period are
// removed by Cleanup. A max-keys cap bounds memory against key-churn abuse.
type WindowStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	maxKeys  int
}

// DefaultMaxKeys bounds the number of tracked keys when no explicit cap is
// configured.
const DefaultMaxKeys = 10000

// NewWindowStore creates a WindowStore tracking at most maxKeys counters.
// A maxKeys of zero or less falls back to DefaultMaxKeys.
func NewWindowStore(maxKeys int) *WindowStore {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	return &WindowStore{
		counters: make(map[string]*windowCounter),
		maxKeys:  maxKeys,
	}
}

// Check atomically evaluates and, when admitted, increments the counter for
// key in the window containing now.
//
// Window semantics are fixed-window with a hard reset at the boundary: if
// now is at or past windowStart+window the counter restarts at zero before
// the check. A client can therefore burst up to limit requests at the very
// end of one window and again at the start of the next; that boundary
// property is part of the contract, and callers wanting to harden it should
// use TokenBucket instead.
//
// Returns whether the request was admitted, the count after the call, and
// the start of the window the count belongs to.
func (s *WindowStore) Check(key string, now time.Time, window time.Duration, limit int) (allowed bool, count int, windowStart time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.counters[key]
	if !exists {
		if len(s.counters) >= s.maxKeys {
			s.evictOldest()
		}
		c = &windowCounter{windowStart: now}
		s.counters[key] = c
	}
	c.lastAccess = now

	// Hard reset at the window boundary.
	if now.Sub(c.windowStart) >= window {
		c.windowStart = now
		c.count = 0
	}

	if c.count >= limit {
		return false, c.count, c.windowStart
	}

	c.count++
	return true, c.count, c.windowStart
}

// Peek returns the current count and window start for key without mutating
// the counter. An expired or absent counter reads as count zero with
// windowStart equal to now.
func (s *WindowStore) Peek(key string, now time.Time, window time.Duration) (count int, windowStart time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.counters[key]
	if !exists || now.Sub(c.windowStart) >= window {
		return 0, now
	}
	return c.count, c.windowStart
}

// Cleanup removes counters whose lastAccess is before cutoff and returns how
// many were removed. Callers run this on a periodic sweep with a cutoff of
// at least two windows in the past, so an expired counter survives a full
// grace window before eviction.
func (s *WindowStore) Cleanup(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, c := range s.counters {
		if c.lastAccess.Before(cutoff) {
			delete(s.counters, key)
			removed++
		}
	}
	return removed
}

// KeyCount returns the number of tracked keys, for metrics and sweep logging.
func (s *WindowStore) KeyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

// evictOldest drops the tenth of tracked counters with the oldest
// lastAccess, so evictions happen in batches rather than on every insert at
// capacity. Called with the mutex held.
func (s *WindowStore) evictOldest() {
	evict := s.maxKeys / 10
	if evict < 1 {
		evict = 1
	}

	type aged struct {
		key        string
		lastAccess time.Time
	}
	entries := make([]aged, 0, len(s.counters))
	for key, c := range s.counters {
		entries = append(entries, aged{key, c.lastAccess})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].lastAccess.Before(entries[j].lastAccess)
	})

	if evict > len(entries) {
		evict = len(entries)
	}
	for _, e := range entries[:evict] {
		delete(s.counters, e.key)
	}
}
