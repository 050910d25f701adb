package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket is the hardening alternative to FixedWindow for scopes that
// must not exhibit the fixed-window boundary-burst property. Each key gets a
// golang.org/x/time/rate limiter refilling limit tokens per window with a
// burst of limit.
//
// Remaining and ResetAt are derived from the bucket's token level, so they
// are smooth approximations rather than the exact window arithmetic of
// FixedWindow; the headers stay monotone and the admission contract holds.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucketEntry
	maxKeys  int
	clock    Clock
}

type bucketEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewTokenBucket creates a token-bucket algorithm tracking at most maxKeys
// keys. A maxKeys of zero or less falls back to DefaultMaxKeys; a nil clock
// falls back to the system clock.
func NewTokenBucket(maxKeys int, clock Clock) *TokenBucket {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	if clock == nil {
		clock = &SystemClock{}
	}
	return &TokenBucket{
		buckets: make(map[string]*bucketEntry),
		maxKeys: maxKeys,
		clock:   clock,
	}
}

// Allow admits the request if the key's bucket holds at least one token.
func (a *TokenBucket) Allow(key string, limit int, window time.Duration) (*Decision, error) {
	now := a.clock.Now()
	refill := rate.Limit(float64(limit) / window.Seconds())

	a.mu.Lock()
	entry, exists := a.buckets[key]
	if !exists {
		if len(a.buckets) >= a.maxKeys {
			a.evictOldestLocked()
		}
		entry = &bucketEntry{limiter: rate.NewLimiter(refill, limit)}
		a.buckets[key] = entry
	}
	entry.lastAccess = now
	a.mu.Unlock()

	allowed := entry.limiter.AllowN(now, 1)
	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	// Time until the next token becomes available, used as the retry hint.
	perToken := window / time.Duration(limit)
	resetAt := now.Add(perToken)

	if !allowed {
		return newDeniedDecision(key, limit, now, resetAt), nil
	}
	return newAllowedDecision(key, limit, remaining, resetAt), nil
}

// ActiveKeys reports the number of tracked buckets.
func (a *TokenBucket) ActiveKeys() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buckets)
}

// Cleanup evicts buckets idle since cutoff.
func (a *TokenBucket) Cleanup(cutoff time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed := 0
	for key, entry := range a.buckets {
		if entry.lastAccess.Before(cutoff) {
			delete(a.buckets, key)
			removed++
		}
	}
	return removed
}

// evictOldestLocked removes the least recently used bucket. Called with the
// mutex held when the key cap is reached.
func (a *TokenBucket) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for key, entry := range a.buckets {
		if first || entry.lastAccess.Before(oldest) {
			oldestKey = key
			oldest = entry.lastAccess
			first = false
		}
	}
	if !first {
		delete(a.buckets, oldestKey)
	}
}
