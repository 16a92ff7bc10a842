// Package ratelimit provides an in-memory token-bucket limiter with one
// bucket per key (a requester chat, a webhook caller's address).
//
// Buckets are created on demand and idle ones are evicted opportunistically
// during lookups, which keeps memory bounded without a janitor goroutine.
// The limiter is process-local.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL = 10 * time.Minute
	gcEvery        = 5000
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed is a per-key token-bucket limiter. It is safe for concurrent use.
type Keyed struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups uint64
	ttl     time.Duration
	now     func() time.Time
}

// NewKeyed returns a limiter refilling rps tokens per second per key, up to
// burst. rps <= 0 disables limiting; burst <= 0 is coerced to 1.
func NewKeyed(rps float64, burst int) *Keyed {
	if burst <= 0 {
		burst = 1
	}
	lim := rate.Limit(rps)
	if rps <= 0 {
		lim = rate.Inf
	}
	return &Keyed{
		rps:     lim,
		burst:   burst,
		buckets: make(map[string]*bucket),
		ttl:     defaultIdleTTL,
		now:     time.Now,
	}
}

// Allow consumes a token from key's bucket and reports whether one was
// available.
func (k *Keyed) Allow(key string) bool {
	return k.get(key).AllowN(k.now(), 1)
}

// Len reports the number of live buckets.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// get returns the bucket for key. Eviction runs before the lookup so a
// stale bucket is dropped even when it is the one requested.
func (k *Keyed) get(key string) *rate.Limiter {
	now := k.now()

	k.mu.Lock()
	defer k.mu.Unlock()

	k.lookups++
	if k.lookups >= gcEvery {
		for name, b := range k.buckets {
			if now.Sub(b.lastSeen) >= k.ttl {
				delete(k.buckets, name)
			}
		}
		k.lookups = 0
	}

	if b, ok := k.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(k.rps, k.burst)
	k.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}
