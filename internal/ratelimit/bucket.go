// Package ratelimit paces outbound scraping and throttles inbound API clients.
//
// Pacer enforces a minimum delay between requests to an external site.
// Limiter keeps one token bucket per client and route for the HTTP API.
package ratelimit

import (
	"sync"
	"time"
)

// tokenBucket allows capacity requests in a burst and refills at refillRate tokens per second.
type tokenBucket struct {
	capacity   float64
	refillRate float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity int, refillRate float64, now func() time.Time) *tokenBucket {
	return &tokenBucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: now(),
		now:        now,
	}
}

// take consumes one token if available. It returns the tokens left and,
// when denied, how long until the next token arrives.
func (b *tokenBucket) take() (allowed bool, remaining int, wait time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}

	missing := 1 - b.tokens
	wait = time.Duration(missing / b.refillRate * float64(time.Second))
	return false, 0, wait
}

// fullIn returns how long until the bucket is at capacity again.
func (b *tokenBucket) fullIn() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= b.capacity {
		return 0
	}
	return time.Duration((b.capacity - b.tokens) / b.refillRate * float64(time.Second))
}

func (b *tokenBucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed.Seconds()*b.refillRate)
	}
	b.lastRefill = now
}
