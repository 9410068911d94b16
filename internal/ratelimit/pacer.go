package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/retry"
)

// Pacer spaces calls at least MinInterval apart. It is used to stay polite
// towards job boards while paging through results.
type Pacer struct {
	interval time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu   sync.Mutex
	next time.Time
}

// NewPacer creates a pacer with the given minimum interval. The first Wait returns immediately.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		now:      time.Now,
		sleep:    retry.Sleep,
	}
}

// Interval returns the minimum spacing between calls.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until the next call slot, or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	now := p.now()
	slot := p.next
	if slot.Before(now) {
		slot = now
	}
	p.next = slot.Add(p.interval)
	p.mu.Unlock()

	return p.sleep(ctx, slot.Sub(now))
}
