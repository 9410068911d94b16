// Package retry re-runs operations that fail with transient errors, backing
// off exponentially with jitter between attempts.
package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/logging"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"go.uber.org/zap"
)

// Policy bounds the retries of one operation.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy suits store calls: three attempts within a few seconds.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// OrDefault returns p, or DefaultPolicy when p is the zero value.
func (p Policy) OrDefault() Policy {
	if p == (Policy{}) {
		return DefaultPolicy()
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	return p
}

// Do calls fn until it succeeds, fails with an error that is not transient,
// or MaxAttempts calls have been made. The last error from fn is returned
// unchanged. Cancellation of ctx during a backoff returns ctx.Err().
func Do(ctx context.Context, p Policy, logger *zap.Logger, op string, fn func(ctx context.Context) error) error {
	p = p.OrDefault()
	logger = logging.OrNop(logger)

	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := Backoff(p.BaseDelay, p.MaxDelay, attempt)
			logger.Debug("retrying operation",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))
			if serr := Sleep(ctx, delay); serr != nil {
				return serr
			}
		}

		err = fn(ctx)
		if err == nil || !types.IsTransient(err) || ctx.Err() != nil {
			return err
		}
		logger.Warn("transient failure",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", p.MaxAttempts),
			zap.Error(err))
	}
	return err
}

// Backoff returns exponential backoff with jitter for the given retry
// attempt (1-based): base * 2^attempt, capped at maxDelay, then jittered by up to ±25%.
func Backoff(baseDelay, maxDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in the shift
	if attempt > 30 {
		attempt = 30
	}

	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if maxDelay > 0 && (backoff > maxDelay || backoff <= 0) {
		backoff = maxDelay
	}

	quarter := int64(backoff) / 4
	if quarter <= 0 {
		return backoff
	}
	jitter := time.Duration(rand.Int64N(2*quarter+1) - quarter)
	return backoff + jitter
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
