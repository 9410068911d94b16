package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/logging"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/retry"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"go.uber.org/zap"
)

// Embedder turns text into a model-tagged vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (types.Vector, error)
}

// Gateway wraps a Provider with input budgeting, retries with exponential
// backoff and a primary-to-fallback model switch. When the primary model is
// unavailable (see modelDown) it is skipped for Config.Cooldown and calls go
// straight to the fallback. Any other rejection falls back for that call only.
// A Gateway is safe for concurrent use.
type Gateway struct {
	provider Provider
	cfg      Config
	logger   *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu            sync.Mutex
	primaryDownAt time.Time
}

// NewGateway creates a gateway around provider.
func NewGateway(provider Provider, cfg Config, logger *zap.Logger) (*Gateway, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Gateway{
		provider: provider,
		cfg:      cfg,
		logger:   logging.OrNop(logger),
		now:      time.Now,
		sleep:    retry.Sleep,
	}, nil
}

// Embed returns the embedding of text, tagged with the model that produced it.
// Empty text fails with *UnavailableError; text over the input budget is
// truncated with a warning. Once every model has failed the result is a *PermanentError.
func (g *Gateway) Embed(ctx context.Context, text string) (types.Vector, error) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return types.Vector{}, &UnavailableError{Message: "text is empty after normalization"}
	}

	if n := utf8.RuneCountInString(text); n > g.cfg.MaxInputChars {
		text = Truncate(text, g.cfg.MaxInputChars)
		g.logger.Warn("embedding input truncated",
			zap.Int("original_chars", n),
			zap.Int("max_chars", g.cfg.MaxInputChars))
	}

	models := g.candidateModels()
	attempts := 0
	var lastErr error

	for _, model := range models {
		values, n, err := g.embedWithRetry(ctx, model, text)
		attempts += n
		if err == nil {
			return types.Vector{Values: values, Model: model}, nil
		}
		if ctx.Err() != nil {
			return types.Vector{}, fmt.Errorf("embedding cancelled: %w", ctx.Err())
		}

		lastErr = err
		if model != g.cfg.PrimaryModel || len(g.cfg.models()) == 1 {
			continue
		}
		if modelDown(err) {
			g.markPrimaryDown()
			g.logger.Warn("primary embedding model unavailable, using fallback",
				zap.String("model", model),
				zap.String("fallback", g.cfg.FallbackModel),
				zap.Duration("cooldown", g.cfg.Cooldown),
				zap.Error(err))
			continue
		}
		g.logger.Warn("primary embedding model rejected input, trying fallback",
			zap.String("model", model),
			zap.String("fallback", g.cfg.FallbackModel),
			zap.Error(err))
	}

	return types.Vector{}, &PermanentError{Models: models, Attempts: attempts, Cause: lastErr}
}

// ActiveModel returns the model new calls will try first.
func (g *Gateway) ActiveModel() string {
	return g.candidateModels()[0]
}

// Config returns the gateway policy.
func (g *Gateway) Config() Config {
	return g.cfg
}

// embedWithRetry calls one model up to MaxAttempts times, retrying only transient errors.
func (g *Gateway) embedWithRetry(ctx context.Context, model, text string) ([]float32, int, error) {
	var lastErr error

	for attempt := 0; attempt < g.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := retry.Backoff(g.cfg.BaseDelay, g.cfg.MaxDelay, attempt)
			g.logger.Debug("retrying embedding call",
				zap.String("model", model),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))
			if err := g.sleep(ctx, delay); err != nil {
				return nil, attempt, err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
		values, err := g.provider.Embed(callCtx, model, text)
		cancel()

		if err == nil {
			if g.cfg.Dimensions > 0 && len(values) != g.cfg.Dimensions {
				return nil, attempt + 1, &DimensionError{Model: model, Got: len(values), Want: g.cfg.Dimensions}
			}
			for i, v := range values {
				if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
					return nil, attempt + 1, &InvalidVectorError{Model: model, Index: i}
				}
			}
			return values, attempt + 1, nil
		}

		if ctx.Err() != nil {
			return nil, attempt + 1, ctx.Err()
		}
		// A per-call timeout is transient even if the provider did not say so
		if errors.Is(err, context.DeadlineExceeded) {
			err = &types.TransientError{Op: "embed", Cause: err}
		}
		if !types.IsTransient(err) {
			return nil, attempt + 1, err
		}

		lastErr = err
		g.logger.Warn("transient embedding failure",
			zap.String("model", model),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return nil, g.cfg.MaxAttempts, lastErr
}

// modelDown reports whether err means the model itself cannot serve calls,
// as opposed to rejecting one particular input.
func modelDown(err error) bool {
	if types.IsTransient(err) {
		return true
	}
	var dimErr *DimensionError
	var vecErr *InvalidVectorError
	var unavailable *ModelUnavailableError
	return errors.As(err, &dimErr) || errors.As(err, &vecErr) || errors.As(err, &unavailable)
}

func (g *Gateway) candidateModels() []string {
	models := g.cfg.models()
	if len(models) == 1 {
		return models
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.primaryDownAt.IsZero() && g.now().Sub(g.primaryDownAt) < g.cfg.Cooldown {
		return models[1:]
	}
	return models
}

func (g *Gateway) markPrimaryDown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.primaryDownAt = g.now()
}

// Truncate cuts text to at most maxChars runes, preferring the last word
// boundary when it falls within the final fifth of the budget.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	cut := string(runes[:maxChars])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 && utf8.RuneCountInString(cut[:idx]) > maxChars*4/5 {
		cut = cut[:idx]
	}
	return cut
}
