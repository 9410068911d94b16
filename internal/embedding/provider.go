package embedding

import (
	"context"
	"fmt"
)

// Provider is an external embedding service. Implementations wrap retryable
// failures (throttling, timeouts, 5xx) in *types.TransientError.
type Provider interface {
	Embed(ctx context.Context, model, text string) ([]float32, error)
	Close() error
}

// NewProvider creates the provider selected by name.
func NewProvider(ctx context.Context, name ProviderName, apiKey string) (Provider, error) {
	switch name {
	case ProviderGemini, "":
		return NewGeminiProvider(ctx, apiKey)
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, "")
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", name)
	}
}
