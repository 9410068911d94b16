package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider embeds text with OpenAI-compatible embedding endpoints.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a client for apiKey. A non-empty baseURL points the
// client at an OpenAI-compatible server.
func NewOpenAIProvider(apiKey, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}, nil
}

// Embed returns the embedding of text produced by model.
func (p *OpenAIProvider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, classifyOpenAIError(model, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embeddings returned for model %s", model)
	}

	return resp.Data[0].Embedding, nil
}

// Close is a no-op; the HTTP client holds no resources.
func (p *OpenAIProvider) Close() error {
	return nil
}

func classifyOpenAIError(model string, err error) error {
	wrapped := fmt.Errorf("openai embed with %s: %w", model, err)

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &types.TransientError{Op: "embed", Cause: wrapped}
	}

	statusCode := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		statusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		statusCode = reqErr.HTTPStatusCode
	}

	if statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError {
		return &types.TransientError{Op: "embed", Cause: wrapped}
	}
	if statusCode == http.StatusNotFound {
		return &ModelUnavailableError{Model: model, Cause: wrapped}
	}
	return wrapped
}
