package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GeminiProvider embeds text with Google Gemini embedding models.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a Gemini client authenticated with apiKey.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client}, nil
}

// Embed returns the embedding of text produced by model.
func (p *GeminiProvider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	em := p.client.EmbeddingModel(model)
	em.TaskType = genai.TaskTypeSemanticSimilarity

	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, classifyGeminiError(model, err)
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding in Gemini response for model %s", model)
	}

	return resp.Embedding.Values, nil
}

// Close releases resources held by the client
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// classifyGeminiError marks throttling and availability failures as transient.
func classifyGeminiError(model string, err error) error {
	wrapped := fmt.Errorf("gemini embed with %s: %w", model, err)

	if errors.Is(err, context.DeadlineExceeded) {
		return &types.TransientError{Op: "embed", Cause: wrapped}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError {
			return &types.TransientError{Op: "embed", Cause: wrapped}
		}
		if gerr.Code == http.StatusNotFound {
			return &ModelUnavailableError{Model: model, Cause: wrapped}
		}
		return wrapped
	}

	switch status.Code(err) {
	case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted:
		return &types.TransientError{Op: "embed", Cause: wrapped}
	case codes.NotFound:
		return &ModelUnavailableError{Model: model, Cause: wrapped}
	}
	return wrapped
}
