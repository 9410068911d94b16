// Package cvingest turns raw résumé text into an embedded CV profile and
// stores it in the cv-index.
package cvingest

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/embedding"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/retry"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/textnorm"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"go.uber.org/zap"
)

// DefaultMinTextLength is the shortest normalized CV accepted, in characters.
const DefaultMinTextLength = 50

// Ingestion stages reported by IngestionFailedError.
const (
	StageEmbed = "embed"
	StageStore = "store"
)

// IngestionFailedError wraps an embedding or store failure during ingestion.
type IngestionFailedError struct {
	UserID string
	Stage  string
	Cause  error
}

func (e *IngestionFailedError) Error() string {
	return fmt.Sprintf("CV ingestion failed for user %s at %s stage: %v", e.UserID, e.Stage, e.Cause)
}

func (e *IngestionFailedError) Unwrap() error {
	return e.Cause
}

// ProfileWriter persists CV profiles.
type ProfileWriter interface {
	UpsertCV(ctx context.Context, profile *types.CVProfile) error
}

// Options configures an Ingestor.
type Options struct {
	MinTextLength int
	// Retry bounds retries of transient store failures. Zero means retry.DefaultPolicy.
	Retry retry.Policy
}

// Ingestor validates, normalizes, embeds and stores CVs.
type Ingestor struct {
	embedder      embedding.Embedder
	store         ProfileWriter
	minTextLength int
	retry         retry.Policy
	now           func() time.Time
	logger        *zap.Logger
}

// New creates an Ingestor.
func New(embedder embedding.Embedder, store ProfileWriter, opts Options, logger *zap.Logger) *Ingestor {
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = DefaultMinTextLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ingestor{
		embedder:      embedder,
		store:         store,
		minTextLength: opts.MinTextLength,
		retry:         opts.Retry.OrDefault(),
		now:           time.Now,
		logger:        logger,
	}
}

// Ingest builds the profile of userID from rawText and upserts it, replacing
// any previous profile. Nothing is written unless every step succeeds.
func (i *Ingestor) Ingest(ctx context.Context, userID, rawText, sourceLocation string) (*types.CVProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, &types.ValidationError{Field: "user_id", Message: "must not be blank"}
	}

	norm := textnorm.Normalize(rawText)
	if norm.Empty() {
		return nil, &types.ValidationError{Field: "cv_text", Message: "CV text is empty after normalization"}
	}
	if n := utf8.RuneCountInString(norm.Clean); n < i.minTextLength {
		return nil, &types.ValidationError{
			Field:   "cv_text",
			Message: fmt.Sprintf("CV text too short: %d characters, need at least %d", n, i.minTextLength),
		}
	}

	vec, err := i.embedder.Embed(ctx, norm.Clean)
	if err != nil {
		return nil, &IngestionFailedError{UserID: userID, Stage: StageEmbed, Cause: err}
	}

	profile := &types.CVProfile{
		UserID:          userID,
		RawText:         rawText,
		NormalizedText:  norm.Clean,
		Skills:          norm.Signals.Skills,
		ExperienceYears: norm.Signals.ExperienceYears,
		LastTitle:       norm.Signals.LastTitle,
		Embedding:       vec,
		SourceLocation:  sourceLocation,
		CreatedAt:       i.now().UTC(),
	}

	err = retry.Do(ctx, i.retry, i.logger, "upsert cv", func(ctx context.Context) error {
		return i.store.UpsertCV(ctx, profile)
	})
	if err != nil {
		return nil, &IngestionFailedError{UserID: userID, Stage: StageStore, Cause: err}
	}

	i.logger.Info("CV ingested",
		zap.String("user_id", userID),
		zap.Int("skills", len(profile.Skills)),
		zap.String("model", vec.Model))

	return profile, nil
}
