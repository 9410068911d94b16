// Package recommender is the request surface of the system: one method per
// use case, shared by the CLI and the HTTP server.
package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/cvingest"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/jobingest"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/logging"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/match"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/objectstore"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/vectorstore"
	"go.uber.org/zap"
)

// ModelReporter reports the embedding model currently in use.
type ModelReporter interface {
	ActiveModel() string
}

// Service wires ingestion, scraping and matching together. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	store   vectorstore.Store
	objects objectstore.Store
	cvs     *cvingest.Ingestor
	jobs    *jobingest.Ingestor
	engine  *match.Engine
	model   ModelReporter
	logger  *zap.Logger
}

// Deps are the collaborators of a Service. Jobs may be nil when scraping is
// not configured; Model may be nil.
type Deps struct {
	Store   vectorstore.Store
	Objects objectstore.Store
	CVs     *cvingest.Ingestor
	Jobs    *jobingest.Ingestor
	Engine  *match.Engine
	Model   ModelReporter
}

// New creates a Service.
func New(deps Deps, logger *zap.Logger) (*Service, error) {
	if deps.Store == nil || deps.Objects == nil || deps.CVs == nil || deps.Engine == nil {
		return nil, fmt.Errorf("store, object store, CV ingestor and match engine are required")
	}
	return &Service{
		store:   deps.Store,
		objects: deps.Objects,
		cvs:     deps.CVs,
		jobs:    deps.Jobs,
		engine:  deps.Engine,
		model:   deps.Model,
		logger:  logging.OrNop(logger),
	}, nil
}

// IngestCV reads the CV at sourceLocation from the object store, ingests it
// for userID and archives the processed profile. Archiving failures are
// logged and do not fail the call.
func (s *Service) IngestCV(ctx context.Context, userID, sourceLocation string) (*types.CVProfile, error) {
	sourceLocation = strings.TrimSpace(sourceLocation)
	if sourceLocation == "" {
		return nil, &types.ValidationError{Field: "source_location", Message: "must not be blank"}
	}
	if strings.TrimSpace(userID) == "" {
		return nil, &types.ValidationError{Field: "user_id", Message: "must not be blank"}
	}

	raw, err := s.objects.Get(ctx, sourceLocation)
	if errors.Is(err, objectstore.ErrNotFound) {
		return nil, &types.ValidationError{Field: "source_location", Message: fmt.Sprintf("no CV found at %s", sourceLocation)}
	}
	if errors.Is(err, objectstore.ErrInvalidLocation) {
		return nil, &types.ValidationError{Field: "source_location", Message: err.Error()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CV: %w", err)
	}
	if !utf8.Valid(raw) {
		return nil, &types.ValidationError{Field: "source_location", Message: "CV must be UTF-8 text"}
	}

	profile, err := s.cvs.Ingest(ctx, userID, string(raw), sourceLocation)
	if err != nil {
		return nil, err
	}

	s.archive(ctx, profile)
	return profile, nil
}

func (s *Service) archive(ctx context.Context, profile *types.CVProfile) {
	key := objectstore.ProfileArtifactKey(profile.UserID)

	data, err := json.MarshalIndent(profile.Archived(), "", "  ")
	if err == nil {
		err = s.objects.Put(ctx, key, data)
	}
	if err != nil {
		s.logger.Warn("failed to archive CV profile",
			zap.String("user_id", profile.UserID),
			zap.String("key", key),
			zap.Error(err))
		return
	}
	s.logger.Debug("CV profile archived", zap.String("user_id", profile.UserID), zap.String("key", key))
}

// RunScrapeCycle runs one scrape cycle ingesting at most maxJobs listings.
func (s *Service) RunScrapeCycle(ctx context.Context, maxJobs int) (*jobingest.CycleResult, error) {
	if s.jobs == nil {
		return nil, fmt.Errorf("job scraping is not configured")
	}
	return s.jobs.RunCycle(ctx, maxJobs)
}

// UserProfile is the CV summary included in recommendations.
type UserProfile struct {
	Skills          []string `json:"skills"`
	ExperienceYears *int     `json:"experience_years"`
	LastTitle       string   `json:"last_title"`
}

// RecommendResponse is the result of Recommend.
type RecommendResponse struct {
	UserID               string              `json:"user_id"`
	TotalRecommendations int                 `json:"total_recommendations"`
	UserProfile          UserProfile         `json:"user_profile"`
	Recommendations      []types.MatchResult `json:"recommendations"`
}

// Recommend returns the topN best matching listings for userID.
func (s *Service) Recommend(ctx context.Context, userID string, topN int, filters *types.Filters) (*RecommendResponse, error) {
	results, profile, err := s.engine.Recommend(ctx, userID, topN, filters)
	if err != nil {
		return nil, err
	}

	skills := profile.Skills
	if skills == nil {
		skills = []string{}
	}
	return &RecommendResponse{
		UserID:               profile.UserID,
		TotalRecommendations: len(results),
		UserProfile: UserProfile{
			Skills:          skills,
			ExperienceYears: profile.ExperienceYears,
			LastTitle:       profile.LastTitle,
		},
		Recommendations: results,
	}, nil
}

// HealthReport combines store health with the embedding model in use.
type HealthReport struct {
	*vectorstore.Health
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// Health reports the state of the vector store. A degraded store is reported,
// not returned as an error.
func (s *Service) Health(ctx context.Context) (*HealthReport, error) {
	h, err := s.store.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check store health: %w", err)
	}

	report := &HealthReport{Health: h}
	if s.model != nil {
		report.EmbeddingModel = s.model.ActiveModel()
	}
	return report, nil
}

// DeleteProfile removes the user's CV profile and its archived artifact.
// Deleting a user without a profile yields *match.ProfileNotFoundError.
func (s *Service) DeleteProfile(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return &types.ValidationError{Field: "user_id", Message: "must not be blank"}
	}

	existed, err := s.store.DeleteCV(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete CV profile: %w", err)
	}
	if !existed {
		return &match.ProfileNotFoundError{UserID: userID}
	}

	if err := s.objects.Delete(ctx, objectstore.ProfileArtifactKey(userID)); err != nil {
		s.logger.Warn("failed to delete archived CV profile", zap.String("user_id", userID), zap.Error(err))
	}

	s.logger.Info("CV profile deleted", zap.String("user_id", userID))
	return nil
}
