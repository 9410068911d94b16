// Package match ranks stored job listings against a user's CV profile.
package match

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/logging"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/retry"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"go.uber.org/zap"
)

// Limits and defaults for Recommend.
const (
	MinTopN          = 1
	MaxTopN          = 100
	DefaultTopN      = 10
	DefaultOverFetch = 3
)

// ProfileNotFoundError is returned when the user has no stored CV profile.
type ProfileNotFoundError struct {
	UserID string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("no CV profile found for user %s", e.UserID)
}

// Store is the read side of the vector store used for matching.
type Store interface {
	GetCV(ctx context.Context, userID string) (*types.CVProfile, error)
	QueryJobs(ctx context.Context, vec types.Vector, k int) ([]types.Candidate, error)
}

// Options configures an Engine.
type Options struct {
	// OverFetch multiplies topN for the nearest-neighbor query so that
	// post-filters still leave enough results.
	OverFetch int
	// Retry bounds retries of transient store reads. Zero means retry.DefaultPolicy.
	Retry retry.Policy
}

// Engine produces ranked recommendations.
//
// The nearest-neighbor query is approximate when the store uses an ANN index
// (HNSW on pgvector), so the results are the best of what the index returns
// and not guaranteed to be the exact global top-k.
type Engine struct {
	store     Store
	overFetch int
	retry     retry.Policy
	logger    *zap.Logger
}

// NewEngine creates an Engine over store.
func NewEngine(store Store, opts Options, logger *zap.Logger) *Engine {
	if opts.OverFetch < 1 {
		opts.OverFetch = DefaultOverFetch
	}
	return &Engine{
		store:     store,
		overFetch: opts.OverFetch,
		retry:     opts.Retry.OrDefault(),
		logger:    logging.OrNop(logger),
	}
}

// Recommend returns up to topN listings most similar to the user's CV,
// after applying filters. It also returns the profile the ranking was based on.
// A user without a profile yields *ProfileNotFoundError; an empty result is not an error.
func (e *Engine) Recommend(ctx context.Context, userID string, topN int, filters *types.Filters) ([]types.MatchResult, *types.CVProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil, &types.ValidationError{Field: "user_id", Message: "must not be blank"}
	}
	if topN < MinTopN || topN > MaxTopN {
		return nil, nil, &types.ValidationError{
			Field:   "top_n",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinTopN, MaxTopN, topN),
		}
	}

	var profile *types.CVProfile
	err := retry.Do(ctx, e.retry, e.logger, "get cv", func(ctx context.Context) error {
		var err error
		profile, err = e.store.GetCV(ctx, userID)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load CV profile: %w", err)
	}
	if profile == nil {
		return nil, nil, &ProfileNotFoundError{UserID: userID}
	}

	var candidates []types.Candidate
	err = retry.Do(ctx, e.retry, e.logger, "query jobs", func(ctx context.Context) error {
		var err error
		candidates, err = e.store.QueryJobs(ctx, profile.Embedding, topN*e.overFetch)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query job index: %w", err)
	}

	results := make([]types.MatchResult, 0, len(candidates))
	for _, c := range candidates {
		if c.Job == nil || !filters.Matches(c.Job) {
			continue
		}
		results = append(results, toResult(c))
	}
	filtered := len(candidates) - len(results)

	Rank(results)
	if len(results) > topN {
		results = results[:topN]
	}

	e.logger.Debug("recommendations computed",
		zap.String("user_id", userID),
		zap.Int("candidates", len(candidates)),
		zap.Int("filtered_out", filtered),
		zap.Int("returned", len(results)))

	return results, profile, nil
}

// Rank orders results by similarity, most similar first. Ties go to the more
// recently scraped listing and then to the smaller job id, so the order is fully deterministic.
func Rank(results []types.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.SimilarityScore != b.SimilarityScore {
			return a.SimilarityScore > b.SimilarityScore
		}
		if !a.ScrapedAt.Equal(b.ScrapedAt) {
			return a.ScrapedAt.After(b.ScrapedAt)
		}
		return a.JobID < b.JobID
	})
}

// Percentage converts a cosine similarity into a 0-100 match percentage:
// the similarity is clamped to [0, 1], scaled by 100 and rounded half away
// from zero. The mapping is monotonic and kept stable across releases.
func Percentage(similarity float64) int {
	if math.IsNaN(similarity) {
		return 0
	}
	clamped := math.Max(0, math.Min(1, similarity))
	return int(math.Round(clamped * 100))
}

func toResult(c types.Candidate) types.MatchResult {
	job := c.Job
	skills := job.RequiredSkills
	if skills == nil {
		skills = []string{}
	}
	return types.MatchResult{
		JobID:           job.JobID,
		SimilarityScore: c.Similarity,
		MatchPercentage: Percentage(c.Similarity),
		Title:           job.Title,
		Company:         job.Company,
		Description:     job.Description,
		Location:        job.Location,
		SourceURL:       job.SourceURL,
		SkillsRequired:  skills,
		ExperienceLevel: job.ExperienceLevel,
		SalaryRange:     job.SalaryRange,
		ScrapedAt:       job.ScrapedAt,
	}
}
