// Package vectorstore persists CV profiles and job listings with their
// embeddings and answers nearest-neighbor queries over the job index.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
)

// Index names.
const (
	IndexCV  = "cv-index"
	IndexJob = "job-index"
)

// Status values reported by Health.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Store is the vector search engine used by ingestion and matching.
// Upserts replace the whole document for its key; the last writer wins.
type Store interface {
	UpsertCV(ctx context.Context, profile *types.CVProfile) error
	// GetCV returns nil, nil when the user has no profile.
	GetCV(ctx context.Context, userID string) (*types.CVProfile, error)
	// DeleteCV reports whether a profile existed.
	DeleteCV(ctx context.Context, userID string) (bool, error)
	UpsertJob(ctx context.Context, job *types.JobListing) error
	// QueryJobs returns up to k listings nearest to vec, most similar first.
	// Only listings embedded by the same model with the same dimensions are considered.
	QueryJobs(ctx context.Context, vec types.Vector, k int) ([]types.Candidate, error)
	Health(ctx context.Context) (*Health, error)
	Close() error
}

// Health summarizes the store state.
type Health struct {
	Status                string           `json:"status"`
	Driver                string           `json:"driver"`
	DocumentCounts        map[string]int64 `json:"document_counts"`
	JobsMissingEmbeddings int64            `json:"jobs_missing_embeddings"`
	Error                 string           `json:"error,omitempty"`
}

// StoreError represents a failed store operation.
type StoreError struct {
	Op    string
	Key   string
	Cause error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("vector store %s %q failed: %v", e.Op, e.Key, e.Cause)
	}
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func validateCV(profile *types.CVProfile) error {
	if profile == nil || profile.UserID == "" {
		return &types.ValidationError{Field: "user_id", Message: "profile must have a user id"}
	}
	if profile.Embedding.IsZero() || profile.Embedding.Model == "" {
		return &types.ValidationError{Field: "embedding", Message: "profile must carry a model-tagged embedding"}
	}
	return nil
}

func validateJob(job *types.JobListing) error {
	if job == nil || job.JobID == "" {
		return &types.ValidationError{Field: "job_id", Message: "listing must have a job id"}
	}
	if job.Embedding.IsZero() || job.Embedding.Model == "" {
		return &types.ValidationError{Field: "embedding", Message: "listing must carry a model-tagged embedding"}
	}
	return nil
}

func validateQuery(vec types.Vector, k int) error {
	if vec.IsZero() {
		return &types.ValidationError{Field: "embedding", Message: "query vector is empty"}
	}
	if k < 1 {
		return &types.ValidationError{Field: "k", Message: "must be at least 1"}
	}
	return nil
}
