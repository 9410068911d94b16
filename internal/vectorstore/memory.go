package vectorstore

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps documents in process memory and answers queries by
// exact brute-force cosine similarity.
type MemoryStore struct {
	mu   sync.RWMutex
	cvs  map[string]types.CVProfile
	jobs map[string]types.JobListing
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cvs:  make(map[string]types.CVProfile),
		jobs: make(map[string]types.JobListing),
	}
}

func (s *MemoryStore) UpsertCV(ctx context.Context, profile *types.CVProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateCV(profile); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cvs[profile.UserID] = cloneCV(profile)
	return nil
}

func (s *MemoryStore) GetCV(ctx context.Context, userID string) (*types.CVProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.cvs[userID]
	if !ok {
		return nil, nil
	}
	out := cloneCV(&profile)
	return &out, nil
}

func (s *MemoryStore) DeleteCV(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.cvs[userID]
	delete(s.cvs, userID)
	return ok, nil
}

func (s *MemoryStore) UpsertJob(ctx context.Context, job *types.JobListing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateJob(job); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = cloneJob(job)
	return nil
}

// GetJob returns a stored listing, or nil when absent.
func (s *MemoryStore) GetJob(jobID string) *types.JobListing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	out := cloneJob(&job)
	return &out
}

// JobCount returns the number of stored listings.
func (s *MemoryStore) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *MemoryStore) QueryJobs(ctx context.Context, vec types.Vector, k int) ([]types.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateQuery(vec, k); err != nil {
		return nil, err
	}

	s.mu.RLock()
	candidates := make([]types.Candidate, 0, len(s.jobs))
	for _, job := range s.jobs {
		if !job.Embedding.Compatible(vec) {
			continue
		}
		j := cloneJob(&job)
		candidates = append(candidates, types.Candidate{
			Job:        &j,
			Similarity: types.CosineSimilarity(vec.Values, job.Embedding.Values),
		})
	}
	s.mu.RUnlock()

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].Similarity != candidates[b].Similarity {
			return candidates[a].Similarity > candidates[b].Similarity
		}
		return candidates[a].Job.JobID < candidates[b].Job.JobID
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func (s *MemoryStore) Health(ctx context.Context) (*Health, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Health{
		Status: StatusOK,
		Driver: "memory",
		DocumentCounts: map[string]int64{
			IndexCV:  int64(len(s.cvs)),
			IndexJob: int64(len(s.jobs)),
		},
	}, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func cloneCV(p *types.CVProfile) types.CVProfile {
	out := *p
	out.Skills = slices.Clone(p.Skills)
	out.Embedding.Values = slices.Clone(p.Embedding.Values)
	if p.ExperienceYears != nil {
		years := *p.ExperienceYears
		out.ExperienceYears = &years
	}
	return out
}

func cloneJob(j *types.JobListing) types.JobListing {
	out := *j
	out.RequiredSkills = slices.Clone(j.RequiredSkills)
	out.Embedding.Values = slices.Clone(j.Embedding.Values)
	return out
}
