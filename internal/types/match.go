package types

import (
	"strings"
	"time"
)

// MatchResult is one ranked job for a CV. It is computed per request and never persisted.
type MatchResult struct {
	JobID           string          `json:"job_id"`
	SimilarityScore float64         `json:"similarity_score"`
	MatchPercentage int             `json:"match_percentage"`
	Title           string          `json:"title"`
	Company         string          `json:"company"`
	Description     string          `json:"description"`
	Location        string          `json:"location"`
	SourceURL       string          `json:"job_url"`
	SkillsRequired  []string        `json:"skills_required"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	SalaryRange     string          `json:"salary_range"`
	ScrapedAt       time.Time       `json:"scraped_at"`
}

// Filters narrow recommendations after the nearest-neighbor query.
// Zero values disable a filter.
type Filters struct {
	Location        string
	ExperienceLevel ExperienceLevel
}

// Matches reports whether a listing passes every set filter.
func (f *Filters) Matches(job *JobListing) bool {
	if f == nil {
		return true
	}
	if f.Location != "" &&
		!strings.Contains(strings.ToLower(job.Location), strings.ToLower(strings.TrimSpace(f.Location))) {
		return false
	}
	if f.ExperienceLevel != "" && job.ExperienceLevel != f.ExperienceLevel {
		return false
	}
	return true
}

// Candidate is a nearest-neighbor hit returned by the vector store.
type Candidate struct {
	Job        *JobListing
	Similarity float64
}
