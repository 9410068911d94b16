package types

import (
	"fmt"
	"strings"
	"time"
)

// ExperienceLevel is the seniority a job listing asks for.
type ExperienceLevel string

const (
	LevelJunior      ExperienceLevel = "junior"
	LevelMid         ExperienceLevel = "mid"
	LevelSenior      ExperienceLevel = "senior"
	LevelUnspecified ExperienceLevel = "unspecified"
)

// ParseExperienceLevel parses a level name case-insensitively.
// An empty string yields LevelUnspecified.
func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "junior":
		return LevelJunior, nil
	case "mid":
		return LevelMid, nil
	case "senior":
		return LevelSenior, nil
	case "", "unspecified":
		return LevelUnspecified, nil
	default:
		return "", &ValidationError{
			Field:   "experience_level",
			Message: fmt.Sprintf("unknown experience level %q (want junior, mid, senior or unspecified)", s),
		}
	}
}

// JobListing is a scraped, embedded job posting keyed by JobID in the job-index.
type JobListing struct {
	JobID           string          `json:"job_id"`
	Title           string          `json:"title"`
	Company         string          `json:"company"`
	Description     string          `json:"description"`
	RequiredSkills  []string        `json:"skills_required"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	Location        string          `json:"location"`
	SourceURL       string          `json:"job_url"`
	SalaryRange     string          `json:"salary_range"`
	Embedding       Vector          `json:"embedding"`
	ScrapedAt       time.Time       `json:"scraped_at"`
}
