package types

import "time"

// Signals are the structured facts extracted from normalized text.
// Every field is optional; extraction never fails.
type Signals struct {
	Skills          []string `json:"skills"`
	ExperienceYears *int     `json:"experience_years"` // nil when unknown
	LastTitle       string   `json:"last_title,omitempty"`
}

// CVProfile is a candidate's embedded résumé, keyed by UserID in the cv-index.
type CVProfile struct {
	UserID          string    `json:"user_id"`
	RawText         string    `json:"raw_text,omitempty"`
	NormalizedText  string    `json:"normalized_text"`
	Skills          []string  `json:"extracted_skills"`
	ExperienceYears *int      `json:"experience_years"`
	LastTitle       string    `json:"last_title,omitempty"`
	Embedding       Vector    `json:"embedding"`
	SourceLocation  string    `json:"source_location"`
	CreatedAt       time.Time `json:"created_at"`
}

// Signals returns the extracted signals of the profile.
func (p *CVProfile) Signals() Signals {
	return Signals{
		Skills:          p.Skills,
		ExperienceYears: p.ExperienceYears,
		LastTitle:       p.LastTitle,
	}
}

// Archived returns a copy suitable for archiving, without raw text and embedding.
func (p *CVProfile) Archived() CVProfile {
	archived := *p
	archived.RawText = ""
	archived.Embedding = Vector{Model: p.Embedding.Model}
	return archived
}
