package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/jobingest"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/vectorstore"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// IngestCVRequest is the body of POST /cv.
type IngestCVRequest struct {
	UserID         string `json:"user_id" validate:"required,max=128"`
	SourceLocation string `json:"source_location" validate:"required,max=1024"`
}

// ScrapeRequest is the body of POST /scrape. MaxJobs defaults to the configured value.
type ScrapeRequest struct {
	MaxJobs int `json:"max_jobs" validate:"omitempty,min=1,max=1000"`
}

// RecommendQuery holds the query parameters of GET /users/{id}/recommendations.
type RecommendQuery struct {
	TopN            int    `json:"top_n" validate:"min=1,max=100"`
	Location        string `json:"location" validate:"max=100"`
	ExperienceLevel string `json:"experience_level" validate:"omitempty,oneof=junior mid senior unspecified"`
}

// CVResponse is returned after a CV has been ingested.
type CVResponse struct {
	UserID          string    `json:"user_id"`
	Skills          []string  `json:"extracted_skills"`
	ExperienceYears *int      `json:"experience_years"`
	LastTitle       string    `json:"last_title,omitempty"`
	EmbeddingModel  string    `json:"embedding_model"`
	SourceLocation  string    `json:"source_location"`
	CreatedAt       time.Time `json:"created_at"`
}

// ScrapeResponse reports a scrape cycle, including partial results of an aborted one.
type ScrapeResponse struct {
	*jobingest.CycleResult
	Error string `json:"error,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		// Return first validation error for simplicity
		ve := validationErrors[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return err.Error()
}

// decodeBody decodes a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// handleError maps err to a status and writes it.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	s.errorResponse(w, status, publicMessage(err, status))
}

// handleIngestCV ingests the CV stored at source_location for user_id.
func (s *Server) handleIngestCV(w http.ResponseWriter, r *http.Request) {
	var req IngestCVRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	profile, err := s.service.IngestCV(r.Context(), req.UserID, req.SourceLocation)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	skills := profile.Skills
	if skills == nil {
		skills = []string{}
	}
	s.jsonResponse(w, http.StatusCreated, CVResponse{
		UserID:          profile.UserID,
		Skills:          skills,
		ExperienceYears: profile.ExperienceYears,
		LastTitle:       profile.LastTitle,
		EmbeddingModel:  profile.Embedding.Model,
		SourceLocation:  profile.SourceLocation,
		CreatedAt:       profile.CreatedAt,
	})
}

// handleScrape runs one scrape cycle synchronously.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}
	if req.MaxJobs == 0 {
		req.MaxJobs = s.cfg.DefaultMaxJobs
	}

	result, err := s.service.RunScrapeCycle(r.Context(), req.MaxJobs)
	if err != nil && result == nil {
		s.handleError(w, r, err)
		return
	}

	status := http.StatusOK
	resp := ScrapeResponse{CycleResult: result}
	if err != nil {
		status = HTTPStatus(err)
		resp.Error = publicMessage(err, status)
		s.logger.Warn("scrape cycle incomplete",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("cycle_id", result.CycleID),
			zap.Error(err))
	}
	s.jsonResponse(w, status, resp)
}

// handleRecommendations returns ranked job matches for a user.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	q := RecommendQuery{
		TopN:            s.cfg.DefaultTopN,
		Location:        strings.TrimSpace(r.URL.Query().Get("location")),
		ExperienceLevel: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("experience_level"))),
	}
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "validation error: top_n - integer")
			return
		}
		q.TopN = n
	}
	if err := s.validator.Struct(q); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	filters := &types.Filters{Location: q.Location}
	if q.ExperienceLevel != "" {
		level, err := types.ParseExperienceLevel(q.ExperienceLevel)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		filters.ExperienceLevel = level
	}

	resp, err := s.service.Recommend(r.Context(), userID, q.TopN, filters)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleDeleteProfile removes a user's CV profile.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProfile(r.Context(), r.PathValue("id")); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth returns store health; a degraded store answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.Health(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	status := http.StatusOK
	if report.Health == nil || report.Status != vectorstore.StatusOK {
		status = http.StatusServiceUnavailable
	}
	s.jsonResponse(w, status, report)
}
