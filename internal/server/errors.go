package server

import (
	"errors"
	"net/http"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/cvingest"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/jobingest"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/match"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *types.ValidationError
		notFoundErr   *match.ProfileNotFoundError
		abortedErr    *jobingest.ScrapeAbortedError
		ingestErr     *cvingest.IngestionFailedError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &abortedErr), errors.As(err, &ingestErr):
		return http.StatusBadGateway
	case types.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal error details behind a generic message for 500s.
func publicMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
