package embedding

import (
	"fmt"
	"strings"
)

// UnavailableError means the text cannot be embedded at all, e.g. it is empty.
type UnavailableError struct {
	Message string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("embedding unavailable: %s", e.Message)
}

// PermanentError is returned once retries and fallback are exhausted.
type PermanentError struct {
	Models   []string
	Attempts int
	Cause    error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("embedding failed permanently after %d attempts with models [%s]: %v",
		e.Attempts, strings.Join(e.Models, ", "), e.Cause)
}

func (e *PermanentError) Unwrap() error {
	return e.Cause
}

// DimensionError reports a vector whose length does not match the deployment.
type DimensionError struct {
	Model string
	Got   int
	Want  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("model %s returned %d dimensions, want %d", e.Model, e.Got, e.Want)
}

// InvalidVectorError reports a vector with a NaN or infinite component.
type InvalidVectorError struct {
	Model string
	Index int
}

func (e *InvalidVectorError) Error() string {
	return fmt.Sprintf("model %s returned a non-finite value at index %d", e.Model, e.Index)
}

// ModelUnavailableError means the provider does not know or no longer serves the model.
type ModelUnavailableError struct {
	Model string
	Cause error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %s unavailable: %v", e.Model, e.Cause)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Cause
}
