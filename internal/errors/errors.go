// internal/errors/errors.go - error taxonomy for the metrics subsystem
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a scrape failure.
type Kind string

const (
	// KindNavigation means the browser could not reach or render the target URL in time.
	KindNavigation Kind = "navigation"
	// KindResource means a browser or page could not be launched or torn down.
	KindResource Kind = "resource"
	// KindExtraction means an extractor failed in a way it could not degrade from.
	KindExtraction Kind = "extraction"
	// KindUnavailable means the platform's circuit breaker is open.
	KindUnavailable Kind = "unavailable"
)

// ValidationError reports malformed or disallowed input. It is always the
// caller's fault and is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error for a request field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ScrapeError reports a failure after validation succeeded.
type ScrapeError struct {
	Kind     Kind
	Platform string
	URL      string
	Cause    error
}

func (e *ScrapeError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s failure", e.Kind)
	}
	return e.Cause.Error()
}

// Unwrap returns the underlying cause for error unwrapping
func (e *ScrapeError) Unwrap() error {
	return e.Cause
}

// NewScrapeError wraps cause as a scrape failure of the given kind.
func NewScrapeError(kind Kind, platform, url string, cause error) *ScrapeError {
	return &ScrapeError{Kind: kind, Platform: platform, URL: url, Cause: cause}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}

// AsScrape extracts a ScrapeError from err's chain.
func AsScrape(err error) (*ScrapeError, bool) {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if IsValidation(err) {
		return http.StatusBadRequest
	}
	if se, ok := AsScrape(err); ok && se.Kind == KindUnavailable {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
