package rerankd

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped from API error codes.
// Use errors.Is() to check.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrRateLimited          = errors.New("rate limited")
	ErrScoringProviderError = errors.New("scoring provider error")
	ErrServiceUnavailable   = errors.New("service unavailable")
)

// APIError carries the error envelope returned by the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rerankd: %s (code=%s, status=%d)", e.Message, e.Code, e.StatusCode)
}

// Unwrap maps the API error to a sentinel for errors.Is checks.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "bad_request", "validation_failed":
		if e.StatusCode == 401 {
			return ErrUnauthorized
		}
		return ErrInvalidRequest
	case "rate_limited":
		return ErrRateLimited
	case "scoring_provider_error":
		return ErrScoringProviderError
	default:
		return nil
	}
}
