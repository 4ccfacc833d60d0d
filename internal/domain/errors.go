package domain

import "errors"

var (
	// ErrInvalidRequest signals a request that failed domain validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRateLimited signals a rate limit hit at the scoring provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrScoringProviderError signals a scoring provider failure.
	ErrScoringProviderError = errors.New("scoring provider error")
	// ErrScoreCountMismatch signals a provider returning the wrong number of scores.
	ErrScoreCountMismatch = errors.New("score count does not match document count")
)
