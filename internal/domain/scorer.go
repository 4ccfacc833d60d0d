package domain

import "context"

// Scorer computes a relevance score for each document against the query.
// Implementations must return exactly one score per document, in input order.
type Scorer interface {
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}

// HealthChecker is implemented by scorers that can verify their backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
