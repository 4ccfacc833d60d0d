package health

import "context"

// ScorerChecker checks scoring backend availability.
type ScorerChecker interface {
	HealthCheck(ctx context.Context) error
}
