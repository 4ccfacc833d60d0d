package rerank

import "context"

// Scorer computes relevance scores for query/document pairs.
// Must return one score per document, in input order.
type Scorer interface {
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}
