package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/rerankd/internal/domain"
	domrerank "github.com/kailas-cloud/rerankd/internal/domain/rerank"
)

// Service ranks candidate documents by relevance to a query.
type Service struct {
	scorer Scorer
}

// New creates a rerank service.
func New(scorer Scorer) *Service {
	return &Service{scorer: scorer}
}

// Rerank scores every document against the query and returns results sorted
// by descending score. Each result keeps the document's position in the
// request as its index. Equal scores keep request order.
func (s *Service) Rerank(ctx context.Context, req *domrerank.Request) ([]domrerank.Result, error) {
	docs := req.Documents()
	if len(docs) == 0 {
		return []domrerank.Result{}, nil
	}

	scores, err := s.scorer.Score(ctx, req.Query(), docs)
	if err != nil {
		return nil, fmt.Errorf("score documents: %w", err)
	}
	if len(scores) != len(docs) {
		return nil, fmt.Errorf("%w: got %d scores for %d documents",
			domain.ErrScoreCountMismatch, len(scores), len(docs))
	}

	results := make([]domrerank.Result, len(docs))
	for i, text := range docs {
		results[i] = domrerank.NewResult(i, text, scores[i])
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})

	if min, ok := req.MinScore(); ok {
		filtered := results[:0]
		for _, r := range results {
			if r.Score() >= min {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	if n := req.TopN(); n > 0 && len(results) > n {
		results = results[:n]
	}

	return results, nil
}
