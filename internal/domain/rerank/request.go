package rerank

import (
	"fmt"

	"github.com/kailas-cloud/rerankd/internal/domain"
)

// Rerank parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in bytes.
	MaxQueryLength = 4096
	// MaxDocumentLength is the maximum allowed length of a single document.
	MaxDocumentLength = 32768
	// MaxDocuments is the maximum number of documents per request.
	MaxDocuments = 1000
)

// Request is a validated rerank query.
type Request struct {
	query       string
	documents   []string
	topN        int
	minScore    float64
	hasMinScore bool
}

// New validates and normalizes rerank parameters.
// topN = 0 means "return all documents"; minScore filtering is disabled
// when hasMinScore is false (a provider may legitimately produce negative logits).
func New(query string, documents []string, topN int, minScore float64, hasMinScore bool) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d bytes)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if len(documents) > MaxDocuments {
		return Request{}, fmt.Errorf("%w: too many documents (max %d)", domain.ErrInvalidRequest, MaxDocuments)
	}
	for i, doc := range documents {
		if len(doc) > MaxDocumentLength {
			return Request{}, fmt.Errorf(
				"%w: document %d too long (max %d bytes)", domain.ErrInvalidRequest, i, MaxDocumentLength,
			)
		}
	}
	if topN < 0 {
		return Request{}, fmt.Errorf("%w: top_n must not be negative", domain.ErrInvalidRequest)
	}
	if topN > len(documents) {
		topN = 0
	}

	req := Request{
		query:     query,
		documents: documents,
		topN:      topN,
	}
	if hasMinScore {
		req.minScore = minScore
		req.hasMinScore = true
	}
	return req, nil
}

// Query returns the query text.
func (r *Request) Query() string { return r.query }

// Documents returns the candidate documents in request order.
func (r *Request) Documents() []string { return r.documents }

// TopN returns how many top results to return (0 = all).
func (r *Request) TopN() int { return r.topN }

// MinScore returns the minimum score threshold and whether it is set.
func (r *Request) MinScore() (float64, bool) { return r.minScore, r.hasMinScore }
