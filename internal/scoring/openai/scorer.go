// Package openai scores documents against a query with an OpenAI-compatible
// embeddings endpoint: score = cosine similarity of the query and document
// embeddings (a bi-encoder fallback for hosts without ONNX runtime support).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rerankd/internal/domain"
	"github.com/kailas-cloud/rerankd/internal/metrics"
)

const providerName = "openai"

// Scorer is a relevance scorer backed by an OpenAI-compatible embeddings API.
type Scorer struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	logger     *zap.Logger
}

// Config holds the embedding scorer settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Logger     *zap.Logger
}

// NewScorer creates an OpenAI-compatible embedding scorer.
func NewScorer(cfg *Config) *Scorer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Scorer{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		logger:     cfg.Logger,
	}
}

// Score implements domain.Scorer. The query and all documents are embedded
// in a single API call; each document's score is its cosine similarity to
// the query embedding.
func (s *Scorer) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	model := string(s.model)

	inputs := make([]string, 0, len(documents)+1)
	inputs = append(inputs, query)
	inputs = append(inputs, documents...)

	req := openai.EmbeddingRequest{
		Input:          inputs,
		Model:          s.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if s.dimensions > 0 {
		req.Dimensions = s.dimensions
	}

	start := time.Now()

	resp, err := s.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		metrics.ScoringErrorsTotal.WithLabelValues(providerName, model, "api_error").Inc()
		return nil, parseAPIError(err)
	}

	if len(resp.Data) != len(inputs) {
		metrics.ScoringRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		metrics.ScoringErrorsTotal.WithLabelValues(providerName, model, "incomplete_response").Inc()
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs: %w",
			len(resp.Data), len(inputs), domain.ErrScoringProviderError)
	}

	metrics.ScoringRequestsTotal.WithLabelValues(providerName, model, "success").Inc()
	metrics.ScoringRequestDuration.WithLabelValues(providerName, model).Observe(duration.Seconds())
	metrics.ScoringDocumentsTotal.WithLabelValues(providerName, model).Add(float64(len(documents)))

	// Restore input order: the API reports each vector's input position in Index.
	vectors := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding response index %d out of range: %w",
				d.Index, domain.ErrScoringProviderError)
		}
		vectors[d.Index] = d.Embedding
	}

	queryVec := vectors[0]
	scores := make([]float64, len(documents))
	for i := range documents {
		scores[i] = cosineSimilarity(queryVec, vectors[i+1])
	}
	return scores, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (s *Scorer) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// parseAPIError extracts a human-readable error from the API response.
// Rate limits map to domain.ErrRateLimited; everything else is wrapped with
// domain.ErrScoringProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		wrap := wrapForStatus(reqErr.HTTPStatusCode)
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		wrap := wrapForStatus(apiErr.HTTPStatusCode)
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %w", domain.ErrScoringProviderError)
}

func wrapForStatus(status int) error {
	if status == http.StatusTooManyRequests {
		return domain.ErrRateLimited
	}
	return domain.ErrScoringProviderError
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
