// Package hugot scores query/document pairs with a local ONNX
// sequence-classification model (a cross-encoder reranker).
package hugot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rerankd/internal/domain"
	"github.com/kailas-cloud/rerankd/internal/metrics"
)

const providerName = "hugot"

// Scorer runs a cross-encoder pipeline over query/document pairs.
// The session and pipeline are created once and shared read-only.
type Scorer struct {
	session      *hugot.Session
	pipeline     *pipelines.TextClassificationPipeline
	pairTemplate string
	model        string
	logger       *zap.Logger
}

// Config holds the local scorer settings.
type Config struct {
	// ModelPath is the local ONNX model directory. When it does not exist
	// and ModelRepo is set, the model is downloaded there first.
	ModelPath    string
	ModelRepo    string
	OnnxFilePath string
	PairTemplate string
	Logger       *zap.Logger
}

// NewScorer loads the model and builds the classification pipeline.
// Construction failure is terminal: the caller is expected to exit.
func NewScorer(cfg *Config) (*Scorer, error) {
	modelPath, err := ensureModel(cfg.ModelPath, cfg.ModelRepo, cfg.OnnxFilePath)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("create hugot session: %w", err)
	}

	pipelineCfg := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "reranker-pipeline",
	}
	pipeline, err := hugot.NewPipeline(session, pipelineCfg)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("create reranker pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("create reranker pipeline: %w", err)
	}

	return &Scorer{
		session:      session,
		pipeline:     pipeline,
		pairTemplate: cfg.PairTemplate,
		model:        filepath.Base(modelPath),
		logger:       cfg.Logger,
	}, nil
}

// Score implements domain.Scorer. All pairs go through a single pipeline run.
func (s *Scorer) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("score canceled: %w", err)
	}

	inputs := make([]string, len(documents))
	for i, doc := range documents {
		inputs[i] = renderPair(s.pairTemplate, query, doc)
	}

	start := time.Now()

	out, err := s.pipeline.RunPipeline(inputs)

	duration := time.Since(start)

	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues(providerName, s.model, "error").Inc()
		metrics.ScoringErrorsTotal.WithLabelValues(providerName, s.model, "inference_error").Inc()
		return nil, fmt.Errorf("run reranker pipeline: %w: %w", err, domain.ErrScoringProviderError)
	}
	if len(out.ClassificationOutputs) != len(documents) {
		metrics.ScoringRequestsTotal.WithLabelValues(providerName, s.model, "error").Inc()
		metrics.ScoringErrorsTotal.WithLabelValues(providerName, s.model, "output_mismatch").Inc()
		return nil, fmt.Errorf("%w: pipeline returned %d outputs for %d documents",
			domain.ErrScoreCountMismatch, len(out.ClassificationOutputs), len(documents))
	}

	metrics.ScoringRequestsTotal.WithLabelValues(providerName, s.model, "success").Inc()
	metrics.ScoringRequestDuration.WithLabelValues(providerName, s.model).Observe(duration.Seconds())
	metrics.ScoringDocumentsTotal.WithLabelValues(providerName, s.model).Add(float64(len(documents)))

	scores := make([]float64, len(documents))
	for i, classes := range out.ClassificationOutputs {
		scores[i] = relevanceScore(classes)
	}
	return scores, nil
}

// Close destroys the hugot session.
func (s *Scorer) Close() error {
	if err := s.session.Destroy(); err != nil {
		return fmt.Errorf("destroy hugot session: %w", err)
	}
	return nil
}

// Model returns the loaded model name.
func (s *Scorer) Model() string { return s.model }

// relevanceScore maps a pipeline classification to a single relevance score.
// Cross-encoder rerankers export one label; two-label relevance models put
// the positive class last.
func relevanceScore(classes []pipelines.ClassificationOutput) float64 {
	switch len(classes) {
	case 0:
		return 0
	case 1:
		return float64(classes[0].Score)
	default:
		return float64(classes[len(classes)-1].Score)
	}
}

// renderPair renders a query/document pair into a single model input.
func renderPair(template, query, document string) string {
	return strings.NewReplacer(
		"{query}", query,
		"{document}", document,
	).Replace(template)
}

// ensureModel returns the model path, downloading from the hub when the
// local path is missing and a repo is configured.
func ensureModel(modelPath, modelRepo, onnxFilePath string) (string, error) {
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	}
	if modelRepo == "" {
		return "", fmt.Errorf("model path %s does not exist and no model repo configured", modelPath)
	}

	modelDir := filepath.Dir(modelPath)
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	downloadOptions := hugot.NewDownloadOptions()
	downloadOptions.OnnxFilePath = onnxFilePath
	downloadedPath, err := hugot.DownloadModel(modelRepo, modelDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", modelRepo, err)
	}
	return downloadedPath, nil
}
