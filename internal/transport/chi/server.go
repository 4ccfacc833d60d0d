package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rerankd/internal/domain"
	domrerank "github.com/kailas-cloud/rerankd/internal/domain/rerank"
	healthuc "github.com/kailas-cloud/rerankd/internal/usecase/health"
	rerankuc "github.com/kailas-cloud/rerankd/internal/usecase/rerank"
	"github.com/kailas-cloud/rerankd/internal/version"
)

// ErrorCode identifies an API error category in the JSON envelope.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeScoringError     ErrorCode = "scoring_provider_error"
	CodeInternalError    ErrorCode = "internal_error"
)

// RerankRequest is the POST /rerank body.
type RerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      *int     `json:"top_n,omitempty"`
	MinScore  *float64 `json:"min_score,omitempty"`
}

// DocumentInfo wraps a document's text in the response.
type DocumentInfo struct {
	Text string `json:"text"`
}

// RankResult is a single scored document in the response.
type RankResult struct {
	Index    int          `json:"index"`
	Document DocumentInfo `json:"document"`
	Score    float64      `json:"score"`
}

// RerankResponse is the POST /rerank response body.
type RerankResponse struct {
	Results []RankResult `json:"results"`
}

// StatusResponse is the GET / response body.
type StatusResponse struct {
	Status  string `json:"status"`
	Model   string `json:"model,omitempty"`
	Version string `json:"version"`
}

// HealthResponse is the GET /health response body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the rerank API over chi.
type Server struct {
	rerank        *rerankuc.Service
	health        *healthuc.Service
	model         string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. model is reported in the status payload.
func NewServer(
	rerank *rerankuc.Service,
	health *healthuc.Service,
	model string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		rerank: rerank,
		health: health,
		model:  model,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrScoringProviderError, http.StatusBadGateway, CodeScoringError),
		sentinelHandler(domain.ErrScoreCountMismatch, http.StatusBadGateway, CodeScoringError),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/rerank", s.Rerank)
	r.Get("/", s.Status)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Rerank handles POST /rerank.
func (s *Server) Rerank(w http.ResponseWriter, r *http.Request) {
	var req RerankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	domReq, err := domrerank.New(
		req.Query, req.Documents,
		derefInt(req.TopN), derefFloat(req.MinScore), req.MinScore != nil,
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	results, err := s.rerank.Rerank(r.Context(), &domReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]RankResult, len(results))
	for i := range results {
		items[i] = RankResult{
			Index:    results[i].Index(),
			Document: DocumentInfo{Text: results[i].Text()},
			Score:    results[i].Score(),
		}
	}

	writeJSON(w, http.StatusOK, RerankResponse{Results: items})
}

// Status handles GET /.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "rerankd is running",
		Model:   s.model,
		Version: version.Version,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrRateLimited,
		domain.ErrScoringProviderError,
		domain.ErrScoreCountMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
