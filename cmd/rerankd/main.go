package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rerankd/internal/config"
	"github.com/kailas-cloud/rerankd/internal/domain"
	logpkg "github.com/kailas-cloud/rerankd/internal/logger"
	"github.com/kailas-cloud/rerankd/internal/metrics"
	hugotScoring "github.com/kailas-cloud/rerankd/internal/scoring/hugot"
	openaiScoring "github.com/kailas-cloud/rerankd/internal/scoring/openai"
	chiTransport "github.com/kailas-cloud/rerankd/internal/transport/chi"
	healthuc "github.com/kailas-cloud/rerankd/internal/usecase/health"
	rerankuc "github.com/kailas-cloud/rerankd/internal/usecase/rerank"
	"github.com/kailas-cloud/rerankd/internal/version"
)

func main() {
	// Load .env file if it exists (for API keys)
	_ = godotenv.Load()

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rerankd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("scoring_provider", cfg.Scoring.Provider),
	)

	// Register scoring metrics explicitly (no init())
	metrics.RegisterScoringMetrics()

	// Build scorer. The model is loaded once here and shared read-only
	// across requests; load failure terminates the process.
	scorer, model, closeScorer, err := buildScorer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create scorer", zap.Error(err))
	}
	defer func() {
		if err := closeScorer(); err != nil {
			logger.Error("Error closing scorer", zap.Error(err))
		}
	}()
	logger.Info("Scorer created",
		zap.String("provider", cfg.Scoring.Provider),
		zap.String("model", model),
	)

	// Create use case services
	rerankSvc := rerankuc.New(scorer)
	healthSvc := healthuc.New(newScorerHealthChecker(scorer))

	// Create chi server
	server := chiTransport.NewServer(rerankSvc, healthSvc, model, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildScorer assembles the configured scoring provider.
// Returns the scorer, the model name for the status payload, and a closer.
func buildScorer(cfg config.Config, logger *zap.Logger) (domain.Scorer, string, func() error, error) {
	switch cfg.Scoring.Provider {
	case "hugot":
		s, err := hugotScoring.NewScorer(&hugotScoring.Config{
			ModelPath:    cfg.Scoring.Hugot.ModelPath,
			ModelRepo:    cfg.Scoring.Hugot.ModelRepo,
			OnnxFilePath: cfg.Scoring.Hugot.OnnxFilePath,
			PairTemplate: cfg.Scoring.Hugot.PairTemplate,
			Logger:       logger,
		})
		if err != nil {
			return nil, "", nil, fmt.Errorf("create hugot scorer: %w", err)
		}
		return s, s.Model(), s.Close, nil
	case "openai":
		s := openaiScoring.NewScorer(&openaiScoring.Config{
			APIKey:     cfg.Scoring.OpenAI.APIKey,
			BaseURL:    cfg.Scoring.OpenAI.BaseURL,
			Model:      cfg.Scoring.OpenAI.Model,
			Dimensions: cfg.Scoring.OpenAI.Dimensions,
			Logger:     logger,
		})
		return s, cfg.Scoring.OpenAI.Model, func() error { return nil }, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown scoring provider %q", cfg.Scoring.Provider)
	}
}

// scorerHealthChecker wraps domain.Scorer to implement health.ScorerChecker.
type scorerHealthChecker struct {
	scorer domain.Scorer
}

func newScorerHealthChecker(scorer domain.Scorer) *scorerHealthChecker {
	return &scorerHealthChecker{scorer: scorer}
}

func (h *scorerHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.scorer.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("scorer health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
