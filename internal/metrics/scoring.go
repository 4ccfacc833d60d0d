package metrics

import "github.com/prometheus/client_golang/prometheus"

// Scoring Prometheus metrics.
var (
	ScoringRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rerankd",
			Name:      "scoring_requests_total",
			Help:      "Total number of scoring requests",
		},
		[]string{"provider", "model", "status"},
	)

	ScoringRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rerankd",
			Name:      "scoring_request_duration_seconds",
			Help:      "Scoring request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	ScoringDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rerankd",
			Name:      "scoring_documents_total",
			Help:      "Total documents scored",
		},
		[]string{"provider", "model"},
	)

	ScoringErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rerankd",
			Name:      "scoring_errors_total",
			Help:      "Total scoring errors",
		},
		[]string{"provider", "model", "error_type"},
	)
)

var scoringMetricsRegistered bool

// RegisterScoringMetrics registers Prometheus scoring metrics. Must be called once from main.
func RegisterScoringMetrics() {
	if scoringMetricsRegistered {
		return
	}
	prometheus.MustRegister(ScoringRequestsTotal)
	prometheus.MustRegister(ScoringRequestDuration)
	prometheus.MustRegister(ScoringDocumentsTotal)
	prometheus.MustRegister(ScoringErrorsTotal)
	scoringMetricsRegistered = true
}
