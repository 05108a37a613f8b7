package metrics

import "github.com/prometheus/client_golang/prometheus"

// Explanation (LLM) Prometheus metrics.
var (
	ExplanationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retailrec",
			Name:      "explanation_requests_total",
			Help:      "Total number of explanation generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	ExplanationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retailrec",
			Name:      "explanation_request_duration_seconds",
			Help:      "Explanation generation duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	ExplanationCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retailrec",
			Name:      "explanation_cache_total",
			Help:      "Explanation cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var explMetricsRegistered bool

// RegisterExplanationMetrics registers explanation metrics. Must be called once from main.
func RegisterExplanationMetrics() {
	if explMetricsRegistered {
		return
	}
	prometheus.MustRegister(ExplanationRequestsTotal)
	prometheus.MustRegister(ExplanationRequestDuration)
	prometheus.MustRegister(ExplanationCacheTotal)
	explMetricsRegistered = true
}
