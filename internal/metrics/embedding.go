package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every faqdex metric.
const Namespace = "faqdex"

// Provider call metrics. Labels carry provider and model so a model switch
// shows up as a new series rather than a shift in an old one.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Embedding provider calls by outcome",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "embedding",
			Name:      "request_duration_seconds",
			Help:      "Embedding provider call latency",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"provider", "model"},
	)

	EmbeddingBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "embedding",
			Name:      "batch_size",
			Help:      "Texts sent per embedding provider call",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "embedding",
			Name:      "tokens_total",
			Help:      "Tokens billed by the embedding provider",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "embedding",
			Name:      "errors_total",
			Help:      "Failed embedding provider calls by cause",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "embedding",
			Name:      "cache_total",
			Help:      "Query embedding cache lookups",
		},
		[]string{"result"},
	)
)

var embMetricsOnce sync.Once

// RegisterEmbeddingMetrics registers the embedding collectors with the default
// registry. Safe for concurrent use.
func RegisterEmbeddingMetrics() {
	embMetricsOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingBatchSize,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
		)
	})
}

// ObserveEmbeddingCall records a successful provider call of batch texts.
func ObserveEmbeddingCall(provider, model string, batch int, took time.Duration, promptTokens, totalTokens int) {
	EmbeddingRequestsTotal.WithLabelValues(provider, model, "success").Inc()
	EmbeddingRequestDuration.WithLabelValues(provider, model).Observe(took.Seconds())
	EmbeddingBatchSize.WithLabelValues(provider, model).Observe(float64(batch))
	if totalTokens > 0 {
		EmbeddingTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
		EmbeddingTokensTotal.WithLabelValues(provider, model, "total").Add(float64(totalTokens))
	}
}

// ObserveEmbeddingFailure records a failed provider call.
func ObserveEmbeddingFailure(provider, model, kind string) {
	EmbeddingRequestsTotal.WithLabelValues(provider, model, "error").Inc()
	EmbeddingErrorsTotal.WithLabelValues(provider, model, kind).Inc()
}
