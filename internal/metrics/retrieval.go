package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval cascade Prometheus metrics.
var (
	RetrievalOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retrieval_outcomes_total",
			Help:      "Search outcomes by answering tier",
		},
		[]string{"tier", "source_tier"},
	)

	RetrievalTierFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retrieval_tier_failures_total",
			Help:      "Tier calls that were unavailable and counted as a miss",
		},
		[]string{"tier", "reason"},
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "End-to-end cascade duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"tier"},
	)

	RetrievalTopScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "retrieval_top_score",
			Help:      "Top confidence produced by each tier",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"tier"},
	)

	CorpusEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "corpus_entries",
			Help:      "FAQ entries in the active corpus snapshot",
		},
	)
)

var retrievalMetricsOnce sync.Once

// RegisterRetrievalMetrics registers the retrieval collectors. Safe for concurrent use.
func RegisterRetrievalMetrics() {
	retrievalMetricsOnce.Do(func() {
		prometheus.MustRegister(RetrievalOutcomesTotal)
		prometheus.MustRegister(RetrievalTierFailuresTotal)
		prometheus.MustRegister(RetrievalDuration)
		prometheus.MustRegister(RetrievalTopScore)
		prometheus.MustRegister(CorpusEntries)
	})
}
