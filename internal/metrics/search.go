package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and ranking metrics.
var (
	RetrieverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retriever_duration_seconds",
			Help:      "Signal retriever duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method"},
	)

	RetrieverOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retriever_outcomes_total",
			Help:      "Signal retriever outcomes",
		},
		[]string{"method", "outcome"}, // ok, empty, skipped, error, timeout
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Result counts per search pipeline stage",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 200, 500},
		},
		[]string{"stage"}, // candidates, filtered, files
	)

	ContainerCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "container_cache_total",
			Help:      "Container metadata cache hits and misses",
		},
		[]string{"result"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers retrieval, ranking and access cache metrics. Must be called once from main.
func RegisterSearchMetrics(reg prometheus.Registerer) {
	if searchMetricsRegistered {
		return
	}
	reg.MustRegister(RetrieverDuration, RetrieverOutcomesTotal, SearchResults, ContainerCacheTotal)
	searchMetricsRegistered = true
}
