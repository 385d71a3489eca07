package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "abekm"

// Embedding call outcomes.
const (
	EmbedOK                = "ok"
	EmbedAPIError          = "api_error"
	EmbedEmptyResponse     = "empty_response"
	EmbedDimensionMismatch = "dimension_mismatch"
)

var (
	EmbeddingCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_calls_total",
			Help:      "Embedding provider calls by outcome",
		},
		[]string{"provider", "model", "outcome"},
	)

	EmbeddingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_latency_seconds",
			Help:      "Latency of successful embedding calls",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3.5, 5},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_tokens_total",
			Help:      "Tokens billed by the embedding provider",
		},
		[]string{"provider", "model", "kind"}, // prompt, total
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Query embedding cache lookups",
		},
		[]string{"result"}, // hit, miss
	)
)

var embMetricsRegistered bool

// RegisterEmbeddingMetrics registers embedding metrics on reg. Repeated calls are no-ops.
func RegisterEmbeddingMetrics(reg prometheus.Registerer) {
	if embMetricsRegistered {
		return
	}
	reg.MustRegister(EmbeddingCallsTotal, EmbeddingLatency, EmbeddingTokensTotal, EmbeddingCacheTotal)
	embMetricsRegistered = true
}

// EmbeddingRecorder records calls for one provider and model pair.
type EmbeddingRecorder struct {
	provider, model string
}

// NewEmbeddingRecorder binds the provider and model labels.
func NewEmbeddingRecorder(provider, model string) EmbeddingRecorder {
	return EmbeddingRecorder{provider: provider, model: model}
}

// Failed counts a call that ended with outcome.
func (r EmbeddingRecorder) Failed(outcome string) {
	EmbeddingCallsTotal.WithLabelValues(r.provider, r.model, outcome).Inc()
}

// Succeeded counts a successful call with its latency and token usage.
func (r EmbeddingRecorder) Succeeded(elapsed time.Duration, promptTokens, totalTokens int) {
	EmbeddingCallsTotal.WithLabelValues(r.provider, r.model, EmbedOK).Inc()
	EmbeddingLatency.WithLabelValues(r.provider, r.model).Observe(elapsed.Seconds())
	if totalTokens > 0 {
		EmbeddingTokensTotal.WithLabelValues(r.provider, r.model, "prompt").Add(float64(promptTokens))
		EmbeddingTokensTotal.WithLabelValues(r.provider, r.model, "total").Add(float64(totalTokens))
	}
}
