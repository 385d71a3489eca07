package abekm

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const metricsSubsystem = "sdk"

// Search outcomes recorded by the SDK.
const (
	outcomeOK    = "ok"
	outcomeEmpty = "empty"
	outcomeError = "error"
)

type sdkMetrics struct {
	searches *prometheus.CounterVec // outcome
	latency  prometheus.Histogram
	degraded *prometheus.CounterVec // method
	results  prometheus.Histogram   // file-level results per search
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abekm",
			Subsystem: metricsSubsystem,
			Name:      "searches_total",
			Help:      "Searches issued through the SDK by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "abekm",
			Subsystem: metricsSubsystem,
			Name:      "search_duration_seconds",
			Help:      "End-to-end SDK search latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3.5, 5, 10},
		}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abekm",
			Subsystem: metricsSubsystem,
			Name:      "degraded_searches_total",
			Help:      "Searches answered without a retriever, by retriever.",
		}, []string{"method"}),
		results: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "abekm",
			Subsystem: metricsSubsystem,
			Name:      "search_results",
			Help:      "Results returned per successful SDK search.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}),
	}

	var err error
	if m.searches, err = registerOrReuse(reg, m.searches); err != nil {
		return nil, err
	}
	if m.latency, err = registerOrReuse(reg, m.latency); err != nil {
		return nil, err
	}
	if m.degraded, err = registerOrReuse(reg, m.degraded); err != nil {
		return nil, err
	}
	if m.results, err = registerOrReuse(reg, m.results); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or returns the collector already registered under
// the same descriptor so two clients can share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("abekm: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("abekm: metric registered with incompatible type %T", are.ExistingCollector)
	}
	return existing, nil
}

// observer logs and counts SDK searches. A nil observer, logger or registry disables that part.
type observer struct {
	logger  *zap.Logger
	metrics *sdkMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newSDKMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

// observeSearch records one finished search.
func (o *observer) observeSearch(start time.Time, results int, degraded []string, err error) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)

	outcome := outcomeOK
	switch {
	case err != nil:
		outcome = outcomeError
	case results == 0:
		outcome = outcomeEmpty
	}

	if m := o.metrics; m != nil {
		m.searches.WithLabelValues(outcome).Inc()
		m.latency.Observe(elapsed.Seconds())
		if err == nil {
			m.results.Observe(float64(results))
		}
		for _, method := range degraded {
			m.degraded.WithLabelValues(method).Inc()
		}
	}

	if o.logger == nil {
		return
	}
	switch {
	case err != nil:
		o.logger.Warn("search failed", zap.Duration("elapsed", elapsed), zap.Error(err))
	case len(degraded) > 0:
		o.logger.Info("search degraded",
			zap.Duration("elapsed", elapsed), zap.Int("results", results), zap.Strings("methods", degraded))
	default:
		o.logger.Debug("search completed", zap.Duration("elapsed", elapsed), zap.Int("results", results))
	}
}
