package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arkwith7/abekm/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates that search runs with fewer signals.
	Degraded Status = "degraded"
	// Unhealthy indicates that the chunk store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	CheckChunkStore  = "chunk_store"
	CheckPermissions = "permissions"
	embeddingPrefix  = "embedding_"
)

// DefaultTimeout bounds each component check.
const DefaultTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store       Pinger
	permissions Pinger
	embedders   map[string]EmbeddingChecker
	timeout     time.Duration
}

// New creates a Service. permissions and embedders may be nil.
// embedders is keyed by space name, e.g. "text" or "vision".
func New(store, permissions Pinger, embedders map[string]EmbeddingChecker, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{store: store, permissions: permissions, embedders: embedders, timeout: timeout}
}

// Check runs all component checks concurrently. A failing chunk store makes the
// report unhealthy; any other failure degrades it.
func (s *Service) Check(ctx context.Context) Report {
	type probe struct {
		name string
		fn   func(context.Context) error
	}
	probes := []probe{{CheckChunkStore, s.store.Ping}}
	if s.permissions != nil {
		probes = append(probes, probe{CheckPermissions, s.permissions.Ping})
	}
	names := make([]string, 0, len(s.embedders))
	for name := range s.embedders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if e := s.embedders[name]; e != nil {
			probes = append(probes, probe{embeddingPrefix + name, e.HealthCheck})
		}
	}

	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, len(probes))
		g      errgroup.Group
	)
	for _, p := range probes {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := CheckOK
			if err := p.fn(cctx); err != nil {
				res = CheckError
				logger.FromContext(ctx).Warn("Health check failed", zap.String("component", p.name), zap.Error(err))
			}
			mu.Lock()
			checks[p.name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for name, v := range checks {
		if v != CheckError {
			continue
		}
		if name == CheckChunkStore {
			status = Unhealthy
			break
		}
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
