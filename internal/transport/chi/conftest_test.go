package chi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arkwith7/abekm/internal/domain/search/request"
	"github.com/arkwith7/abekm/internal/domain/search/result"
	healthuc "github.com/arkwith7/abekm/internal/usecase/health"
)

// mockSearcher implements Searcher for tests.
type mockSearcher struct {
	searchFn func(ctx context.Context, req *request.Request) (result.Response, error)
	last     *request.Request
}

func (m *mockSearcher) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	m.last = req
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return result.Response{Results: []result.Item{}}, nil
}

// mockHealth implements HealthChecker for tests.
type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(s Searcher, h HealthChecker, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(IdentityMiddleware())
	var gatherer prometheus.Gatherer
	if reg != nil {
		gatherer = reg
	}
	NewServer(s, h, gatherer, nil).Routes(r)
	return r
}
