package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/domain/container"
	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
	"github.com/arkwith7/abekm/internal/domain/search/request"
	"github.com/arkwith7/abekm/internal/repository/chunk"
	"github.com/arkwith7/abekm/internal/usecase/format"
	"github.com/arkwith7/abekm/internal/usecase/ranking"
	"github.com/arkwith7/abekm/internal/usecase/retrieval"
)

// mockAccess implements AccessResolver for tests.
type mockAccess struct {
	resolveFn func(ctx context.Context, userID string, requested []string) container.Set
	lookupFn  func(ctx context.Context, ids []string) map[string]container.Container
}

func (m *mockAccess) Resolve(ctx context.Context, userID string, requested []string) container.Set {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, userID, requested)
	}
	return container.NewSet("c1")
}

func (m *mockAccess) Lookup(ctx context.Context, ids []string) map[string]container.Container {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, ids)
	}
	return nil
}

// mockQueries implements QueryProcessor for tests.
type mockQueries struct {
	processFn func(ctx context.Context, raw string, m mode.Mode) query.Query
}

func (m *mockQueries) Process(ctx context.Context, raw string, md mode.Mode) query.Query {
	if m.processFn != nil {
		return m.processFn(ctx, raw, md)
	}
	return query.New(query.Fields{
		Original: raw, Language: query.LangEnglish, Keywords: []string{"insulin", "pump"},
		Embedding: []float32{1, 0},
	})
}

// stubRetriever returns fixed candidates and counts calls.
type stubRetriever struct {
	method candidate.Method
	cands  []candidate.Candidate
	err    error
	calls  atomic.Int32
}

func (s *stubRetriever) Method() candidate.Method { return s.method }

func (s *stubRetriever) Retrieve(_ context.Context, _ retrieval.Input) retrieval.Outcome {
	s.calls.Add(1)
	if s.err != nil {
		return retrieval.Fail(s.method, s.err)
	}
	return retrieval.Success(s.method, s.cands)
}

type fixture struct {
	access   *mockAccess
	queries  *mockQueries
	vector   *stubRetriever
	keyword  *stubRetriever
	fulltext *stubRetriever
	image    *stubRetriever
}

func newFixture() *fixture {
	return &fixture{
		access:   &mockAccess{},
		queries:  &mockQueries{},
		vector:   &stubRetriever{method: candidate.MethodVector},
		keyword:  &stubRetriever{method: candidate.MethodKeyword},
		fulltext: &stubRetriever{method: candidate.MethodFulltext},
		image:    &stubRetriever{method: candidate.MethodImage},
	}
}

func (f *fixture) service() *Service {
	return f.serviceWith(f.queries, f.vector)
}

// serviceWith swaps in a query processor and vector retriever, leaving the other stubs.
func (f *fixture) serviceWith(queries QueryProcessor, vector retrieval.Retriever) *Service {
	return New(
		f.access, queries, retrieval.NewRunner(time.Second, nil, nil),
		Retrievers{Vector: vector, Keyword: f.keyword, Fulltext: f.fulltext, Image: f.image},
		ranking.NewRanker(ranking.Weights{Vector: 0.4, Keyword: 0.5, Fulltext: 0.1, Image: 0.4}, 0.8),
		format.New(format.Options{}),
		Options{Floor: testFloor()},
	)
}

func testFloor() retrieval.FloorPolicy {
	return retrieval.FloorPolicy{
		Thresholds: map[string]float64{retrieval.DefaultThresholdKey: 0.5},
		ShortTerms: 2, ShortRelax: 0.1, Min: 0.3,
	}
}

// downEmbedder fails every call like an unreachable provider.
type downEmbedder struct{}

func (downEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New("dial tcp: connection refused")
}

// unusedIndex fails the test if a retriever opens a store connection.
type unusedIndex struct{ t *testing.T }

func (u unusedIndex) Open(context.Context) (chunk.Conn, error) {
	u.t.Error("store connection must not be opened")
	return nil, errors.New("unexpected open")
}

func textSource(doc, chunkID, excerpt string) candidate.Source {
	return candidate.Source{
		DocumentID: doc, ChunkID: chunkID, ContainerID: "c1",
		Modality: candidate.ModalityText, Title: doc + " title", Excerpt: excerpt,
	}
}

func mustRequest(t *testing.T, q string, m mode.Mode, limit int, image []float32) *request.Request {
	t.Helper()
	req, err := request.New(q, "u1", nil, m, nil, limit, image)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return &req
}
