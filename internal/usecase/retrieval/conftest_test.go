package retrieval

import (
	"context"
	"sync"
	"testing"

	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/filter"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
	"github.com/arkwith7/abekm/internal/repository/chunk"
)

// mockIndex implements Index for tests.
type mockIndex struct {
	openFn func(ctx context.Context) (chunk.Conn, error)
	conn   *mockConn
}

func (m *mockIndex) Open(ctx context.Context) (chunk.Conn, error) {
	if m.openFn != nil {
		return m.openFn(ctx)
	}
	return m.conn, nil
}

// mockConn implements chunk.Conn for tests.
type mockConn struct {
	denseFn   func(ctx context.Context, space chunk.Space, vector []float32, k int) ([]chunk.Hit, error)
	lexicalFn func(ctx context.Context, q chunk.LexicalQuery, k int) ([]chunk.Hit, error)

	mu      sync.Mutex
	lexical []chunk.LexicalQuery
	spaces  []chunk.Space
	closed  int
}

func (m *mockConn) Dense(
	ctx context.Context, space chunk.Space, vector []float32, _ filter.Expression, k int,
) ([]chunk.Hit, error) {
	m.mu.Lock()
	m.spaces = append(m.spaces, space)
	m.mu.Unlock()
	if m.denseFn != nil {
		return m.denseFn(ctx, space, vector, k)
	}
	return nil, nil
}

func (m *mockConn) Lexical(
	ctx context.Context, q chunk.LexicalQuery, _ filter.Expression, k int,
) ([]chunk.Hit, error) {
	m.mu.Lock()
	m.lexical = append(m.lexical, q)
	m.mu.Unlock()
	if m.lexicalFn != nil {
		return m.lexicalFn(ctx, q, k)
	}
	return nil, nil
}

func (m *mockConn) Close() {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
}

// stubRetriever implements Retriever for runner tests.
type stubRetriever struct {
	method     candidate.Method
	retrieveFn func(ctx context.Context, in Input) Outcome
}

func (s *stubRetriever) Method() candidate.Method { return s.method }

func (s *stubRetriever) Retrieve(ctx context.Context, in Input) Outcome {
	return s.retrieveFn(ctx, in)
}

func hit(doc, chunkID string, score, distance float64) chunk.Hit {
	return chunk.Hit{
		Source: candidate.Source{DocumentID: doc, ChunkID: chunkID, ContainerID: "c1", Modality: candidate.ModalityText},
		Score:  score, Distance: distance,
	}
}

func testInput(t *testing.T, q query.Query, m mode.Mode) Input {
	t.Helper()
	f, err := filter.NewExpression([]string{"c1"}, nil)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	return Input{Query: q, Filters: f, Mode: m, TopK: 30}
}

func testFloor() FloorPolicy {
	return FloorPolicy{
		Thresholds: map[string]float64{DefaultThresholdKey: 0.5, query.LangKorean: 0.45},
		ShortTerms: 2,
		ShortRelax: 0.1,
		Min:        0.3,
	}
}

func testProfiles() Profiles {
	return Profiles{
		query.LangKorean:  {Scorer: "TFIDF.DOCNORM"},
		query.LangEnglish: {Language: "english", Scorer: "BM25STD"},
	}
}

func scoresByChunk(cands []candidate.Candidate) map[string]float64 {
	out := make(map[string]float64, len(cands))
	for _, c := range cands {
		out[c.Source().ChunkID] = c.RawScore()
	}
	return out
}
