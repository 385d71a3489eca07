package chunk

import (
	"context"
	"testing"

	"github.com/arkwith7/abekm/internal/db"
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/filter"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	sessionFn     func(ctx context.Context) (db.Session, error)
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) Session(ctx context.Context) (db.Session, error) {
	if m.sessionFn != nil {
		return m.sessionFn(ctx)
	}
	return &mockSession{}, nil
}

// mockSession implements db.Session for tests.
type mockSession struct {
	searchKNNFn  func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchTextFn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	released     int
}

func (m *mockSession) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockSession) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockSession) Release() { m.released++ }

func testOptions() IndexOptions {
	return IndexOptions{
		Name:      "abekm:chunks:idx",
		KeyPrefix: "abekm:",
		TextDim:   4,
		ImageDim:  2,
		EFRuntime: 10,
	}
}

func newTestSession(t *testing.T) (Conn, *mockSession) {
	t.Helper()
	ms := &mockSession{}
	repo := New(&mockStore{sessionFn: func(context.Context) (db.Session, error) { return ms, nil }}, testOptions())
	s, err := repo.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, ms
}

func mustFilter(t *testing.T, containers []string, mods ...candidate.Modality) filter.Expression {
	t.Helper()
	e, err := filter.NewExpression(containers, mods)
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}
	return e
}
