package abekm

import (
	"context"

	"github.com/arkwith7/abekm/internal/domain/search/request"
	"github.com/arkwith7/abekm/internal/domain/search/result"
	healthuc "github.com/arkwith7/abekm/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req *request.Request) (result.Response, error)
	last     *request.Request
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	m.last = req
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return result.Response{Results: []result.Item{}}, nil
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- helpers ---

func testClient(searchSvc searchUseCase, healthSvc healthUseCase, obs *observer) *Client {
	return &Client{searchSvc: searchSvc, healthSvc: healthSvc, obs: obs}
}
