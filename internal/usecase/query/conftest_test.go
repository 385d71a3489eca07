package query

import (
	"context"
	"sync/atomic"

	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
)

type mockEmbedder struct {
	vec   []float32
	err   error
	calls atomic.Int32
	last  atomic.Value // string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	m.last.Store(text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockProcessor struct {
	processFn func(ctx context.Context, raw string, m mode.Mode) (query.Query, error)
}

func (m *mockProcessor) Process(ctx context.Context, raw string, md mode.Mode) (query.Query, error) {
	return m.processFn(ctx, raw, md)
}
