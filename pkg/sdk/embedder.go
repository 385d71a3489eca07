package abekm

import (
	"context"
	"fmt"

	"github.com/arkwith7/abekm/internal/domain"
)

// Embedder turns query text into a dense vector. Implementations may also
// provide HealthCheck(ctx) error, which Client.Health then reports.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is one vector and the tokens it cost.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// embedderAdapter exposes a caller's Embedder to the engine. Any error it
// returns becomes ErrEmbeddingProviderError, which the engine treats as a
// degraded retriever rather than a failed search.
type embedderAdapter struct {
	inner Embedder
}

func (a embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %v", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult(r), nil
}

func (a embedderAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(healthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// adapt maps a nil Embedder to a nil engine embedder so that space stays disabled.
func adapt(e Embedder) domain.Embedder {
	if e == nil {
		return nil
	}
	return embedderAdapter{inner: e}
}
