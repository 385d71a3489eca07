package query

import (
	"context"

	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
)

// Processor turns raw caller text into a Query. It may fail.
type Processor interface {
	Process(ctx context.Context, raw string, m mode.Mode) (query.Query, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
