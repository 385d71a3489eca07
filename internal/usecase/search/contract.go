package search

import (
	"context"

	"github.com/arkwith7/abekm/internal/domain/container"
	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
	"github.com/arkwith7/abekm/internal/usecase/retrieval"
)

// AccessResolver is the consumer interface for container permissions (ISP).
type AccessResolver interface {
	Resolve(ctx context.Context, userID string, requested []string) container.Set
	Lookup(ctx context.Context, ids []string) map[string]container.Container
}

// QueryProcessor turns raw text into a Query. It must not fail.
type QueryProcessor interface {
	Process(ctx context.Context, raw string, m mode.Mode) query.Query
}

// Runner fans retrievers out concurrently.
type Runner interface {
	Run(ctx context.Context, retrievers []retrieval.Retriever, in retrieval.Input) []retrieval.Outcome
}

// Retrievers holds one retriever per signal. Nil entries are never run.
type Retrievers struct {
	Vector   retrieval.Retriever
	Keyword  retrieval.Retriever
	Fulltext retrieval.Retriever
	Image    retrieval.Retriever
}
