// Package db declares the storage contracts of the search engine: the chunk
// store with its FT index, the query-embedding cache, and search sessions.
// Consumers depend on the narrow interfaces, never on Store.
package db

import (
	"context"
	"time"
)

// Store is everything the Redis implementation offers; main and the SDK wire it.
//
//nolint:interfacebloat // composition of the narrow contracts below
type Store interface {
	Pinger
	KVStore
	IndexManager
	Searcher
	SessionProvider
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore holds expiring cache entries.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager creates and probes FT indexes.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs the two FT.SEARCH shapes the retrievers need.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
}

// Session is a Searcher pinned to one pooled connection. One goroutine uses it,
// then releases it.
type Session interface {
	Searcher
	Release()
}

// SessionProvider hands each concurrent retriever its own Session.
type SessionProvider interface {
	Session(ctx context.Context) (Session, error)
}
