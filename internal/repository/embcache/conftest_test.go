package embcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/arkwith7/abekm/internal/db"
	"github.com/arkwith7/abekm/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  atomic.Int32
	// gate blocks Embed until closed when set.
	gate chan struct{}
}

func (m *mockEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return domain.EmbeddingResult{}, ctx.Err()
		}
	}
	return m.result, m.err
}

func waitForCalls(t *testing.T, m *mockEmbedder, n int32) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for m.calls.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("inner embedder reached %d calls, want %d", m.calls.Load(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	mu    sync.Mutex
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	fn := m.getFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	fn := m.setFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	ce := New(inner, ms, Options{Model: "m1", KeyPrefix: "abekm:", TTL: time.Minute}, nil, zap.NewNop())
	return ce, ms
}
