package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/arkwith7/abekm/internal/db"
	"github.com/arkwith7/abekm/internal/domain"
)

// Tier defaults applied to zero Options fields.
const (
	DefaultLocalSize   = 1000
	DefaultLocalTTL    = 5 * time.Minute
	DefaultTTL         = time.Hour
	DefaultCallTimeout = 10 * time.Second
)

const keyNamespace = "emb_cache:"

// kv is the shared tier, usually the chunk store's Redis.
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures the cache tiers.
type Options struct {
	Model     string // part of the key so switching models never serves stale vectors
	KeyPrefix string
	TTL       time.Duration
	LocalSize int
	LocalTTL  time.Duration

	// CallTimeout bounds one provider call shared by concurrent misses.
	CallTimeout time.Duration
}

// CachedEmbedder serves query embeddings from an in-process LRU, then the shared
// kv tier, then the wrapped provider. Concurrent misses on one key share a single
// provider call that no caller's cancellation can abort. Only the caller that
// started the call reports its tokens; hits and joiners report zero.
type CachedEmbedder struct {
	inner  domain.Embedder
	shared kv
	local  *expirable.LRU[string, []float32]
	flight singleflight.Group
	seq    atomic.Uint64

	model       string
	prefix      string
	ttl         time.Duration
	callTimeout time.Duration

	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New wraps inner. shared may be nil for a process-local cache; lookups may be nil.
func New(
	inner domain.Embedder,
	shared kv,
	opts Options,
	lookups *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	size := cmpOr(opts.LocalSize, DefaultLocalSize)
	localTTL := cmpOr(opts.LocalTTL, DefaultLocalTTL)

	return &CachedEmbedder{
		inner:   inner,
		shared:  shared,
		local:   expirable.NewLRU[string, []float32](size, nil, localTTL),
		model:   opts.Model,
		prefix:  opts.KeyPrefix + keyNamespace,
		ttl:         cmpOr(opts.TTL, DefaultTTL),
		callTimeout: cmpOr(opts.CallTimeout, DefaultCallTimeout),
		lookups:     lookups,
		logger:      logger,
	}
}

// flightResult is a provider result tagged with the caller that requested it.
type flightResult struct {
	res    domain.EmbeddingResult
	caller uint64
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)

	if vec, ok := c.lookup(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: slices.Clone(vec)}, nil
	}
	c.count("miss")

	id := c.seq.Add(1)
	ch := c.flight.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callTimeout)
		defer cancel()

		res, err := c.inner.Embed(fctx, text)
		if err != nil {
			return nil, err
		}
		c.local.Add(key, slices.Clone(res.Embedding))
		c.store(fctx, key, res.Embedding)
		return flightResult{res: res, caller: id}, nil
	})

	select {
	case <-ctx.Done():
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", r.Err)
		}
		fr := r.Val.(flightResult)
		out := domain.EmbeddingResult{Embedding: slices.Clone(fr.res.Embedding)}
		if fr.caller == id {
			out.PromptTokens, out.TotalTokens = fr.res.PromptTokens, fr.res.TotalTokens
		}
		return out, nil
	}
}

func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// lookup checks the local tier, then the shared one, promoting shared hits.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	if vec, ok := c.local.Get(key); ok {
		return vec, true
	}
	if c.shared == nil {
		return nil, false
	}

	raw, err := c.shared.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decodeVector(raw)
	if err != nil {
		c.logger.Warn("embedding cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	c.local.Add(key, vec)
	return vec, true
}

func (c *CachedEmbedder) store(ctx context.Context, key string, vec []float32) {
	if c.shared == nil {
		return
	}
	if err := c.shared.SetWithTTL(ctx, key, encodeVector(vec), c.ttl); err != nil {
		c.logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}

func cmpOr[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}
