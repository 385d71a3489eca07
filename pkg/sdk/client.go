package abekm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arkwith7/abekm/internal/config"
	dbRedis "github.com/arkwith7/abekm/internal/db/redis"
	"github.com/arkwith7/abekm/internal/db/sqlite"
	"github.com/arkwith7/abekm/internal/engine"
	"github.com/arkwith7/abekm/internal/metrics"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	// sdkProvider labels metrics and cache keys of caller-supplied embedders.
	sdkProvider = "sdk"
)

// Client is the abekm SDK entry point.
type Client struct {
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
	closers   []func()
}

// New connects to the chunk store and the permission database and assembles the engine.
// The provided context is used for the readiness check, migration and index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("abekm: chunk store address required (use WithRedis)")
	}
	if cfg.permissionsDSN == "" {
		return nil, errors.New("abekm: permission database required (use WithPermissionsDB)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("abekm: create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("abekm: chunk store not ready: %w", err)
	}

	perms, err := sqlite.Open(ctx, sqlite.Config{DSN: cfg.permissionsDSN})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("abekm: open permission database: %w", err)
	}
	if cfg.migrate {
		if err := perms.Migrate(ctx); err != nil {
			_ = perms.Close()
			store.Close()
			return nil, fmt.Errorf("abekm: migrate permission database: %w", err)
		}
	}

	if cfg.metricsReg != nil {
		metrics.RegisterSearchMetrics(cfg.metricsReg)
		metrics.RegisterEmbeddingMetrics(cfg.metricsReg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	eng := engine.New(engineConfig(cfg), store, perms, engine.Embedders{
		Text:   adapt(cfg.embedder),
		Vision: adapt(cfg.visionEmbedder),
	}, logger)
	if _, err := eng.EnsureIndex(ctx); err != nil {
		_ = perms.Close()
		store.Close()
		return nil, fmt.Errorf("abekm: %w", err)
	}

	return &Client{
		searchSvc: eng.Search,
		healthSvc: eng.Health,
		obs:       obs,
		closers:   []func(){func() { _ = perms.Close() }, store.Close},
	}, nil
}

// engineConfig maps client options onto the engine configuration.
func engineConfig(cfg *clientConfig) config.Config {
	var ec config.Config
	ec.Index.AutoCreate = cfg.autoCreateIndex
	ec.Embedding.Text.Dimensions = cfg.textDimensions
	ec.Embedding.Vision.Dimensions = cfg.imageDimensions
	if cfg.embedder != nil {
		ec.Embedding.Text.Provider = sdkProvider
	}
	if cfg.visionEmbedder != nil {
		ec.Embedding.Vision.Provider = sdkProvider
	}
	if cfg.weights != nil {
		ec.Search.Weights = config.WeightsConfig(*cfg.weights)
	}
	if cfg.retrieverTimeout > 0 {
		ec.Search.RetrieverTimeoutMs = int(cfg.retrieverTimeout.Milliseconds())
	}
	ec.ApplyDefaults()
	return ec
}

// Close releases all resources.
func (c *Client) Close() {
	for _, fn := range c.closers {
		fn()
	}
	c.closers = nil
}
