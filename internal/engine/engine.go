// Package engine assembles the search pipeline from configuration. It is the shared
// composition root of the HTTP server and the in-process SDK.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arkwith7/abekm/internal/config"
	"github.com/arkwith7/abekm/internal/db"
	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/metrics"
	"github.com/arkwith7/abekm/internal/repository/chunk"
	"github.com/arkwith7/abekm/internal/repository/embcache"
	"github.com/arkwith7/abekm/internal/repository/permission"
	openaiEmb "github.com/arkwith7/abekm/internal/transport/openai"
	"github.com/arkwith7/abekm/internal/usecase/access"
	embeddinguc "github.com/arkwith7/abekm/internal/usecase/embedding"
	"github.com/arkwith7/abekm/internal/usecase/format"
	healthuc "github.com/arkwith7/abekm/internal/usecase/health"
	queryuc "github.com/arkwith7/abekm/internal/usecase/query"
	"github.com/arkwith7/abekm/internal/usecase/ranking"
	"github.com/arkwith7/abekm/internal/usecase/retrieval"
	searchuc "github.com/arkwith7/abekm/internal/usecase/search"
)

// Store is the chunk store surface the engine needs.
type Store interface {
	db.Pinger
	db.KVStore
	db.IndexManager
	db.SessionProvider
}

// PermissionDB is the permission database surface the engine needs.
type PermissionDB interface {
	Ping(ctx context.Context) error
	Conn() *sql.DB
}

// Embedders holds the undecorated providers. Either may be nil.
type Embedders struct {
	Text   domain.Embedder
	Vision domain.Embedder
}

// Engine is the assembled search pipeline.
type Engine struct {
	Search *searchuc.Service
	Health *healthuc.Service
	Chunks *chunk.Repo

	autoCreate bool
}

// New wires every component. cfg must have defaults applied; perms must not be nil.
func New(cfg config.Config, store Store, perms PermissionDB, emb Embedders, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	chunks := chunk.New(store, chunk.IndexOptions{
		Name:          cfg.Index.Name,
		KeyPrefix:     cfg.Index.KeyPrefix,
		Language:      cfg.Index.Language,
		TextDim:       cfg.Embedding.Text.Dimensions,
		ImageDim:      cfg.Embedding.Vision.Dimensions,
		Algorithm:     db.ParseVectorAlgorithm(cfg.Index.Algorithm),
		HNSWM:         cfg.Index.HNSWM,
		HNSWEFConst:   cfg.Index.HNSWEFConstruct,
		EFRuntime:     cfg.Index.EFRuntime,
		TitleWeight:   cfg.Index.TitleWeight,
		ContentWeight: cfg.Index.ContentWeight,
	})

	accessSvc := access.New(
		permission.New(perms.Conn()),
		access.NewCache(cfg.Access.CacheTTL()),
		metrics.ContainerCacheTotal,
		logger,
	)

	text := Decorate(emb.Text, cfg.Embedding.Text, cfg.Embedding, store, cfg.Index.KeyPrefix, logger)
	vision := Decorate(emb.Vision, cfg.Embedding.Vision, cfg.Embedding, store, cfg.Index.KeyPrefix, logger)

	processor := queryuc.NewFailSoft(queryuc.NewBasic(text, vision, logger), logger)

	sc := cfg.Search
	floor := retrieval.FloorPolicy{
		Thresholds: sc.VectorThresholds,
		ShortTerms: sc.ShortQueryTerms,
		ShortRelax: sc.ShortQueryRelax,
		Min:        sc.MinThreshold,
	}
	profiles := make(retrieval.Profiles, len(sc.LexicalProfiles))
	for lang, p := range sc.LexicalProfiles {
		profiles[lang] = retrieval.Profile{Language: p.Language, Scorer: p.Scorer}
	}

	searchSvc := searchuc.New(
		accessSvc,
		processor,
		retrieval.NewRunner(sc.RetrieverTimeout(), metrics.RetrieverDuration, metrics.RetrieverOutcomesTotal),
		searchuc.Retrievers{
			Vector:   retrieval.NewVector(chunks, floor),
			Keyword:  retrieval.NewKeyword(chunks, profiles),
			Fulltext: retrieval.NewFulltext(chunks, profiles),
			Image:    retrieval.NewImage(chunks),
		},
		ranking.NewRanker(ranking.Weights{
			Vector:   sc.Weights.Vector,
			Keyword:  sc.Weights.Keyword,
			Fulltext: sc.Weights.Fulltext,
			Image:    sc.Weights.Image,
		}, sc.TextOnlyCutoff),
		format.New(format.Options{
			PreviewLength: sc.PreviewLength,
			HighlightPre:  sc.HighlightPre,
			HighlightPost: sc.HighlightPost,
		}),
		searchuc.Options{
			Floor:               floor,
			CandidateMultiplier: sc.CandidateMultiplier,
			Results:             metrics.SearchResults,
		},
	)

	checkers := map[string]healthuc.EmbeddingChecker{}
	if text != nil {
		checkers["text"] = healthChecker{text}
	}
	if vision != nil {
		checkers["vision"] = healthChecker{vision}
	}

	return &Engine{
		Search:     searchSvc,
		Health:     healthuc.New(store, perms, checkers, 0),
		Chunks:     chunks,
		autoCreate: cfg.Index.AutoCreate,
	}
}

// EnsureIndex creates the chunk index when auto creation is enabled.
func (e *Engine) EnsureIndex(ctx context.Context) (bool, error) {
	if !e.autoCreate {
		return false, nil
	}
	created, err := e.Chunks.EnsureIndex(ctx)
	if err != nil {
		return false, fmt.Errorf("ensure chunk index: %w", err)
	}
	return created, nil
}

// OpenAIEmbedders creates providers for every enabled vectorizer.
func OpenAIEmbedders(cfg config.EmbeddingConfig, logger *zap.Logger) Embedders {
	build := func(vc config.VectorizerConfig) domain.Embedder {
		if !vc.Enabled() {
			return nil
		}
		prov := cfg.Providers[vc.Provider]
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:         prov.APIKey,
			BaseURL:        prov.BaseURL,
			Model:          vc.Model,
			Dimensions:     vc.Dimensions,
			Provider:       vc.Provider,
			Logger:         logger,
			SendDimensions: vc.SendDimensions,
		})
	}
	return Embedders{Text: build(cfg.Text), Vision: build(cfg.Vision)}
}

// Decorate assembles the decorator chain: provider -> Cached -> Instrumented -> Instruction.
// kv may be nil to cache in process only. A nil base returns nil.
func Decorate(
	base domain.Embedder,
	vc config.VectorizerConfig,
	ec config.EmbeddingConfig,
	kv db.KVStore,
	keyPrefix string,
	logger *zap.Logger,
) domain.Embedder {
	if base == nil {
		return nil
	}

	opts := embcache.Options{
		Model:     vc.Model,
		KeyPrefix: keyPrefix,
		TTL:       time.Duration(ec.Cache.TTLSec) * time.Second,
		LocalSize: ec.Cache.LocalSize,
		LocalTTL:  time.Duration(ec.Cache.LocalTTLSec) * time.Second,

		CallTimeout: ec.Timeout(),
	}
	var embedder domain.Embedder = embcache.New(base, kv, opts, metrics.EmbeddingCacheTotal, logger)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, vc.Provider, vc.Model, ec.Timeout(), logger)

	// outermost, so the cache key includes the instruction
	if vc.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, vc.QueryInstruction)
	}
	return embedder
}

// healthChecker adapts domain.Embedder to health.EmbeddingChecker.
type healthChecker struct {
	embedder domain.Embedder
}

func (h healthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
