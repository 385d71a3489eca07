package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arkwith7/abekm/internal/config"
	dbRedis "github.com/arkwith7/abekm/internal/db/redis"
	"github.com/arkwith7/abekm/internal/db/sqlite"
	"github.com/arkwith7/abekm/internal/engine"
	logpkg "github.com/arkwith7/abekm/internal/logger"
	"github.com/arkwith7/abekm/internal/metrics"
	chiTransport "github.com/arkwith7/abekm/internal/transport/chi"
	"github.com/arkwith7/abekm/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "abekm: load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "abekm: build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("abekm search server exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run wires the engine and serves HTTP until ctx is canceled.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting abekm search server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("built", version.Date),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("chunk store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("chunk store: %w", err)
	}

	perms, err := sqlite.Open(ctx, sqlite.Config{DSN: cfg.Permissions.DSN, ReadOnly: cfg.Permissions.ReadOnly})
	if err != nil {
		return fmt.Errorf("permission db: %w", err)
	}
	defer func() { _ = perms.Close() }()
	if cfg.Permissions.Migrate {
		if err := perms.Migrate(ctx); err != nil {
			return fmt.Errorf("permission db: %w", err)
		}
	}

	metrics.RegisterEmbeddingMetrics(prometheus.DefaultRegisterer)
	metrics.RegisterSearchMetrics(prometheus.DefaultRegisterer)
	metrics.RegisterHTTPMetrics(prometheus.DefaultRegisterer)

	embedders := engine.OpenAIEmbedders(cfg.Embedding, logger)
	if embedders.Text == nil {
		logger.Warn("No text embedder configured, vector retrieval disabled")
	}
	if embedders.Vision == nil {
		logger.Warn("No vision embedder configured, text-to-image retrieval disabled")
	}

	eng := engine.New(cfg, store, perms, embedders, logger)
	created, err := eng.EnsureIndex(ctx)
	if err != nil {
		return fmt.Errorf("chunk index: %w", err)
	}
	if created {
		logger.Info("Created chunk index", zap.String("index", cfg.Index.Name))
	}

	api := chiTransport.NewServer(eng.Search, eng.Health, prometheus.DefaultGatherer, logger).
		WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      newRouter(api, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// newRouter mounts the API behind recovery, request ids, request logging,
// caller identity and HTTP metrics, in that order.
func newRouter(api *chiTransport.Server, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLog(logger))
	r.Use(chiTransport.IdentityMiddleware())
	r.Use(metrics.Middleware())
	api.Routes(r)
	return r
}
