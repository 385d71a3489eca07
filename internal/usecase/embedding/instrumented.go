package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arkwith7/abekm/internal/domain"
)

// InstrumentedEmbedder bounds each call with a timeout, adds its tokens to the
// request usage and logs the outcome. Provider-level counters live in transport/openai.
type InstrumentedEmbedder struct {
	inner   domain.Embedder
	timeout time.Duration
	logger  *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. A zero timeout leaves the caller's deadline in charge.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	timeout time.Duration, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:   inner,
		timeout: timeout,
		logger:  logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	callCtx, cancel := p.bound(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.inner.Embed(callCtx, text)
	if err != nil {
		p.logger.Warn("query embedding failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
	if ce := p.logger.Check(zap.DebugLevel, "query embedded"); ce != nil {
		ce.Write(
			zap.Duration("elapsed", time.Since(start)),
			zap.Int("dims", len(res.Embedding)),
			zap.Int("tokens", res.TotalTokens),
		)
	}
	return res, nil
}

func (p *InstrumentedEmbedder) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

// HealthCheck forwards to inner when it implements domain.HealthChecker.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := p.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedder health: %w", err)
	}
	return nil
}
