package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/metrics"
)

// Config holds the settings of one OpenAI-compatible embedding endpoint.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Provider   string
	Logger     *zap.Logger
	// SendDimensions asks the API to shorten vectors; CLIP-style models reject it.
	SendDimensions bool
}

// Embedder calls the /embeddings endpoint of an OpenAI-compatible server.
// One instance serves the text model, another the CLIP text tower of the image space.
type Embedder struct {
	client  *openai.Client
	req     openai.EmbeddingRequest
	wantDim int
	rec     metrics.EmbeddingRecorder
	logger  *zap.Logger
}

// NewEmbedder builds an Embedder from cfg.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl := openai.EmbeddingRequest{
		Model:          openai.EmbeddingModel(cfg.Model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           cfg.User,
	}
	if cfg.SendDimensions && cfg.Dimensions > 0 {
		tmpl.Dimensions = cfg.Dimensions
	}

	return &Embedder{
		client:  openai.NewClientWithConfig(clientCfg),
		req:     tmpl,
		wantDim: cfg.Dimensions,
		rec:     metrics.NewEmbeddingRecorder(cfg.Provider, cfg.Model),
		logger:  logger.With(zap.String("model", cfg.Model)),
	}
}

// Model returns the configured model name.
func (e *Embedder) Model() string { return string(e.req.Model) }

// Embed returns the vector for text. Every failure wraps domain.ErrEmbeddingProviderError.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := e.req
	req.Input = []string{text}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		e.rec.Failed(metrics.EmbedAPIError)
		e.logger.Debug("embeddings call failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return domain.EmbeddingResult{}, describeAPIError(err)
	}
	if len(resp.Data) == 0 {
		e.rec.Failed(metrics.EmbedEmptyResponse)
		return domain.EmbeddingResult{}, fmt.Errorf("%s returned no vectors: %w", req.Model, domain.ErrEmbeddingProviderError)
	}

	vec := resp.Data[0].Embedding
	if err := domain.ValidateDimensions(vec, e.wantDim); err != nil {
		e.rec.Failed(metrics.EmbedDimensionMismatch)
		return domain.EmbeddingResult{}, fmt.Errorf("%s: %w: %w", req.Model, domain.ErrEmbeddingProviderError, err)
	}

	e.rec.Succeeded(elapsed, resp.Usage.PromptTokens, resp.Usage.TotalTokens)
	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// describeAPIError turns a client error into a provider error carrying the HTTP status
// and the most specific message available.
func describeAPIError(err error) error {
	var (
		reqErr *openai.RequestError
		apiErr *openai.APIError
	)
	switch {
	case errors.As(err, &reqErr):
		msg := detailOf(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		return fmt.Errorf("embeddings %d: %s: %w", reqErr.HTTPStatusCode, msg, domain.ErrEmbeddingProviderError)
	case errors.As(err, &apiErr):
		return fmt.Errorf("embeddings %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, domain.ErrEmbeddingProviderError)
	default:
		return fmt.Errorf("embeddings: %w: %v", domain.ErrEmbeddingProviderError, err)
	}
}

// detailOf reads the FastAPI-style {"detail": "..."} body used by self-hosted CLIP servers.
func detailOf(body []byte) string {
	var v struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}
	return v.Detail
}
