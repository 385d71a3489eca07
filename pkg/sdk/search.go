package abekm

import (
	"context"
	"fmt"
	"time"

	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
	"github.com/arkwith7/abekm/internal/domain/search/request"
	"github.com/arkwith7/abekm/internal/domain/search/result"
)

// searchUseCase is the internal interface for search.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (result.Response, error)
}

// SearchOption configures one search.
type SearchOption func(*searchParams)

type searchParams struct {
	containers     []string
	mode           SearchMode
	modalities     []Modality
	limit          int
	imageEmbedding []float32
}

// InContainers restricts the search to the given containers. Containers the user
// cannot read are dropped. Without it, every readable container is searched.
func InContainers(ids ...string) SearchOption {
	return func(p *searchParams) { p.containers = append(p.containers, ids...) }
}

// WithMode sets the search mode. Default: hybrid.
func WithMode(m SearchMode) SearchOption {
	return func(p *searchParams) { p.mode = m }
}

// WithModalities restricts results to the given chunk kinds.
func WithModalities(mods ...Modality) SearchOption {
	return func(p *searchParams) { p.modalities = append(p.modalities, mods...) }
}

// WithLimit caps the number of files returned. Default: 20, max 100.
func WithLimit(n int) SearchOption {
	return func(p *searchParams) { p.limit = n }
}

// WithImageEmbedding adds a query image embedding, searched against image chunks.
func WithImageEmbedding(vec []float32) SearchOption {
	return func(p *searchParams) { p.imageEmbedding = vec }
}

// Search runs a hybrid search on behalf of userID.
// Retriever failures degrade the response instead of failing it; see Response.Degraded.
func (c *Client) Search(ctx context.Context, userID, query string, opts ...SearchOption) (Response, error) {
	start := time.Now()

	var p searchParams
	for _, o := range opts {
		o(&p)
	}

	mods := make([]candidate.Modality, len(p.modalities))
	for i, m := range p.modalities {
		mods[i] = candidate.Modality(m)
	}
	req, err := request.New(query, userID, p.containers, mode.Mode(p.mode), mods, p.limit, p.imageEmbedding)
	if err != nil {
		c.obs.observeSearch(start, 0, nil, err)
		return Response{}, fmt.Errorf("search: %w", err)
	}

	resp, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		c.obs.observeSearch(start, 0, nil, err)
		return Response{}, fmt.Errorf("search: %w", err)
	}
	out := fromResponse(resp)
	c.obs.observeSearch(start, len(out.Results), resp.Degraded, nil)
	return out, nil
}

// QueryBuilder is a fluent builder for searches.
type QueryBuilder struct {
	client *Client
	userID string
	query  string
	opts   []SearchOption
}

// Query starts a fluent search on behalf of userID.
func (c *Client) Query(userID string) *QueryBuilder {
	return &QueryBuilder{client: c, userID: userID}
}

// Text sets the query text.
func (b *QueryBuilder) Text(q string) *QueryBuilder {
	b.query = q
	return b
}

// Containers restricts the search to the given containers.
func (b *QueryBuilder) Containers(ids ...string) *QueryBuilder {
	b.opts = append(b.opts, InContainers(ids...))
	return b
}

// Mode sets the search mode.
func (b *QueryBuilder) Mode(m SearchMode) *QueryBuilder {
	b.opts = append(b.opts, WithMode(m))
	return b
}

// Modalities restricts results to the given chunk kinds.
func (b *QueryBuilder) Modalities(mods ...Modality) *QueryBuilder {
	b.opts = append(b.opts, WithModalities(mods...))
	return b
}

// Limit caps the number of files returned.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	b.opts = append(b.opts, WithLimit(n))
	return b
}

// Image adds a query image embedding.
func (b *QueryBuilder) Image(vec []float32) *QueryBuilder {
	b.opts = append(b.opts, WithImageEmbedding(vec))
	return b
}

// Do executes the search.
func (b *QueryBuilder) Do(ctx context.Context) (Response, error) {
	return b.client.Search(ctx, b.userID, b.query, b.opts...)
}
