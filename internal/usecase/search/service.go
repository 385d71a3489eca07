package search

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/filter"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
	"github.com/arkwith7/abekm/internal/domain/search/request"
	"github.com/arkwith7/abekm/internal/domain/search/result"
	"github.com/arkwith7/abekm/internal/logger"
	"github.com/arkwith7/abekm/internal/usecase/format"
	"github.com/arkwith7/abekm/internal/usecase/ranking"
	"github.com/arkwith7/abekm/internal/usecase/retrieval"
)

// NoAccessMessage is returned when the caller can read no container.
const NoAccessMessage = "no accessible containers"

// DefaultCandidateMultiplier scales the request limit into the per-retriever budget.
const DefaultCandidateMultiplier = 3

// Options tunes the Service.
type Options struct {
	Floor retrieval.FloorPolicy
	// CandidateMultiplier times the request limit is each retriever's top-K.
	CandidateMultiplier int
	// Results observes per-stage counts; may be nil.
	Results *prometheus.HistogramVec
}

// Service runs hybrid search: access resolution, query processing, retrieval fan-out,
// fusion and filtering, deduplication and formatting.
type Service struct {
	access     AccessResolver
	queries    QueryProcessor
	runner     Runner
	retrievers Retrievers
	ranker     *ranking.Ranker
	formatter  *format.Formatter
	opts       Options
}

// New creates a search service.
func New(
	access AccessResolver, queries QueryProcessor, runner Runner, retrievers Retrievers,
	ranker *ranking.Ranker, formatter *format.Formatter, opts Options,
) *Service {
	if opts.CandidateMultiplier <= 0 {
		opts.CandidateMultiplier = DefaultCandidateMultiplier
	}
	return &Service{
		access:     access,
		queries:    queries,
		runner:     runner,
		retrievers: retrievers,
		ranker:     ranker,
		formatter:  formatter,
		opts:       opts,
	}
}

// Search executes one request. Retriever and provider failures degrade the result;
// the only errors are an invalid request and cancellation of ctx.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	if req == nil {
		return result.Response{}, domain.NewValidationError("request", "is required")
	}
	if err := ctx.Err(); err != nil {
		return result.Response{}, fmt.Errorf("search: %w", err)
	}
	log := logger.FromContext(ctx)
	start := time.Now()

	set := s.access.Resolve(ctx, req.UserID(), req.Containers())
	if set.IsEmpty() {
		log.Debug("Search has no accessible containers", zap.Int("requested", len(req.Containers())))
		return result.Empty(NoAccessMessage), nil
	}

	filters, err := filter.NewExpression(set.IDs(), req.Modalities())
	if err != nil {
		return result.Response{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	q := s.queries.Process(ctx, req.Query(), req.Mode())
	in := retrieval.Input{
		Query:          q,
		Filters:        filters,
		Mode:           req.Mode(),
		TopK:           req.Limit() * s.opts.CandidateMultiplier,
		ImageEmbedding: req.ImageEmbedding(),
	}

	outcomes := s.runner.Run(ctx, s.plan(req), in)
	if err := ctx.Err(); err != nil {
		return result.Response{}, fmt.Errorf("search: %w", err)
	}

	var (
		cands    []candidate.Candidate
		active   candidate.MethodSet
		degraded []string
	)
	for _, o := range outcomes {
		if o.Degraded() {
			degraded = append(degraded, string(o.Method))
			continue
		}
		if o.Ran() {
			active = active.With(o.Method)
			cands = append(cands, o.Candidates...)
		}
	}

	ranked := s.ranker.Rank(cands, q, s.opts.Floor.VisualFloor(q), active, req.Mode())
	files := ranked.Files
	total := len(files)
	if len(files) > req.Limit() {
		files = files[:req.Limit()]
	}

	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.Best().Source().ContainerID)
	}
	items := s.formatter.Format(files, q, s.access.Lookup(ctx, ids))

	s.observe(len(cands), ranked.Kept, total)
	log.Debug("Search completed",
		zap.String("mode", string(req.Mode())),
		zap.String("language", q.Language()),
		zap.String("methods", active.String()),
		zap.Strings("degraded", degraded),
		zap.Int("candidates", len(cands)),
		zap.Int("chunks", ranked.Chunks),
		zap.Int("kept", ranked.Kept),
		zap.Int("files", total),
		zap.Duration("duration", time.Since(start)),
	)

	keywords := q.Keywords()
	if keywords == nil {
		keywords = []string{}
	}
	return result.Response{
		Results: items,
		Total:   total,
		Query: result.QueryInfo{
			Language: q.Language(),
			Intent:   q.Intent(),
			Keywords: keywords,
		},
		Degraded: degraded,
	}, nil
}

// plan picks the retrievers a request's mode runs.
func (s *Service) plan(req *request.Request) []retrieval.Retriever {
	var out []retrieval.Retriever
	add := func(r retrieval.Retriever) {
		if r != nil {
			out = append(out, r)
		}
	}

	switch req.Mode() {
	case mode.Semantic:
		add(s.retrievers.Vector)
	case mode.Keyword:
		add(s.retrievers.Keyword)
		add(s.retrievers.Fulltext)
	case mode.Image:
		add(s.retrievers.Vector)
		if req.HasImage() {
			add(s.retrievers.Image)
		}
	default:
		add(s.retrievers.Vector)
		add(s.retrievers.Keyword)
		add(s.retrievers.Fulltext)
		if req.HasImage() {
			add(s.retrievers.Image)
		}
	}
	return out
}

func (s *Service) observe(candidates, kept, files int) {
	if s.opts.Results == nil {
		return
	}
	s.opts.Results.WithLabelValues("candidates").Observe(float64(candidates))
	s.opts.Results.WithLabelValues("filtered").Observe(float64(kept))
	s.opts.Results.WithLabelValues("files").Observe(float64(files))
}
