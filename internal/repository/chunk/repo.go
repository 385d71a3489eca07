package chunk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/arkwith7/abekm/internal/db"
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/filter"
)

// store is the consumer interface for the chunk index (ISP).
type store interface {
	db.IndexManager
	db.SessionProvider
}

// Hit is one chunk returned by the index with its method-specific score.
type Hit struct {
	Source candidate.Source
	// Score is cosine similarity for dense search and the scorer output for lexical search.
	Score float64
	// Distance is the raw cosine distance for dense search.
	Distance float64
}

// LexicalQuery describes one ranked text search.
type LexicalQuery struct {
	Terms    []string
	Mode     db.TextMode
	Language string
	Scorer   string
}

// Repo queries the chunk index.
type Repo struct {
	store store
	opts  IndexOptions
}

// New creates a chunk repository.
func New(s store, opts IndexOptions) *Repo {
	if opts.Algorithm == "" {
		opts.Algorithm = db.VectorHNSW
	}
	return &Repo{store: s, opts: opts}
}

// EnsureIndex creates the chunk index when it is missing.
func (r *Repo) EnsureIndex(ctx context.Context) (created bool, err error) {
	exists, err := r.store.IndexExists(ctx, r.opts.Name)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", r.opts.Name, err)
	}
	if exists {
		return false, nil
	}

	def, err := buildIndex(r.opts)
	if err != nil {
		return false, fmt.Errorf("build index %s: %w", r.opts.Name, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", r.opts.Name, err)
	}
	return true, nil
}

// Conn is a chunk search connection held for one retrieval task.
type Conn interface {
	Dense(ctx context.Context, space Space, vector []float32, filters filter.Expression, k int) ([]Hit, error)
	Lexical(ctx context.Context, q LexicalQuery, filters filter.Expression, k int) ([]Hit, error)
	Close()
}

var _ Conn = (*Session)(nil)

// Open takes a dedicated connection for one retrieval task.
func (r *Repo) Open(ctx context.Context) (Conn, error) {
	s, err := r.store.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("open chunk session: %w", err)
	}
	return &Session{conn: s, opts: r.opts}, nil
}

// Session runs chunk searches over one connection. Close releases it.
type Session struct {
	conn db.Session
	opts IndexOptions
}

// Close releases the connection.
func (s *Session) Close() {
	s.conn.Release()
}

// Dense runs a nearest-neighbor search on the selected vector column.
func (s *Session) Dense(
	ctx context.Context, space Space, vector []float32, filters filter.Expression, k int,
) ([]Hit, error) {
	sr, err := s.conn.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    s.opts.Name,
		VectorField:  space.field(),
		Filters:      tagFilters(filters),
		Vector:       vector,
		K:            k,
		EFRuntime:    s.opts.EFRuntime,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("dense search %s: %w", space, err)
	}
	return s.toHits(sr, filters), nil
}

// Lexical runs a ranked text search over title and content.
func (s *Session) Lexical(
	ctx context.Context, q LexicalQuery, filters filter.Expression, k int,
) ([]Hit, error) {
	sr, err := s.conn.SearchText(ctx, &db.TextQuery{
		IndexName:    s.opts.Name,
		TextFields:   textFields,
		Terms:        q.Terms,
		Mode:         q.Mode,
		Filters:      tagFilters(filters),
		TopK:         k,
		Language:     q.Language,
		Scorer:       q.Scorer,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("lexical search %s: %w", q.Mode, err)
	}
	return s.toHits(sr, filters), nil
}

func tagFilters(f filter.Expression) []db.TagFilter {
	out := []db.TagFilter{{Field: FieldContainer, Values: f.Containers()}}
	if mods := f.Modalities(); len(mods) > 0 {
		values := make([]string, len(mods))
		for i, m := range mods {
			values[i] = string(m)
		}
		out = append(out, db.TagFilter{Field: FieldModality, Values: values})
	}
	return out
}

// toHits maps entries to hits, dropping any chunk outside the allowed containers.
func (s *Session) toHits(sr *db.SearchResult, filters filter.Expression) []Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(filters.Containers()))
	for _, id := range filters.Containers() {
		allowed[id] = struct{}{}
	}

	hits := make([]Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		src, ok := s.parseSource(e)
		if !ok {
			continue
		}
		if _, ok := allowed[src.ContainerID]; !ok {
			continue
		}
		if !filters.AllowsModality(src.Modality) {
			continue
		}
		hits = append(hits, Hit{Source: src, Score: e.Score, Distance: e.Distance})
	}
	return hits
}

// parseSource reads chunk facts from hash fields, falling back to the key for identifiers.
func (s *Session) parseSource(e db.SearchEntry) (candidate.Source, bool) {
	docID := e.Fields[FieldDocumentID]
	chunkID := e.Fields[FieldChunkID]
	if docID == "" || chunkID == "" {
		rest := strings.TrimPrefix(e.Key, s.opts.chunkPrefix())
		d, c, ok := strings.Cut(rest, ":")
		if !ok || rest == e.Key {
			return candidate.Source{}, false
		}
		if docID == "" {
			docID = d
		}
		if chunkID == "" {
			chunkID = c
		}
	}
	if docID == "" || chunkID == "" {
		return candidate.Source{}, false
	}

	idx, err := strconv.Atoi(e.Fields[FieldChunkIndex])
	if err != nil {
		idx = 0
	}

	return candidate.Source{
		DocumentID:  docID,
		ChunkID:     chunkID,
		ChunkIndex:  idx,
		ContainerID: e.Fields[FieldContainer],
		Modality:    candidate.ParseModality(e.Fields[FieldModality]),
		Title:       e.Fields[FieldTitle],
		Excerpt:     e.Fields[FieldContent],
	}, true
}
