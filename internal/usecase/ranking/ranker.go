package ranking

import (
	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
	"github.com/arkwith7/abekm/internal/domain/search/result"
)

// Ranked is the ordered, deduplicated output of one ranking pass.
type Ranked struct {
	Files []result.File
	// Chunks is the number of distinct chunks merged from all methods.
	Chunks int
	// Kept is the number of chunks that passed the quality filter.
	Kept int
}

// Ranker turns raw candidates into ranked files.
type Ranker struct {
	weights        Weights
	textOnlyCutoff float64
}

// NewRanker creates a Ranker.
func NewRanker(weights Weights, textOnlyCutoff float64) *Ranker {
	return &Ranker{weights: weights, textOnlyCutoff: textOnlyCutoff}
}

// Rank runs merge, quality filter, fusion, deduplication and ordering.
// floor is the similarity a dense-only image or table chunk needs;
// active is the set of methods that ran for the request.
func (r *Ranker) Rank(
	cands []candidate.Candidate, q query.Query, floor float64,
	active candidate.MethodSet, m mode.Mode,
) Ranked {
	pool := Merge(cands)
	kept := Filter(pool, q, Policy{TextOnlyCutoff: r.textOnlyCutoff, Floor: floor})
	fused := Fuse(kept, r.weights.Effective(active, m))
	files := Dedup(fused, pool)
	Sort(files)
	return Ranked{Files: files, Chunks: len(pool), Kept: len(kept)}
}
