package retrieval

import "github.com/arkwith7/abekm/internal/domain/search/candidate"

// bestByKey keeps the highest score per chunk, in first-seen order.
type bestByKey struct {
	order  []candidate.Key
	scores map[candidate.Key]float64
	srcs   map[candidate.Key]candidate.Source
}

func newBestByKey() *bestByKey {
	return &bestByKey{
		scores: make(map[candidate.Key]float64),
		srcs:   make(map[candidate.Key]candidate.Source),
	}
}

func (b *bestByKey) offer(src candidate.Source, score float64) {
	score = candidate.Sanitize(score)
	k := src.Key()
	prev, ok := b.scores[k]
	if !ok {
		b.order = append(b.order, k)
		b.srcs[k] = src
		b.scores[k] = score
		return
	}
	if score > prev {
		b.scores[k] = score
	}
}

func (b *bestByKey) candidates(m candidate.Method) []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, candidate.New(b.srcs[k], m, b.scores[k]))
	}
	return out
}
