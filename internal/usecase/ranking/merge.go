package ranking

import (
	"sort"

	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/result"
)

type merged struct {
	source  candidate.Source
	methods candidate.MethodSet
	raw     map[candidate.Method]float64
}

// Merge folds candidates from every method into one entry per chunk, keeping each
// method's best raw score. The output is ordered by document id, then chunk id.
func Merge(cands []candidate.Candidate) []result.Combined {
	byKey := make(map[candidate.Key]*merged, len(cands))
	for _, c := range cands {
		m, ok := byKey[c.Key()]
		if !ok {
			m = &merged{source: c.Source(), raw: make(map[candidate.Method]float64, 2)}
			byKey[c.Key()] = m
		}
		fillSource(&m.source, c.Source())
		m.methods = m.methods.With(c.Method())
		if prev, seen := m.raw[c.Method()]; !seen || c.RawScore() > prev {
			m.raw[c.Method()] = c.RawScore()
		}
	}

	keys := make([]candidate.Key, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].DocumentID != keys[j].DocumentID {
			return keys[i].DocumentID < keys[j].DocumentID
		}
		return keys[i].ChunkID < keys[j].ChunkID
	})

	out := make([]result.Combined, 0, len(keys))
	for _, k := range keys {
		m := byKey[k]
		out = append(out, result.NewCombined(m.source, m.methods, m.raw, 0))
	}
	return out
}

// fillSource completes text fields some retrievers do not return.
func fillSource(dst *candidate.Source, src candidate.Source) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Excerpt == "" {
		dst.Excerpt = src.Excerpt
	}
	if dst.ContainerID == "" {
		dst.ContainerID = src.ContainerID
	}
}
