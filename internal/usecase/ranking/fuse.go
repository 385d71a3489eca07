package ranking

import (
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/result"
)

// Fuse scores each chunk as the weighted sum of its method scores and min-max normalizes
// the batch into [0,1]. Lexical scores are first divided by their method's batch maximum.
// When every chunk scores the same, all scores become 1.
func Fuse(items []result.Combined, w Weights) []result.Combined {
	if len(items) == 0 {
		return nil
	}

	maxima := make(map[candidate.Method]float64, 2)
	for _, c := range items {
		for _, m := range c.Methods().Slice() {
			if m.IsLexical() && c.RawScore(m) > maxima[m] {
				maxima[m] = c.RawScore(m)
			}
		}
	}

	sums := make([]float64, len(items))
	lo, hi := 0.0, 0.0
	for i, c := range items {
		var s float64
		for _, m := range c.Methods().Slice() {
			s += w.Of(m) * normalized(c.RawScore(m), m, maxima)
		}
		s = candidate.Sanitize(s)
		sums[i] = s
		if i == 0 || s < lo {
			lo = s
		}
		if i == 0 || s > hi {
			hi = s
		}
	}

	out := make([]result.Combined, len(items))
	for i, c := range items {
		score := 1.0
		if hi > lo {
			score = (sums[i] - lo) / (hi - lo)
		}
		out[i] = c.WithScore(score)
	}
	return out
}

func normalized(raw float64, m candidate.Method, maxima map[candidate.Method]float64) float64 {
	if !m.IsLexical() {
		return min(raw, 1)
	}
	top := maxima[m]
	if top <= 0 {
		return 0
	}
	return raw / top
}
