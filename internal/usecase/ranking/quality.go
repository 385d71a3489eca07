package ranking

import (
	"strings"

	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/result"
)

// Policy holds the quality filter thresholds for one request.
type Policy struct {
	// TextOnlyCutoff is the similarity a dense-only text chunk needs without lexical overlap.
	TextOnlyCutoff float64
	// Floor is the retrieval-time similarity floor a dense-only image or table chunk must meet.
	Floor float64
}

// Filter drops dense-only chunks that nothing lexical corroborates.
// It is evaluated per chunk, before grouping by document.
func Filter(pool []result.Combined, q query.Query, p Policy) []result.Combined {
	terms := overlapTerms(q)
	out := make([]result.Combined, 0, len(pool))
	for _, c := range pool {
		if Keep(c, terms, p) {
			out = append(out, c)
		}
	}
	return out
}

// Keep reports whether a single chunk passes the filter. terms must be lowercase.
func Keep(c result.Combined, terms []string, p Policy) bool {
	if c.Methods().IsEmpty() {
		return false
	}
	if c.Methods().HasLexical() {
		return true
	}
	sim := c.DenseSimilarity()
	src := c.Source()
	if src.Modality.IsVisual() {
		return sim >= p.Floor
	}
	if sim >= p.TextOnlyCutoff {
		return true
	}
	return overlaps(src.Excerpt, src.Title, terms)
}

func overlapTerms(q query.Query) []string {
	kws := q.Keywords()
	terms := make([]string, 0, len(kws)+1)
	for _, k := range kws {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			terms = append(terms, k)
		}
	}
	if n := strings.ToLower(q.Normalized()); n != "" {
		terms = append(terms, n)
	}
	return terms
}

func overlaps(excerpt, title string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	excerpt = strings.ToLower(excerpt)
	title = strings.ToLower(title)
	for _, t := range terms {
		if strings.Contains(excerpt, t) || strings.Contains(title, t) {
			return true
		}
	}
	return false
}
