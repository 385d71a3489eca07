package db

// TagFilter restricts a search to documents whose TAG field matches any of Values.
type TagFilter struct {
	Field  string
	Values []string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Filters      []TagFilter
	Vector       []float32
	K            int
	EFRuntime    int
	ReturnFields []string
}

// TextMode selects how query terms combine in a ranked text search.
type TextMode int

const (
	// MatchAll requires every term (intersection).
	MatchAll TextMode = iota
	// MatchAny accepts any term (union), so most texts score something.
	MatchAny
	// MatchPhrase requires the terms adjacent and in order.
	MatchPhrase
)

func (m TextMode) String() string {
	switch m {
	case MatchAll:
		return "all"
	case MatchAny:
		return "any"
	case MatchPhrase:
		return "phrase"
	default:
		return "unknown"
	}
}

// TextQuery is the input for ranked text search.
type TextQuery struct {
	IndexName    string
	TextFields   []string
	Terms        []string
	Mode         TextMode
	Filters      []TagFilter
	TopK         int
	Language     string
	Scorer       string
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// For KNN, Distance is the raw cosine distance and Score is max(0, 1-Distance).
// For text search, Score is the scorer output and Distance is zero.
type SearchEntry struct {
	Key      string
	Score    float64
	Distance float64
	Fields   map[string]string
}
