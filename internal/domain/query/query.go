package query

import "strings"

// Language tags produced by the preprocessor.
const (
	LangKorean  = "ko"
	LangEnglish = "en"
	LangMixed   = "mixed"
	LangUnknown = "unknown"
)

// Intent tags produced by the preprocessor.
const (
	IntentGeneral = "general"
	IntentImage   = "image"
)

// Fields carries preprocessor output into New.
type Fields struct {
	Original        string
	Normalized      string
	Language        string
	Intent          string
	Keywords        []string
	Embedding       []float32
	VisionEmbedding []float32
	FulltextQuery   string
	// EmbeddingErr records why a requested embedding is missing.
	EmbeddingErr    error
}

// Query is the immutable interpretation of a caller's search text.
type Query struct {
	original        string
	normalized      string
	language        string
	intent          string
	keywords        []string
	embedding       []float32
	visionEmbedding []float32
	fulltext        string
	embeddingErr    error
}

// New creates a Query, filling unset fields from the original text.
func New(f Fields) Query {
	q := Query{
		original:        f.Original,
		normalized:      f.Normalized,
		language:        f.Language,
		intent:          f.Intent,
		keywords:        append([]string(nil), f.Keywords...),
		embedding:       append([]float32(nil), f.Embedding...),
		visionEmbedding: append([]float32(nil), f.VisionEmbedding...),
		fulltext:        f.FulltextQuery,
		embeddingErr:    f.EmbeddingErr,
	}
	if q.normalized == "" {
		q.normalized = strings.Join(strings.Fields(f.Original), " ")
	}
	if q.language == "" {
		q.language = LangUnknown
	}
	if q.intent == "" {
		q.intent = IntentGeneral
	}
	if q.fulltext == "" {
		q.fulltext = q.normalized
	}
	return q
}

// Minimal builds the fallback Query used when preprocessing fails:
// whitespace-split keywords, the original text as fulltext query, no embedding.
func Minimal(raw string) Query {
	return New(Fields{Original: raw, Keywords: strings.Fields(raw), FulltextQuery: raw})
}

// Original returns the caller's text.
func (q Query) Original() string { return q.original }

// Normalized returns the normalized text.
func (q Query) Normalized() string { return q.normalized }

// Language returns the language tag.
func (q Query) Language() string { return q.language }

// Intent returns the intent tag.
func (q Query) Intent() string { return q.intent }

// Keywords returns a copy of the extracted keywords.
func (q Query) Keywords() []string { return append([]string(nil), q.keywords...) }

// Embedding returns the text dense embedding, nil when unavailable.
func (q Query) Embedding() []float32 { return q.embedding }

// VisionEmbedding returns the CLIP text embedding, nil when unavailable.
func (q Query) VisionEmbedding() []float32 { return q.visionEmbedding }

// FulltextQuery returns the query string for the loose lexical retriever.
func (q Query) FulltextQuery() string { return q.fulltext }

// HasEmbedding reports whether a text embedding is present.
func (q Query) HasEmbedding() bool { return len(q.embedding) > 0 }

// EmbeddingErr returns the failure of a requested embedding, nil when none failed.
func (q Query) EmbeddingErr() error { return q.embeddingErr }

// IsShort reports whether the query has at most maxTerms whitespace-separated terms.
func (q Query) IsShort(maxTerms int) bool {
	return len(strings.Fields(q.normalized)) <= maxTerms
}
