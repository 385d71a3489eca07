package mode

// Mode is the caller's search intent.
type Mode string

// Search mode constants.
const (
	// Hybrid fuses dense and lexical signals.
	Hybrid   Mode = "hybrid"
	Semantic Mode = "semantic"
	Keyword  Mode = "keyword"
	// Image searches the CLIP index with a vision embedding of the query.
	Image Mode = "image"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Semantic || m == Keyword || m == Image
}

// UsesDense reports whether the mode runs a dense vector retriever.
func (m Mode) UsesDense() bool { return m != Keyword }

// UsesLexical reports whether the mode runs the keyword and fulltext retrievers.
func (m Mode) UsesLexical() bool { return m == Hybrid || m == Keyword }
