package candidate

import (
	"math"
	"strings"
)

// Method identifies the retrieval signal that produced a candidate.
type Method string

// Retrieval methods.
const (
	MethodVector   Method = "vector"
	MethodKeyword  Method = "keyword"
	MethodFulltext Method = "fulltext"
	MethodImage    Method = "image"
)

// Methods lists every method in canonical order.
var Methods = []Method{MethodVector, MethodKeyword, MethodFulltext, MethodImage}

// IsLexical reports whether the method scores against the ranked text index.
func (m Method) IsLexical() bool { return m == MethodKeyword || m == MethodFulltext }

// IsDense reports whether the method scores by embedding similarity.
func (m Method) IsDense() bool { return m == MethodVector || m == MethodImage }

// Modality is the content type of a chunk.
type Modality string

// Chunk modalities.
const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityTable Modality = "table"
)

// ParseModality maps a stored modality tag to a Modality. Unknown values are text.
func ParseModality(s string) Modality {
	switch Modality(strings.ToLower(strings.TrimSpace(s))) {
	case ModalityImage:
		return ModalityImage
	case ModalityTable:
		return ModalityTable
	default:
		return ModalityText
	}
}

// IsValid checks if the modality is one of the supported values.
func (m Modality) IsValid() bool {
	return m == ModalityText || m == ModalityImage || m == ModalityTable
}

// IsVisual reports whether the chunk carries little extractable text.
func (m Modality) IsVisual() bool { return m == ModalityImage || m == ModalityTable }

// Key is the merge identity of a chunk across methods.
type Key struct {
	DocumentID string
	ChunkID    string
}

// Source holds the chunk-level facts a retriever read from the store.
type Source struct {
	DocumentID  string
	ChunkID     string
	ChunkIndex  int
	ContainerID string
	Modality    Modality
	Title       string
	Excerpt     string
}

// Key returns the merge identity of the chunk.
func (s Source) Key() Key { return Key{DocumentID: s.DocumentID, ChunkID: s.ChunkID} }

// Candidate is one retrieval hit from a single method.
type Candidate struct {
	source   Source
	method   Method
	rawScore float64
}

// New creates a candidate. NaN and infinite scores become 0, negative scores are clamped to 0.
func New(source Source, method Method, rawScore float64) Candidate {
	if !source.Modality.IsValid() {
		source.Modality = ModalityText
	}
	return Candidate{source: source, method: method, rawScore: Sanitize(rawScore)}
}

// Source returns the chunk facts.
func (c Candidate) Source() Source { return c.source }

// Key returns the merge identity.
func (c Candidate) Key() Key { return c.source.Key() }

// Method returns the producing method.
func (c Candidate) Method() Method { return c.method }

// RawScore returns the method-specific score.
func (c Candidate) RawScore() float64 { return c.rawScore }

// Sanitize maps NaN and ±Inf to 0 and clamps negatives to 0.
func Sanitize(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	return score
}
