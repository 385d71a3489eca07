package db

import (
	"fmt"
	"strings"
)

// DistanceMetric is the vector similarity used by a VECTOR field.
type DistanceMetric string

// Distance metrics.
const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm is the index structure of a VECTOR field.
type VectorAlgorithm string

// Vector algorithms. FLAT is exact and fits small corpora; HNSW is approximate.
const (
	VectorHNSW VectorAlgorithm = "HNSW"
	VectorFlat VectorAlgorithm = "FLAT"
)

// ParseVectorAlgorithm reads the config spelling, case-insensitively. Anything but "flat" is HNSW.
func ParseVectorAlgorithm(s string) VectorAlgorithm {
	if strings.EqualFold(s, string(VectorFlat)) {
		return VectorFlat
	}
	return VectorHNSW
}

// IndexFieldType is the schema type of an indexed hash field.
type IndexFieldType int

// Field types.
const (
	IndexFieldNumeric IndexFieldType = iota
	IndexFieldTag
	IndexFieldText
	IndexFieldVector
)

// IndexField is one SCHEMA entry. Only the options of its Type are read.
type IndexField struct {
	Name string
	Type IndexFieldType

	Sortable bool // NUMERIC

	CaseSensitive bool // TAG; identifiers keep their case

	TextWeight float64 // TEXT; 0 keeps the server default of 1

	VectorAlgo        VectorAlgorithm
	VectorDim         int
	VectorDistance    DistanceMetric
	VectorM           int // HNSW edges per node
	VectorEFConstruct int // HNSW build-time candidate list
}

// IndexDefinition is an FT.CREATE ... ON HASH definition.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Language string // stemming language; empty keeps the server default
	// KeepStopwords indexes every word (STOPWORDS 0) so phrase and all-terms
	// matches see the text as written.
	KeepStopwords bool
	Fields        []IndexField
}

// Validate reports the first schema problem, wrapped in ErrInvalidSchema.
func (idx *IndexDefinition) Validate() error {
	switch {
	case idx.Name == "":
		return fmt.Errorf("%w: index name is required", ErrInvalidSchema)
	case !IsValidIdentifier(idx.Name):
		return fmt.Errorf("%w: index name %q has invalid characters", ErrInvalidSchema, idx.Name)
	case len(idx.Fields) == 0:
		return fmt.Errorf("%w: at least one field is required", ErrInvalidSchema)
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i, f := range idx.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidSchema, i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		seen[f.Name] = struct{}{}

		switch {
		case f.Type == IndexFieldVector && f.VectorDim <= 0:
			return fmt.Errorf("%w: vector field %q needs a positive dimension", ErrInvalidSchema, f.Name)
		case f.Type == IndexFieldText && f.TextWeight < 0:
			return fmt.Errorf("%w: text field %q has a negative weight", ErrInvalidSchema, f.Name)
		}
	}
	return nil
}

// IsValidIdentifier reports whether s is a non-empty run of [A-Za-z0-9_:-].
// Index and field names are spliced into commands, so nothing else is accepted.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			return false
		case r == '_' || r == ':' || r == '-':
			return false
		}
		return true
	}) < 0
}
