package db

import (
	"strconv"
	"strings"
)

// IndexBuilder assembles an IndexDefinition field by field.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition for an index over hashes.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

func (b *IndexBuilder) field(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Prefix restricts the index to keys starting with any of prefixes.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Language sets the stemming language.
func (b *IndexBuilder) Language(lang string) *IndexBuilder {
	b.def.Language = lang
	return b
}

// KeepStopwords turns the server stopword list off.
func (b *IndexBuilder) KeepStopwords() *IndexBuilder {
	b.def.KeepStopwords = true
	return b
}

func (b *IndexBuilder) Numeric(name string, sortable bool) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldNumeric, Sortable: sortable})
}

func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldTag})
}

// ID adds a case-sensitive TAG for identifiers matched exactly.
func (b *IndexBuilder) ID(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldTag, CaseSensitive: true})
}

// Text adds a full-text field; weight scales its contribution to BM25 and TFIDF scores.
func (b *IndexBuilder) Text(name string, weight float64) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldText, TextWeight: weight})
}

// Vector adds a FLOAT32 vector field. m and efConstruct only apply to HNSW.
func (b *IndexBuilder) Vector(
	name string, dim int, algo VectorAlgorithm, distance DistanceMetric, m, efConstruct int,
) *IndexBuilder {
	f := IndexField{Name: name, Type: IndexFieldVector, VectorAlgo: algo, VectorDim: dim, VectorDistance: distance}
	if algo == VectorHNSW {
		f.VectorM, f.VectorEFConstruct = m, efConstruct
	}
	return b.field(f)
}

// Build returns the definition once it validates.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild is Build for definitions fixed at compile time.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String renders a short FT.CREATE form for logs: field types without their tuning.
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString("FT.CREATE " + idx.Name + " ON HASH")
	if n := len(idx.Prefixes); n > 0 {
		sb.WriteString(" PREFIX " + strconv.Itoa(n) + " " + strings.Join(idx.Prefixes, " "))
	}
	if idx.Language != "" {
		sb.WriteString(" LANGUAGE " + idx.Language)
	}
	if idx.KeepStopwords {
		sb.WriteString(" STOPWORDS 0")
	}
	sb.WriteString(" SCHEMA")
	for _, f := range idx.Fields {
		sb.WriteString(" " + f.Name)
		switch f.Type {
		case IndexFieldNumeric:
			sb.WriteString(" NUMERIC")
		case IndexFieldTag:
			sb.WriteString(" TAG")
			if f.CaseSensitive {
				sb.WriteString(" CASESENSITIVE")
			}
		case IndexFieldText:
			sb.WriteString(" TEXT")
		case IndexFieldVector:
			sb.WriteString(" VECTOR " + string(f.VectorAlgo))
		}
	}
	return sb.String()
}
