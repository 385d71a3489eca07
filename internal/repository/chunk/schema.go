package chunk

import (
	"github.com/arkwith7/abekm/internal/db"
)

// Hash field names of a chunk document.
const (
	FieldDocumentID  = "document_id"
	FieldChunkID     = "chunk_id"
	FieldChunkIndex  = "chunk_index"
	FieldContainer   = "container_id"
	FieldModality    = "modality"
	FieldLanguage    = "language"
	FieldTitle       = "title"
	FieldContent     = "content"
	FieldTextVector  = "text_vector"
	FieldImageVector = "image_vector"
)

// returnFields are loaded for every hit; vectors are never returned.
var returnFields = []string{
	FieldDocumentID, FieldChunkID, FieldChunkIndex, FieldContainer,
	FieldModality, FieldTitle, FieldContent,
}

// textFields are searched by the lexical retrievers.
var textFields = []string{FieldTitle, FieldContent}

// Space selects one of the two dense vector columns.
type Space int

const (
	// SpaceText is the text embedding column.
	SpaceText Space = iota
	// SpaceImage is the CLIP image embedding column.
	SpaceImage
)

func (s Space) field() string {
	if s == SpaceImage {
		return FieldImageVector
	}
	return FieldTextVector
}

func (s Space) String() string {
	if s == SpaceImage {
		return "image"
	}
	return "text"
}

// IndexOptions describes the chunk index.
type IndexOptions struct {
	Name          string
	KeyPrefix     string // e.g. "abekm:"; chunk keys are <prefix>chunk:<document_id>:<chunk_id>
	Language      string
	TextDim       int
	ImageDim      int
	Algorithm     db.VectorAlgorithm
	HNSWM         int
	HNSWEFConst   int
	EFRuntime     int
	TitleWeight   float64
	ContentWeight float64
}

func (o IndexOptions) chunkPrefix() string { return o.KeyPrefix + "chunk:" }

// buildIndex creates the FT definition for chunk hashes.
func buildIndex(o IndexOptions) (*db.IndexDefinition, error) {
	return db.NewIndex(o.Name).
		Prefix(o.chunkPrefix()).
		Language(o.Language).
		KeepStopwords().
		ID(FieldDocumentID).
		ID(FieldChunkID).
		ID(FieldContainer).
		Tag(FieldModality).
		Tag(FieldLanguage).
		Numeric(FieldChunkIndex, true).
		Text(FieldTitle, o.TitleWeight).
		Text(FieldContent, o.ContentWeight).
		Vector(FieldTextVector, o.TextDim, o.Algorithm, db.DistanceCosine, o.HNSWM, o.HNSWEFConst).
		Vector(FieldImageVector, o.ImageDim, o.Algorithm, db.DistanceCosine, o.HNSWM, o.HNSWEFConst).
		Build()
}
