package abekm

import "github.com/arkwith7/abekm/internal/domain/search/result"

// SearchMode selects which signals a search runs.
type SearchMode string

// Search mode constants.
const (
	ModeHybrid   SearchMode = "hybrid"
	ModeSemantic SearchMode = "semantic"
	ModeKeyword  SearchMode = "keyword"
	ModeImage    SearchMode = "image"
)

// Modality is the content kind of a chunk.
type Modality string

// Modality constants.
const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityTable Modality = "table"
)

// Result is one file in a search response, represented by its best chunk.
type Result struct {
	DocumentID        string
	ChunkID           string
	Title             string
	ContentPreview    string // HTML-escaped, terms wrapped in highlight markers
	SimilarityScore   float64
	SimilarityPercent float64
	MatchType         string // "hybrid", "vector", "keyword", "fulltext" or "image"
	ContainerID       string
	ContainerName     string
	ContainerPath     string
	Modality          Modality
	HasImages         bool
	ImageCount        int
	ChunkCount        int
	ThumbnailRef      string // empty when the file has no visual chunk
	Methods           []string
}

// QueryInfo echoes how the query was interpreted.
type QueryInfo struct {
	Language string
	Intent   string
	Keywords []string
}

// Response is a search response.
type Response struct {
	Results  []Result
	Total    int
	Message  string
	Query    QueryInfo
	Degraded []string // retrievers that failed or timed out
}

func fromResponse(r result.Response) Response {
	out := Response{
		Results: make([]Result, len(r.Results)),
		Total:   r.Total,
		Message: r.Message,
		Query: QueryInfo{
			Language: r.Query.Language,
			Intent:   r.Query.Intent,
			Keywords: append([]string(nil), r.Query.Keywords...),
		},
		Degraded: append([]string(nil), r.Degraded...),
	}
	for i, it := range r.Results {
		out.Results[i] = fromItem(it)
	}
	return out
}

func fromItem(it result.Item) Result {
	r := Result{
		DocumentID:        it.DocumentID,
		ChunkID:           it.ChunkID,
		Title:             it.Title,
		ContentPreview:    it.ContentPreview,
		SimilarityScore:   it.SimilarityScore,
		SimilarityPercent: it.SimilarityPercent,
		MatchType:         it.MatchType,
		ContainerID:       it.ContainerID,
		ContainerName:     it.ContainerName,
		ContainerPath:     it.ContainerPath,
		Modality:          Modality(it.Modality),
		HasImages:         it.HasImages,
		ImageCount:        it.ImageCount,
		ChunkCount:        it.ChunkCount,
		Methods:           append([]string(nil), it.Methods...),
	}
	if it.ThumbnailRef != nil {
		r.ThumbnailRef = *it.ThumbnailRef
	}
	return r
}
