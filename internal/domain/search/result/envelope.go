package result

// Item is the caller-facing record for one document.
type Item struct {
	DocumentID        string   `json:"document_id"`
	ChunkID           string   `json:"chunk_id"`
	Title             string   `json:"title"`
	ContentPreview    string   `json:"content_preview"`
	SimilarityScore   float64  `json:"similarity_score"`
	SimilarityPercent float64  `json:"similarity_percent"`
	MatchType         string   `json:"match_type"`
	ContainerID       string   `json:"container_id"`
	ContainerName     string   `json:"container_name"`
	ContainerPath     string   `json:"container_path"`
	Modality          string   `json:"modality"`
	HasImages         bool     `json:"has_images"`
	ImageCount        int      `json:"image_count"`
	ChunkCount        int      `json:"chunk_count"`
	ThumbnailRef      *string  `json:"thumbnail_ref,omitempty"`
	Methods           []string `json:"methods"`
}

// QueryInfo echoes how the query was interpreted.
type QueryInfo struct {
	Language string   `json:"language"`
	Intent   string   `json:"intent"`
	Keywords []string `json:"keywords"`
}

// Response is the search envelope.
type Response struct {
	Results  []Item    `json:"results"`
	Total    int       `json:"total"`
	Message  string    `json:"message,omitempty"`
	Query    QueryInfo `json:"query"`
	Degraded []string  `json:"degraded,omitempty"`
}

// Empty returns a successful response with no results.
func Empty(message string) Response {
	return Response{Results: []Item{}, Message: message}
}
