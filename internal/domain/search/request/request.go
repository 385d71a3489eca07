package request

import (
	"strings"

	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in bytes.
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Request is a validated search call from the request-handling layer.
type Request struct {
	query          string
	userID         string
	containers     []string
	searchMode     mode.Mode
	modalities     []candidate.Modality
	limit          int
	imageEmbedding []float32
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, limit=20 (clamped to 100). A query image embedding may replace the text.
func New(
	query, userID string,
	containers []string,
	m mode.Mode,
	modalities []candidate.Modality,
	limit int,
	imageEmbedding []float32,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" && len(imageEmbedding) == 0 {
		return Request{}, domain.NewValidationError("query", "is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, domain.NewValidationError("query", "is too long")
	}
	if strings.TrimSpace(userID) == "" {
		return Request{}, domain.NewValidationError("user_id", "is required")
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, domain.NewValidationError("mode", "must be one of hybrid, semantic, keyword, image")
	}
	for _, mod := range modalities {
		if !mod.IsValid() {
			return Request{}, domain.NewValidationError("modality", "must be one of text, image, table")
		}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{
		query:          query,
		userID:         userID,
		containers:     append([]string(nil), containers...),
		searchMode:     m,
		modalities:     append([]candidate.Modality(nil), modalities...),
		limit:          limit,
		imageEmbedding: append([]float32(nil), imageEmbedding...),
	}, nil
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// UserID returns the caller identity.
func (r *Request) UserID() string { return r.userID }

// Containers returns the optionally requested container subset.
func (r *Request) Containers() []string { return r.containers }

// Mode returns the caller intent.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Modalities returns the modality restriction; empty means any.
func (r *Request) Modalities() []candidate.Modality { return r.modalities }

// Limit returns the maximum number of documents to return.
func (r *Request) Limit() int { return r.limit }

// ImageEmbedding returns the pre-computed query image embedding, if any.
func (r *Request) ImageEmbedding() []float32 { return r.imageEmbedding }

// HasImage reports whether a query image embedding was supplied.
func (r *Request) HasImage() bool { return len(r.imageEmbedding) > 0 }
