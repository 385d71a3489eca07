package retrieval

import (
	"context"
	"fmt"

	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
	"github.com/arkwith7/abekm/internal/repository/chunk"
)

// Vector searches the dense indexes with the query's embeddings.
// It uses the text index, and the image index when the query carries a vision embedding.
// In image mode only the image index is searched.
type Vector struct {
	index Index
	floor FloorPolicy
}

// NewVector creates the vector retriever.
func NewVector(index Index, floor FloorPolicy) *Vector {
	return &Vector{index: index, floor: floor}
}

// Method implements Retriever.
func (v *Vector) Method() candidate.Method { return candidate.MethodVector }

type denseSearch struct {
	space  chunk.Space
	vector []float32
	floor  float64
}

// Retrieve implements Retriever. A query whose embeddings were requested but failed
// is reported as a failure rather than skipped.
func (v *Vector) Retrieve(ctx context.Context, in Input) Outcome {
	var searches []denseSearch
	if in.Mode != mode.Image && in.Query.HasEmbedding() {
		searches = append(searches, denseSearch{chunk.SpaceText, in.Query.Embedding(), v.floor.Floor(in.Query)})
	}
	if vis := in.Query.VisionEmbedding(); len(vis) > 0 {
		searches = append(searches, denseSearch{chunk.SpaceImage, vis, v.floor.VisionFloor()})
	}
	if len(searches) == 0 {
		if err := in.Query.EmbeddingErr(); err != nil {
			return Fail(candidate.MethodVector, err)
		}
		return Skip(candidate.MethodVector)
	}

	conn, err := v.index.Open(ctx)
	if err != nil {
		return Fail(candidate.MethodVector, err)
	}
	defer conn.Close()

	best := newBestByKey()
	for _, s := range searches {
		hits, err := conn.Dense(ctx, s.space, s.vector, in.Filters, in.TopK)
		if err != nil {
			return Fail(candidate.MethodVector, fmt.Errorf("vector %s: %w", s.space, err))
		}
		for _, h := range hits {
			if h.Score < s.floor {
				continue
			}
			best.offer(h.Source, h.Score)
		}
	}
	return Success(candidate.MethodVector, best.candidates(candidate.MethodVector))
}

// Image searches the image index with a caller-supplied query image embedding.
type Image struct {
	index Index
}

// NewImage creates the image retriever.
func NewImage(index Index) *Image {
	return &Image{index: index}
}

// Method implements Retriever.
func (r *Image) Method() candidate.Method { return candidate.MethodImage }

// Retrieve implements Retriever. Score = 1 - distance/2, so cosine distance [0,2] maps onto [1,0].
func (r *Image) Retrieve(ctx context.Context, in Input) Outcome {
	if len(in.ImageEmbedding) == 0 {
		return Skip(candidate.MethodImage)
	}

	conn, err := r.index.Open(ctx)
	if err != nil {
		return Fail(candidate.MethodImage, err)
	}
	defer conn.Close()

	hits, err := conn.Dense(ctx, chunk.SpaceImage, in.ImageEmbedding, in.Filters, in.TopK)
	if err != nil {
		return Fail(candidate.MethodImage, fmt.Errorf("image: %w", err))
	}

	best := newBestByKey()
	for _, h := range hits {
		best.offer(h.Source, 1-h.Distance/2)
	}
	return Success(candidate.MethodImage, best.candidates(candidate.MethodImage))
}
