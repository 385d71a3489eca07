package result

import "github.com/arkwith7/abekm/internal/domain/search/candidate"

// Combined is one chunk after merging every method that returned it.
type Combined struct {
	source  candidate.Source
	methods candidate.MethodSet
	raw     map[candidate.Method]float64
	score   float64
}

// NewCombined creates a merged chunk result. The raw map is copied.
func NewCombined(
	source candidate.Source, methods candidate.MethodSet,
	raw map[candidate.Method]float64, score float64,
) Combined {
	cp := make(map[candidate.Method]float64, len(raw))
	for m, s := range raw {
		cp[m] = s
	}
	return Combined{source: source, methods: methods, raw: cp, score: score}
}

// Source returns the chunk facts.
func (c Combined) Source() candidate.Source { return c.source }

// Key returns the merge identity.
func (c Combined) Key() candidate.Key { return c.source.Key() }

// Methods returns the contributing methods.
func (c Combined) Methods() candidate.MethodSet { return c.methods }

// MatchType returns the caller-visible match type.
func (c Combined) MatchType() string { return c.methods.MatchType() }

// RawScore returns the raw score a method reported, or 0.
func (c Combined) RawScore(m candidate.Method) float64 { return c.raw[m] }

// DenseSimilarity returns the best raw similarity among dense methods.
func (c Combined) DenseSimilarity() float64 {
	return max(c.raw[candidate.MethodVector], c.raw[candidate.MethodImage])
}

// Score returns the fused combined score in [0,1].
func (c Combined) Score() float64 { return c.score }

// WithScore returns a copy carrying a new combined score.
func (c Combined) WithScore(score float64) Combined {
	c.score = score
	return c
}

// Thumbnail references the image chunk chosen to represent a document.
type Thumbnail struct {
	ChunkID    string
	ChunkIndex int
}

// File is one deduplicated hit per source document.
type File struct {
	best       Combined
	chunkCount int
	imageCount int
	thumbnail  *Thumbnail
}

// NewFile creates a document-level result. chunkCount is clamped to at least 1.
func NewFile(best Combined, chunkCount, imageCount int, thumbnail *Thumbnail) File {
	if chunkCount < 1 {
		chunkCount = 1
	}
	return File{best: best, chunkCount: chunkCount, imageCount: imageCount, thumbnail: thumbnail}
}

// Best returns the representative chunk.
func (f File) Best() Combined { return f.best }

// DocumentID returns the source document identifier.
func (f File) DocumentID() string { return f.best.source.DocumentID }

// Score returns the representative's combined score.
func (f File) Score() float64 { return f.best.score }

// ChunkCount returns the number of distinct chunks matched for the document.
func (f File) ChunkCount() int { return f.chunkCount }

// ImageCount returns the number of distinct image chunks matched for the document.
func (f File) ImageCount() int { return f.imageCount }

// HasImages reports whether any image chunk matched.
func (f File) HasImages() bool { return f.imageCount > 0 }

// Thumbnail returns the thumbnail reference, or nil.
func (f File) Thumbnail() *Thumbnail { return f.thumbnail }
