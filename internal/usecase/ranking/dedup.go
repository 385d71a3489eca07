package ranking

import (
	"sort"

	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/result"
)

type breadth struct {
	chunks    map[string]struct{}
	images    map[string]struct{}
	thumbnail *result.Thumbnail
}

// Dedup keeps the best-scoring chunk per document. Chunk counts, image counts and
// the thumbnail are taken from pool, the merged set before quality filtering.
func Dedup(fused, pool []result.Combined) []result.File {
	stats := make(map[string]*breadth)
	for _, c := range pool {
		src := c.Source()
		b, ok := stats[src.DocumentID]
		if !ok {
			b = &breadth{chunks: make(map[string]struct{}), images: make(map[string]struct{})}
			stats[src.DocumentID] = b
		}
		b.chunks[src.ChunkID] = struct{}{}
		if src.Modality != candidate.ModalityImage {
			continue
		}
		b.images[src.ChunkID] = struct{}{}
		if b.thumbnail == nil || src.ChunkIndex < b.thumbnail.ChunkIndex ||
			(src.ChunkIndex == b.thumbnail.ChunkIndex && src.ChunkID < b.thumbnail.ChunkID) {
			b.thumbnail = &result.Thumbnail{ChunkID: src.ChunkID, ChunkIndex: src.ChunkIndex}
		}
	}

	best := make(map[string]result.Combined)
	var order []string
	for _, c := range fused {
		doc := c.Source().DocumentID
		cur, ok := best[doc]
		if !ok {
			order = append(order, doc)
			best[doc] = c
			continue
		}
		if better(c, cur) {
			best[doc] = c
		}
	}

	files := make([]result.File, 0, len(order))
	for _, doc := range order {
		var chunks, images int
		var thumb *result.Thumbnail
		if b, ok := stats[doc]; ok {
			chunks, images, thumb = len(b.chunks), len(b.images), b.thumbnail
		}
		files = append(files, result.NewFile(best[doc], chunks, images, thumb))
	}
	return files
}

func better(a, b result.Combined) bool {
	if a.Score() != b.Score() {
		return a.Score() > b.Score()
	}
	sa, sb := a.Source(), b.Source()
	if sa.ChunkIndex != sb.ChunkIndex {
		return sa.ChunkIndex < sb.ChunkIndex
	}
	return sa.ChunkID < sb.ChunkID
}

// Sort orders files by score descending, then document id ascending.
func Sort(files []result.File) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Score() != files[j].Score() {
			return files[i].Score() > files[j].Score()
		}
		return files[i].DocumentID() < files[j].DocumentID()
	})
}
