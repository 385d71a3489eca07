package ranking

import (
	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
)

var defaultWeights = Weights{Vector: 0.4, Keyword: 0.5, Fulltext: 0.1, Image: 0.4}

func textChunk(doc, chunkID string, idx int, excerpt string) candidate.Source {
	return candidate.Source{
		DocumentID: doc, ChunkID: chunkID, ChunkIndex: idx,
		ContainerID: "c1", Modality: candidate.ModalityText, Excerpt: excerpt,
	}
}

func imageChunk(doc, chunkID string, idx int) candidate.Source {
	return candidate.Source{
		DocumentID: doc, ChunkID: chunkID, ChunkIndex: idx,
		ContainerID: "c1", Modality: candidate.ModalityImage,
	}
}

func cand(src candidate.Source, m candidate.Method, score float64) candidate.Candidate {
	return candidate.New(src, m, score)
}

func englishQuery(text string, keywords ...string) query.Query {
	return query.New(query.Fields{Original: text, Language: query.LangEnglish, Keywords: keywords})
}
