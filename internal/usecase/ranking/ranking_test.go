package ranking

import (
	"math"
	"math/rand"
	"testing"

	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
	"github.com/arkwith7/abekm/internal/domain/search/result"
)

func TestRank_KeywordOnlyChunksCollapseToOneFile(t *testing.T) {
	r := NewRanker(defaultWeights, 0.8)
	cands := []candidate.Candidate{
		cand(textChunk("D1", "c1", 1, "insulin pump maintenance"), candidate.MethodKeyword, 12),
		cand(textChunk("D1", "c2", 2, "pump calibration"), candidate.MethodKeyword, 6),
	}

	got := r.Rank(cands, englishQuery("insulin pump", "insulin", "pump"), 0.4,
		candidate.NewMethodSet(candidate.MethodVector, candidate.MethodKeyword, candidate.MethodFulltext), mode.Hybrid)

	if len(got.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(got.Files))
	}
	f := got.Files[0]
	if f.DocumentID() != "D1" || f.ChunkCount() != 2 {
		t.Errorf("file = %s with %d chunks, want D1 with 2", f.DocumentID(), f.ChunkCount())
	}
	if f.Best().MatchType() != "keyword" {
		t.Errorf("match type = %q, want keyword", f.Best().MatchType())
	}
	if f.Best().Source().ChunkID != "c1" {
		t.Errorf("representative = %s, want c1", f.Best().Source().ChunkID)
	}
}

func TestRank_DropsUncorroboratedTextVectorHit(t *testing.T) {
	r := NewRanker(defaultWeights, 0.8)
	cands := []candidate.Candidate{
		cand(textChunk("D2", "c1", 0, "annual leave policy for contractors"), candidate.MethodVector, 0.55),
	}

	got := r.Rank(cands, englishQuery("insulin pump", "insulin", "pump"), 0.4,
		candidate.NewMethodSet(candidate.MethodVector), mode.Semantic)

	if len(got.Files) != 0 {
		t.Errorf("files = %d, want 0", len(got.Files))
	}
	if got.Chunks != 1 || got.Kept != 0 {
		t.Errorf("chunks = %d kept = %d, want 1 and 0", got.Chunks, got.Kept)
	}
}

func TestRank_KeepsVisualVectorHitAboveFloor(t *testing.T) {
	r := NewRanker(defaultWeights, 0.8)
	cands := []candidate.Candidate{cand(imageChunk("D3", "img", 4), candidate.MethodVector, 0.55)}

	got := r.Rank(cands, englishQuery("insulin pump", "insulin", "pump"), 0.5,
		candidate.NewMethodSet(candidate.MethodVector), mode.Semantic)

	if len(got.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(got.Files))
	}
	f := got.Files[0]
	if !f.HasImages() || f.Thumbnail() == nil || f.Thumbnail().ChunkID != "img" {
		t.Errorf("file = %+v, want image thumbnail", f)
	}
	if f.Score() != 1 {
		t.Errorf("single result score = %v, want 1", f.Score())
	}
}

func TestMerge_FusesMethodsPerChunk(t *testing.T) {
	src := textChunk("7", "3", 3, "")
	got := Merge([]candidate.Candidate{
		cand(src, candidate.MethodVector, 0.7),
		cand(src, candidate.MethodKeyword, 12),
		cand(src, candidate.MethodKeyword, 9),
	})

	if len(got) != 1 {
		t.Fatalf("merged = %d, want 1", len(got))
	}
	c := got[0]
	if c.MatchType() != candidate.MatchTypeHybrid || c.Methods().Len() != 2 {
		t.Errorf("methods = %s, want vector,keyword", c.Methods())
	}
	if c.RawScore(candidate.MethodVector) != 0.7 || c.RawScore(candidate.MethodKeyword) != 12 {
		t.Errorf("raw = %v / %v", c.RawScore(candidate.MethodVector), c.RawScore(candidate.MethodKeyword))
	}
}

func TestMerge_FillsMissingText(t *testing.T) {
	bare := textChunk("D1", "a", 0, "")
	full := textChunk("D1", "a", 0, "quarterly revenue")
	full.Title = "Q3 report"

	got := Merge([]candidate.Candidate{cand(bare, candidate.MethodVector, 0.9), cand(full, candidate.MethodKeyword, 2)})

	if got[0].Source().Excerpt != "quarterly revenue" || got[0].Source().Title != "Q3 report" {
		t.Errorf("source = %+v", got[0].Source())
	}
}

func TestFilter_Policy(t *testing.T) {
	q := englishQuery("Insulin Pump", "insulin", "pump")
	p := Policy{TextOnlyCutoff: 0.8, Floor: 0.5}
	vectorOnly := candidate.NewMethodSet(candidate.MethodVector)
	raw := func(s float64) map[candidate.Method]float64 { return map[candidate.Method]float64{candidate.MethodVector: s} }

	tests := []struct {
		name string
		c    result.Combined
		want bool
	}{
		{"lexical support", result.NewCombined(textChunk("D", "a", 0, ""),
			candidate.NewMethodSet(candidate.MethodVector, candidate.MethodFulltext), raw(0.1), 0), true},
		{"text above cutoff", result.NewCombined(textChunk("D", "a", 0, ""), vectorOnly, raw(0.8), 0), true},
		{"text keyword overlap", result.NewCombined(textChunk("D", "a", 0, "New PUMP models"), vectorOnly, raw(0.6), 0), true},
		{"text phrase in title", result.NewCombined(candidate.Source{DocumentID: "D", ChunkID: "a", Title: "insulin pump guide",
			Modality: candidate.ModalityText}, vectorOnly, raw(0.6), 0), true},
		{"text no overlap", result.NewCombined(textChunk("D", "a", 0, "holiday calendar"), vectorOnly, raw(0.79), 0), false},
		{"table above floor", result.NewCombined(candidate.Source{DocumentID: "D", ChunkID: "a",
			Modality: candidate.ModalityTable}, vectorOnly, raw(0.5), 0), true},
		{"image below floor", result.NewCombined(imageChunk("D", "a", 0), vectorOnly, raw(0.49), 0), false},
		{"image signal", result.NewCombined(imageChunk("D", "a", 0), candidate.NewMethodSet(candidate.MethodImage),
			map[candidate.Method]float64{candidate.MethodImage: 0.7}, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter([]result.Combined{tt.c}, q, p)
			if (len(got) == 1) != tt.want {
				t.Errorf("kept = %v, want %v", len(got) == 1, tt.want)
			}
		})
	}
}

func TestFuse_NormalizesLexicalAndMinMax(t *testing.T) {
	items := Merge([]candidate.Candidate{
		cand(textChunk("A", "1", 0, ""), candidate.MethodKeyword, 10),
		cand(textChunk("B", "1", 0, ""), candidate.MethodKeyword, 5),
		cand(textChunk("B", "1", 0, ""), candidate.MethodVector, 0.9),
		cand(textChunk("C", "1", 0, ""), candidate.MethodFulltext, 3),
	})
	w := Weights{Vector: 0.4, Keyword: 0.5, Fulltext: 0.1}

	got := Fuse(items, w)

	// A = 0.5, B = 0.25 + 0.36 = 0.61, C = 0.1
	scores := map[string]float64{}
	for _, c := range got {
		scores[c.Source().DocumentID] = c.Score()
	}
	if scores["B"] != 1 || scores["C"] != 0 {
		t.Errorf("scores = %v, want B=1 C=0", scores)
	}
	if want := (0.5 - 0.1) / (0.61 - 0.1); math.Abs(scores["A"]-want) > 1e-9 {
		t.Errorf("A = %v, want %v", scores["A"], want)
	}
}

func TestFuse_EqualScoresBecomeOne(t *testing.T) {
	items := Merge([]candidate.Candidate{
		cand(textChunk("A", "1", 0, ""), candidate.MethodKeyword, 4),
		cand(textChunk("B", "1", 0, ""), candidate.MethodKeyword, 4),
	})
	for _, c := range Fuse(items, defaultWeights) {
		if c.Score() != 1 {
			t.Errorf("%s score = %v, want 1", c.Source().DocumentID, c.Score())
		}
	}
}

func TestWeights_Effective(t *testing.T) {
	single := defaultWeights.Effective(candidate.NewMethodSet(candidate.MethodVector), mode.Semantic)
	if single.Vector != 1 || single.Keyword != 0 {
		t.Errorf("single = %+v, want vector only at 1", single)
	}

	hybrid := defaultWeights.Effective(candidate.NewMethodSet(candidate.MethodVector, candidate.MethodKeyword), mode.Hybrid)
	if hybrid.Vector != 0.4 || hybrid.Keyword != 0.5 || hybrid.Fulltext != 0 {
		t.Errorf("hybrid = %+v", hybrid)
	}

	image := defaultWeights.Effective(candidate.NewMethodSet(candidate.MethodVector, candidate.MethodImage), mode.Image)
	if image.Vector != 1 || image.Image != 1 {
		t.Errorf("image = %+v, want dense signals at 1", image)
	}
}

func TestDedup_CountsFromPoolAndPicksThumbnail(t *testing.T) {
	pool := Merge([]candidate.Candidate{
		cand(textChunk("D1", "t1", 1, "pump"), candidate.MethodKeyword, 8),
		cand(textChunk("D1", "t2", 2, "unrelated"), candidate.MethodVector, 0.5),
		cand(imageChunk("D1", "i9", 9), candidate.MethodVector, 0.2),
		cand(imageChunk("D1", "i5", 5), candidate.MethodVector, 0.2),
	})
	kept := Filter(pool, englishQuery("pump", "pump"), Policy{TextOnlyCutoff: 0.8, Floor: 0.5})
	fused := Fuse(kept, defaultWeights)

	files := Dedup(fused, pool)

	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
	f := files[0]
	if f.Best().Source().ChunkID != "t1" {
		t.Errorf("representative = %s, want t1", f.Best().Source().ChunkID)
	}
	if f.ChunkCount() != 4 || f.ImageCount() != 2 {
		t.Errorf("chunks = %d images = %d, want 4 and 2", f.ChunkCount(), f.ImageCount())
	}
	if f.Thumbnail() == nil || f.Thumbnail().ChunkID != "i5" {
		t.Errorf("thumbnail = %+v, want i5", f.Thumbnail())
	}
}

func TestSort_TiesByDocumentID(t *testing.T) {
	mk := func(doc string, score float64) result.File {
		return result.NewFile(result.NewCombined(textChunk(doc, "1", 0, ""),
			candidate.NewMethodSet(candidate.MethodKeyword), nil, score), 1, 0, nil)
	}
	files := []result.File{mk("b", 0.5), mk("c", 0.9), mk("a", 0.5)}

	Sort(files)

	got := files[0].DocumentID() + files[1].DocumentID() + files[2].DocumentID()
	if got != "cab" {
		t.Errorf("order = %s, want cab", got)
	}
}

func TestRank_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	methods := candidate.Methods
	excerpts := []string{"insulin dosing", "pump", "travel policy", "", "meeting notes"}

	var cands []candidate.Candidate
	for i := 0; i < 200; i++ {
		doc := string(rune('A' + rng.Intn(12)))
		chunkID := string(rune('a' + rng.Intn(6)))
		idx := int(chunkID[0] - 'a')
		src := textChunk(doc, chunkID, idx, excerpts[idx%len(excerpts)])
		if idx == 5 {
			src.Modality = candidate.ModalityImage
		}
		m := methods[rng.Intn(len(methods))]
		score := rng.Float64()
		if m.IsLexical() {
			score *= 30
		}
		if i%37 == 0 {
			score = math.NaN()
		}
		cands = append(cands, cand(src, m, score))
	}

	q := englishQuery("insulin pump", "insulin", "pump")
	active := candidate.NewMethodSet(methods...)
	r := NewRanker(defaultWeights, 0.8)
	first := r.Rank(cands, q, 0.4, active, mode.Hybrid)

	terms := overlapTerms(q)
	seen := map[string]bool{}
	for i, f := range first.Files {
		if f.Score() < 0 || f.Score() > 1 || math.IsNaN(f.Score()) {
			t.Errorf("score %v out of range", f.Score())
		}
		best := f.Best()
		if best.Methods().IsEmpty() {
			t.Error("empty methods")
		}
		if (best.MatchType() == candidate.MatchTypeHybrid) != (best.Methods().Len() >= 2) {
			t.Errorf("match type %q with %d methods", best.MatchType(), best.Methods().Len())
		}
		if !Keep(best, terms, Policy{TextOnlyCutoff: 0.8, Floor: 0.4}) {
			t.Errorf("result %s violates the quality filter", f.DocumentID())
		}
		if seen[f.DocumentID()] {
			t.Errorf("duplicate document %s", f.DocumentID())
		}
		seen[f.DocumentID()] = true
		if i > 0 {
			prev := first.Files[i-1]
			if prev.Score() < f.Score() || (prev.Score() == f.Score() && prev.DocumentID() > f.DocumentID()) {
				t.Errorf("order violated at %d", i)
			}
		}
	}

	shuffled := append([]candidate.Candidate(nil), cands...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	second := r.Rank(shuffled, q, 0.4, active, mode.Hybrid)
	if len(second.Files) != len(first.Files) {
		t.Fatalf("second run returned %d files, want %d", len(second.Files), len(first.Files))
	}
	for i := range first.Files {
		a, b := first.Files[i], second.Files[i]
		if a.DocumentID() != b.DocumentID() || a.Score() != b.Score() || a.Best().Key() != b.Best().Key() {
			t.Errorf("run differs at %d: %s/%v vs %s/%v", i, a.DocumentID(), a.Score(), b.DocumentID(), b.Score())
		}
	}
}
