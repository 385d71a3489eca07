package query

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"인슐린 펌프", query.LangKorean},
		{"insulin pump", query.LangEnglish},
		{"인슐린 pump", query.LangMixed},
		{"12345 !!", query.LangUnknown},
		{"", query.LangUnknown},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.in); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"The Insulin pump, insulin PUMP!", []string{"insulin", "pump"}},
		{"펌프의 설계도를 보여줘", []string{"펌프", "설계도", "보여줘"}},
		{"a b 7 x", []string{"7"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if got := Keywords(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Keywords(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBasic_HybridEmbedsText(t *testing.T) {
	text := &mockEmbedder{vec: []float32{0.1, 0.2}}
	vision := &mockEmbedder{vec: []float32{0.9}}
	p := NewBasic(text, vision, zap.NewNop())

	q, err := p.Process(context.Background(), "  insulin   pump ", mode.Hybrid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Normalized() != "insulin pump" || q.FulltextQuery() != "insulin pump" {
		t.Errorf("normalized=%q fulltext=%q", q.Normalized(), q.FulltextQuery())
	}
	if !q.HasEmbedding() {
		t.Error("expected text embedding")
	}
	if len(q.VisionEmbedding()) != 0 || vision.calls.Load() != 0 {
		t.Error("vision embedding must only run for image intent")
	}
	if q.Intent() != query.IntentGeneral || q.Language() != query.LangEnglish {
		t.Errorf("intent=%q language=%q", q.Intent(), q.Language())
	}
}

func TestBasic_ImageIntent(t *testing.T) {
	text := &mockEmbedder{vec: []float32{0.1}}
	vision := &mockEmbedder{vec: []float32{0.9}}
	p := NewBasic(text, vision, zap.NewNop())

	q, _ := p.Process(context.Background(), "펌프 도면", mode.Hybrid)
	if q.Intent() != query.IntentImage {
		t.Fatalf("expected image intent, got %q", q.Intent())
	}
	if len(q.VisionEmbedding()) != 1 || !q.HasEmbedding() {
		t.Error("hybrid image intent needs both text and vision embeddings")
	}

	q, _ = p.Process(context.Background(), "pump", mode.Image)
	if q.HasEmbedding() {
		t.Error("image mode must not embed text")
	}
	if len(q.VisionEmbedding()) != 1 {
		t.Error("image mode needs a vision embedding")
	}
}

func TestBasic_KeywordModeSkipsEmbedding(t *testing.T) {
	text := &mockEmbedder{vec: []float32{0.1}}
	p := NewBasic(text, nil, zap.NewNop())

	q, _ := p.Process(context.Background(), "insulin", mode.Keyword)
	if q.HasEmbedding() || text.calls.Load() != 0 {
		t.Fatal("keyword mode must not call the embedder")
	}
	if q.EmbeddingErr() != nil {
		t.Errorf("unrequested embedding reported an error: %v", q.EmbeddingErr())
	}
}

func TestBasic_EmbeddingFailureDegrades(t *testing.T) {
	text := &mockEmbedder{err: errors.New("provider down")}
	p := NewBasic(text, nil, zap.NewNop())

	q, err := p.Process(context.Background(), "insulin pump", mode.Hybrid)
	if err != nil {
		t.Fatalf("embedding failure must not fail processing: %v", err)
	}
	if q.HasEmbedding() {
		t.Error("expected no embedding")
	}
	if !errors.Is(q.EmbeddingErr(), domain.ErrEmbeddingProviderError) {
		t.Errorf("EmbeddingErr() = %v, want ErrEmbeddingProviderError", q.EmbeddingErr())
	}
	if !reflect.DeepEqual(q.Keywords(), []string{"insulin", "pump"}) {
		t.Errorf("keywords = %v", q.Keywords())
	}
}

func TestBasic_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewBasic(nil, nil, zap.NewNop()).Process(ctx, "x", mode.Hybrid); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
