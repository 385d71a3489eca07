package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
)

// imageHints mark a query as asking for visual content.
var imageHints = []string{
	"이미지", "사진", "그림", "도면", "도식", "차트", "그래프",
	"image", "photo", "picture", "diagram", "chart", "figure", "drawing",
}

// englishStopwords are dropped from keyword lists.
var englishStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "for": {}, "in": {}, "is": {}, "of": {},
	"on": {}, "or": {}, "the": {}, "to": {}, "with": {}, "what": {}, "how": {}, "about": {},
}

// koreanParticles are trailing particles trimmed from Hangul tokens, longest first.
var koreanParticles = []string{"에서", "으로", "에게", "은", "는", "이", "가", "을", "를", "의", "에", "로", "와", "과", "도"}

// Basic is a dictionary-free processor: script-based language detection, whitespace keywords,
// text embedding for dense modes and a vision embedding for image intent.
type Basic struct {
	text   Embedder // may be nil
	vision Embedder // may be nil
	logger *zap.Logger
}

// NewBasic creates a processor. Either embedder may be nil.
func NewBasic(text, vision Embedder, logger *zap.Logger) *Basic {
	return &Basic{text: text, vision: vision, logger: logger}
}

// Process builds a Query. Embedding failures leave the vector empty and are recorded on the Query.
func (b *Basic) Process(ctx context.Context, raw string, m mode.Mode) (query.Query, error) {
	if err := ctx.Err(); err != nil {
		return query.Query{}, err //nolint:wrapcheck // cancellation is returned as is
	}

	normalized := strings.Join(strings.Fields(raw), " ")
	lang := DetectLanguage(normalized)
	intent := query.IntentGeneral
	if m == mode.Image || hasImageHint(normalized) {
		intent = query.IntentImage
	}

	var (
		textVec, visionVec []float32
		textErr, visionErr error
	)
	if normalized != "" {
		g, gctx := errgroup.WithContext(ctx)
		if b.text != nil && m.UsesDense() && m != mode.Image {
			g.Go(func() error {
				textVec, textErr = b.embed(gctx, b.text, "text", normalized)
				return nil
			})
		}
		if b.vision != nil && m.UsesDense() && intent == query.IntentImage {
			g.Go(func() error {
				visionVec, visionErr = b.embed(gctx, b.vision, "vision", normalized)
				return nil
			})
		}
		_ = g.Wait()
	}

	return query.New(query.Fields{
		Original:        raw,
		Normalized:      normalized,
		Language:        lang,
		Intent:          intent,
		Keywords:        Keywords(normalized),
		Embedding:       textVec,
		VisionEmbedding: visionVec,
		FulltextQuery:   normalized,
		EmbeddingErr:    errors.Join(textErr, visionErr),
	}), nil
}

func (b *Basic) embed(ctx context.Context, e Embedder, space, text string) ([]float32, error) {
	res, err := e.Embed(ctx, text)
	if err != nil {
		b.logger.Warn("Query embedding unavailable, dense signal disabled",
			zap.String("space", space), zap.Error(err))
		if !errors.Is(err, domain.ErrEmbeddingProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return nil, fmt.Errorf("%s embedding: %w", space, err)
	}
	return res.Embedding, nil
}

// DetectLanguage classifies text by script: Hangul, Latin, both, or neither.
func DetectLanguage(text string) string {
	var hangul, latin bool
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hangul, r):
			hangul = true
		case unicode.Is(unicode.Latin, r):
			latin = true
		}
	}
	switch {
	case hangul && latin:
		return query.LangMixed
	case hangul:
		return query.LangKorean
	case latin:
		return query.LangEnglish
	default:
		return query.LangUnknown
	}
}

// Keywords splits text into lowercase, de-duplicated search terms.
func Keywords(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = trimParticle(tok)
		if _, stop := englishStopwords[tok]; stop {
			continue
		}
		if len([]rune(tok)) < 2 && !isHangul(tok) && !isDigits(tok) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func trimParticle(tok string) string {
	if !isHangul(tok) {
		return tok
	}
	for _, p := range koreanParticles {
		if strings.HasSuffix(tok, p) && len([]rune(tok)) > len([]rune(p))+1 {
			return strings.TrimSuffix(tok, p)
		}
	}
	return tok
}

func isHangul(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.Hangul, r) {
			return false
		}
	}
	return s != ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func hasImageHint(text string) bool {
	lower := strings.ToLower(text)
	for _, h := range imageHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
