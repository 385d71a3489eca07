package format

import (
	"html"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/arkwith7/abekm/internal/domain/container"
	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/result"
)

// Display defaults.
const (
	DefaultPreviewLength = 300
	DefaultHighlightPre  = "<mark>"
	DefaultHighlightPost = "</mark>"

	UnknownPath  = "unknown path"
	UntitledText = "Untitled"
	ellipsis     = "..."
)

// Options configures the Formatter. Zero values fall back to the defaults.
type Options struct {
	PreviewLength int
	HighlightPre  string
	HighlightPost string
}

// Formatter renders ranked files into the caller-facing envelope.
// It never fails: anything it cannot resolve is rendered as a safe default.
type Formatter struct {
	previewLength int
	pre, post     string
}

// New creates a Formatter.
func New(opts Options) *Formatter {
	f := &Formatter{previewLength: opts.PreviewLength, pre: opts.HighlightPre, post: opts.HighlightPost}
	if f.previewLength <= 0 {
		f.previewLength = DefaultPreviewLength
	}
	if f.pre == "" && f.post == "" {
		f.pre, f.post = DefaultHighlightPre, DefaultHighlightPost
	}
	return f
}

// Format maps files to result items. containers may be missing entries.
func (f *Formatter) Format(
	files []result.File, q query.Query, containers map[string]container.Container,
) []result.Item {
	hl := f.highlighter(q)
	items := make([]result.Item, 0, len(files))
	for _, file := range files {
		items = append(items, f.item(file, hl, containers))
	}
	return items
}

func (f *Formatter) item(
	file result.File, hl *regexp.Regexp, containers map[string]container.Container,
) result.Item {
	best := file.Best()
	src := best.Source()

	title := strings.TrimSpace(src.Title)
	if title == "" {
		title = UntitledText
	}

	name, path := src.ContainerID, UnknownPath
	if c, ok := containers[src.ContainerID]; ok {
		name, path = c.Name(), c.PathString()
	}

	methods := make([]string, 0, best.Methods().Len())
	for _, m := range best.Methods().Slice() {
		methods = append(methods, string(m))
	}

	var thumb *string
	if t := file.Thumbnail(); t != nil {
		ref := t.ChunkID
		thumb = &ref
	}

	score := clamp01(best.Score())
	return result.Item{
		DocumentID:        src.DocumentID,
		ChunkID:           src.ChunkID,
		Title:             title,
		ContentPreview:    f.preview(src.Excerpt, hl),
		SimilarityScore:   score,
		SimilarityPercent: Percent(score),
		MatchType:         best.MatchType(),
		ContainerID:       src.ContainerID,
		ContainerName:     name,
		ContainerPath:     path,
		Modality:          string(src.Modality),
		HasImages:         file.HasImages(),
		ImageCount:        file.ImageCount(),
		ChunkCount:        file.ChunkCount(),
		ThumbnailRef:      thumb,
		Methods:           methods,
	}
}

// Percent renders a [0,1] score as a percentage with one decimal.
func Percent(score float64) float64 {
	return math.Round(score*1000) / 10
}

// Truncate shortens s to n runes, appending an ellipsis when it cuts.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimRightFunc(string(r[:n]), func(c rune) bool { return c == ' ' }) + ellipsis
}

func (f *Formatter) preview(excerpt string, hl *regexp.Regexp) string {
	text := html.EscapeString(Truncate(excerpt, f.previewLength))
	if hl == nil || text == "" {
		return text
	}
	return hl.ReplaceAllStringFunc(text, func(m string) string { return f.pre + m + f.post })
}

// highlighter matches the query phrase and keywords case-insensitively, longest first.
func (f *Formatter) highlighter(q query.Query) *regexp.Regexp {
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range append([]string{q.Normalized()}, q.Keywords()...) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, regexp.QuoteMeta(html.EscapeString(t)))
	}
	if len(terms) == 0 {
		return nil
	}
	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })

	re, err := regexp.Compile("(?i)(?:" + strings.Join(terms, "|") + ")")
	if err != nil {
		return nil
	}
	return re
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
