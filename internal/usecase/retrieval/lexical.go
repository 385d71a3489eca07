package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/arkwith7/abekm/internal/db"
	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/repository/chunk"
)

// Profile is the store language and scorer used for one query language.
type Profile struct {
	Language string
	Scorer   string
}

// Profiles maps query language tags to lexical profiles.
type Profiles map[string]Profile

// For returns the profiles a query runs with. Mixed-language queries run every profile.
func (p Profiles) For(lang string) []Profile {
	if lang == query.LangMixed {
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Profile, 0, len(keys))
		for _, k := range keys {
			out = append(out, p[k])
		}
		if len(out) == 0 {
			out = append(out, Profile{})
		}
		return out
	}
	return []Profile{p.primary(lang)}
}

func (p Profiles) primary(lang string) Profile {
	if pr, ok := p[lang]; ok {
		return pr
	}
	if pr, ok := p[DefaultThresholdKey]; ok {
		return pr
	}
	return Profile{}
}

// Keyword runs a strict all-terms search per language profile, keeps the maximum per chunk,
// and adds an exact-phrase search for multi-keyword queries.
type Keyword struct {
	index    Index
	profiles Profiles
}

// NewKeyword creates the keyword retriever.
func NewKeyword(index Index, profiles Profiles) *Keyword {
	return &Keyword{index: index, profiles: profiles}
}

// Method implements Retriever.
func (k *Keyword) Method() candidate.Method { return candidate.MethodKeyword }

// Retrieve implements Retriever.
func (k *Keyword) Retrieve(ctx context.Context, in Input) Outcome {
	keywords := in.Query.Keywords()
	if len(keywords) == 0 {
		return Skip(candidate.MethodKeyword)
	}

	conn, err := k.index.Open(ctx)
	if err != nil {
		return Fail(candidate.MethodKeyword, err)
	}
	defer conn.Close()

	profiles := k.profiles.For(in.Query.Language())
	var searches []chunk.LexicalQuery
	for _, p := range profiles {
		searches = append(searches, chunk.LexicalQuery{
			Terms: keywords, Mode: db.MatchAll, Language: p.Language, Scorer: p.Scorer,
		})
	}
	if len(keywords) > 1 {
		p := k.profiles.primary(in.Query.Language())
		searches = append(searches, chunk.LexicalQuery{
			Terms: strings.Fields(in.Query.Normalized()), Mode: db.MatchPhrase,
			Language: p.Language, Scorer: p.Scorer,
		})
	}

	best := newBestByKey()
	for _, s := range searches {
		hits, err := conn.Lexical(ctx, s, in.Filters, in.TopK)
		if err != nil {
			return Fail(candidate.MethodKeyword, fmt.Errorf("keyword %s: %w", s.Mode, err))
		}
		for _, h := range hits {
			best.offer(h.Source, h.Score)
		}
	}
	return Success(candidate.MethodKeyword, best.candidates(candidate.MethodKeyword))
}

// Fulltext runs a lenient any-term search so that most relevant texts score something.
type Fulltext struct {
	index    Index
	profiles Profiles
}

// NewFulltext creates the fulltext retriever.
func NewFulltext(index Index, profiles Profiles) *Fulltext {
	return &Fulltext{index: index, profiles: profiles}
}

// Method implements Retriever.
func (f *Fulltext) Method() candidate.Method { return candidate.MethodFulltext }

// Retrieve implements Retriever.
func (f *Fulltext) Retrieve(ctx context.Context, in Input) Outcome {
	terms := strings.Fields(in.Query.FulltextQuery())
	if len(terms) == 0 {
		return Skip(candidate.MethodFulltext)
	}

	conn, err := f.index.Open(ctx)
	if err != nil {
		return Fail(candidate.MethodFulltext, err)
	}
	defer conn.Close()

	p := f.profiles.primary(in.Query.Language())
	hits, err := conn.Lexical(ctx, chunk.LexicalQuery{
		Terms: terms, Mode: db.MatchAny, Language: p.Language, Scorer: p.Scorer,
	}, in.Filters, in.TopK)
	if err != nil {
		return Fail(candidate.MethodFulltext, fmt.Errorf("fulltext: %w", err))
	}

	best := newBestByKey()
	for _, h := range hits {
		best.offer(h.Source, h.Score)
	}
	return Success(candidate.MethodFulltext, best.candidates(candidate.MethodFulltext))
}
