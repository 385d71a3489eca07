package redis

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/arkwith7/abekm/internal/db"
)

// distanceField is the alias the KNN clause gives the raw vector distance.
const distanceField = "__distance"

// Characters the query parser treats as syntax. Tag values also escape spaces.
const (
	querySpecials = `\'"@{}()|-~*[]!%^$<>=;+:,.#&/`
	tagSpecials   = querySpecials + " "
)

var (
	queryEscaper = backslashEscaper(querySpecials)
	tagEscaper   = backslashEscaper(tagSpecials)
)

func backslashEscaper(specials string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(specials))
	for _, c := range specials {
		pairs = append(pairs, string(c), `\`+string(c))
	}
	return strings.NewReplacer(pairs...)
}

// knnExpr renders "<prefilter>=>[KNN $K @field $BLOB [EF_RUNTIME $EF] AS __distance]".
func knnExpr(filters []db.TagFilter, field string, withEF bool) string {
	pre := "*"
	if f := buildFilter(filters); f != "" {
		pre = "(" + f + ")"
	}
	var sb strings.Builder
	sb.WriteString(pre + "=>[KNN $K @" + field + " $BLOB")
	if withEF {
		sb.WriteString(" EF_RUNTIME $EF")
	}
	sb.WriteString(" AS " + distanceField + "]")
	return sb.String()
}

// buildFilter renders tag filters as "@field:{a | b}" clauses, implicitly ANDed.
// Filters with no values or an unsafe field name are skipped.
func buildFilter(filters []db.TagFilter) string {
	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		if len(f.Values) == 0 || !db.IsValidIdentifier(f.Field) {
			continue
		}
		vals := make([]string, len(f.Values))
		for i, v := range f.Values {
			vals[i] = tagEscaper.Replace(v)
		}
		clauses = append(clauses, "@"+f.Field+":{"+strings.Join(vals, " | ")+"}")
	}
	return strings.Join(clauses, " ")
}

// buildTextExpr tokenizes terms on whitespace, escapes every token and joins
// them for mode: all terms, any term, or the exact phrase.
func buildTextExpr(fields, terms []string, mode db.TextMode) (string, error) {
	var tokens []string
	for _, term := range terms {
		for _, tok := range strings.Fields(term) {
			tokens = append(tokens, queryEscaper.Replace(tok))
		}
	}
	if len(tokens) == 0 {
		return "", fmt.Errorf("%w: no searchable terms", db.ErrInvalidQuery)
	}

	var expr string
	switch mode {
	case db.MatchAny:
		expr = strings.Join(tokens, " | ")
	case db.MatchPhrase:
		expr = `"` + strings.Join(tokens, " ") + `"`
	default:
		expr = strings.Join(tokens, " ")
	}

	if len(fields) == 0 {
		return "(" + expr + ")", nil
	}
	return "@" + strings.Join(fields, "|") + ":(" + expr + ")", nil
}

// isLanguageName accepts the lowercase ASCII names FT.SEARCH LANGUAGE takes.
func isLanguageName(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return r < 'a' || r > 'z' }) < 0
}

// packVector encodes v as the little-endian FLOAT32 blob vector fields store.
func packVector(v []float32) string {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return string(buf)
}
