package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/arkwith7/abekm/internal/db"
)

// scorers are the FT.SEARCH SCORER names a TextQuery may ask for.
var scorers = map[string]struct{}{
	"TFIDF": {}, "TFIDF.DOCNORM": {},
	"BM25": {}, "BM25STD": {}, "BM25STD.NORM": {},
	"DISMAX": {}, "DOCSCORE": {},
}

// SearchKNN runs a filtered KNN query. K, EF_RUNTIME and the vector blob are
// bound as PARAMS; only validated identifiers reach the query string.
func (s searcher) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, fmt.Errorf("%w: index name is required", db.ErrInvalidQuery)
	case !db.IsValidIdentifier(q.VectorField):
		return nil, fmt.Errorf("%w: invalid vector field %q", db.ErrInvalidQuery, q.VectorField)
	case len(q.Vector) == 0:
		return nil, fmt.Errorf("%w: vector is required", db.ErrInvalidQuery)
	case q.K <= 0:
		return nil, fmt.Errorf("%w: k must be positive", db.ErrInvalidQuery)
	}

	k := strconv.Itoa(q.K)
	params := []string{"K", k, "BLOB", packVector(q.Vector)}
	if q.EFRuntime > 0 {
		params = append(params, "EF", strconv.Itoa(q.EFRuntime))
	}

	args := []string{q.IndexName, knnExpr(q.Filters, q.VectorField, q.EFRuntime > 0)}
	if len(q.ReturnFields) > 0 {
		args = appendReturn(args, append(q.ReturnFields[:len(q.ReturnFields):len(q.ReturnFields)], distanceField))
	}
	args = append(args, "SORTBY", distanceField, "ASC", "LIMIT", "0", k)
	args = append(append(args, "PARAMS", strconv.Itoa(len(params))), params...)
	args = append(args, "DIALECT", "2")

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, searchError(err)
	}
	return parseKNNReply(raw)
}

// SearchText runs a scored lexical query (WITHSCORES) over the given text fields.
func (s searcher) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if err := validateTextQuery(q); err != nil {
		return nil, err
	}

	expr, err := buildTextExpr(q.TextFields, q.Terms, q.Mode)
	if err != nil {
		return nil, err
	}
	if filter := buildFilter(q.Filters); filter != "" {
		expr = filter + " " + expr
	}

	args := []string{q.IndexName, expr}
	if len(q.ReturnFields) > 0 {
		args = appendReturn(args, q.ReturnFields)
	}
	args = append(args, "WITHSCORES")
	if q.Language != "" {
		args = append(args, "LANGUAGE", q.Language)
	}
	if q.Scorer != "" {
		args = append(args, "SCORER", q.Scorer)
	}
	args = append(args, "LIMIT", "0", strconv.Itoa(q.TopK), "DIALECT", "2")

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, searchError(err)
	}
	return parseScoredReply(raw)
}

func validateTextQuery(q *db.TextQuery) error {
	if q.IndexName == "" {
		return fmt.Errorf("%w: index name is required", db.ErrInvalidQuery)
	}
	if q.TopK <= 0 {
		return fmt.Errorf("%w: topK must be positive", db.ErrInvalidQuery)
	}
	if _, ok := scorers[q.Scorer]; q.Scorer != "" && !ok {
		return fmt.Errorf("%w: unsupported scorer %q", db.ErrInvalidQuery, q.Scorer)
	}
	if q.Language != "" && !isLanguageName(q.Language) {
		return fmt.Errorf("%w: invalid language %q", db.ErrInvalidQuery, q.Language)
	}
	for _, f := range q.TextFields {
		if !db.IsValidIdentifier(f) {
			return fmt.Errorf("%w: invalid text field %q", db.ErrInvalidQuery, f)
		}
	}
	return nil
}

func appendReturn(args, fields []string) []string {
	return append(append(args, "RETURN", strconv.Itoa(len(fields))), fields...)
}

// searchError maps a missing index to db.ErrIndexNotFound under both server spellings.
func searchError(err error) error {
	if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
		return &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	return &db.Error{Op: db.OpSearch, Err: err}
}
