package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/arkwith7/abekm/internal/db"
)

// CreateIndex runs FT.CREATE for def. An existing index yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	err = s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return nil
	case isRedisErr(err, "index already exists"):
		return db.ErrIndexExists
	default:
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
}

// IndexExists probes the index with FT.INFO. Redis 8 answers "Unknown index name"
// and older modules "no such index" for a missing one.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case isRedisErr(err, "unknown index name"), isRedisErr(err, "no such index"):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
}

// buildCreateArgs renders def as FT.CREATE arguments over hashes.
func buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "HASH"}
	if n := len(def.Prefixes); n > 0 {
		args = append(append(args, "PREFIX", strconv.Itoa(n)), def.Prefixes...)
	}
	if def.Language != "" {
		args = append(args, "LANGUAGE", def.Language)
	}
	if def.KeepStopwords {
		args = append(args, "STOPWORDS", "0")
	}

	args = append(args, "SCHEMA")
	for i := range def.Fields {
		f := &def.Fields[i]
		args = append(args, f.Name)
		switch f.Type {
		case db.IndexFieldTag:
			args = appendTag(args, f)
		case db.IndexFieldNumeric:
			args = appendNumeric(args, f)
		case db.IndexFieldText:
			args = appendText(args, f)
		case db.IndexFieldVector:
			args = appendVector(args, f)
		default:
			return nil, fmt.Errorf("field %q: unknown type %d", f.Name, f.Type)
		}
	}
	return args, nil
}

func appendTag(args []string, f *db.IndexField) []string {
	args = append(args, "TAG")
	if f.CaseSensitive {
		args = append(args, "CASESENSITIVE")
	}
	return args
}

func appendNumeric(args []string, f *db.IndexField) []string {
	args = append(args, "NUMERIC")
	if f.Sortable {
		args = append(args, "SORTABLE")
	}
	return args
}

func appendText(args []string, f *db.IndexField) []string {
	args = append(args, "TEXT")
	if f.TextWeight > 0 {
		args = append(args, "WEIGHT", strconv.FormatFloat(f.TextWeight, 'f', -1, 64))
	}
	return args
}

// appendVector emits VECTOR <algo> <nargs> <attrs...>. DIM is checked by Validate.
func appendVector(args []string, f *db.IndexField) []string {
	algo, distance := f.VectorAlgo, f.VectorDistance
	if algo == "" {
		algo = db.VectorHNSW
	}
	if distance == "" {
		distance = db.DistanceCosine
	}

	attrs := []string{"TYPE", "FLOAT32", "DIM", strconv.Itoa(f.VectorDim), "DISTANCE_METRIC", string(distance)}
	if algo == db.VectorHNSW {
		if f.VectorM > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
		}
		if f.VectorEFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
		}
	}
	args = append(args, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
	return append(args, attrs...)
}
