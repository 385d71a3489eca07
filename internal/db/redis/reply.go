package redis

import (
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/arkwith7/abekm/internal/db"
)

// FT.SEARCH replies in RESP2 are flat arrays: [total, key, (score,) fields, ...].
// Malformed entries are skipped rather than failing the whole reply.

func parseKNNReply(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	return parseReply(raw, 2, func(row []rueidis.RedisMessage) (db.SearchEntry, bool) {
		fields, ok := fieldMap(row[1])
		if !ok {
			return db.SearchEntry{}, false
		}
		d, err := strconv.ParseFloat(fields[distanceField], 64)
		if err != nil {
			return db.SearchEntry{}, false
		}
		delete(fields, distanceField)
		return db.SearchEntry{
			Fields:   fields,
			Distance: d,
			Score:    min(1, max(0, 1-d)), // cosine distance to similarity
		}, true
	})
}

func parseScoredReply(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	return parseReply(raw, 3, func(row []rueidis.RedisMessage) (db.SearchEntry, bool) {
		s, err := row[1].ToString()
		if err != nil {
			return db.SearchEntry{}, false
		}
		score, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return db.SearchEntry{}, false
		}
		fields, ok := fieldMap(row[2])
		if !ok {
			return db.SearchEntry{}, false
		}
		return db.SearchEntry{Fields: fields, Score: score}, true
	})
}

// parseReply walks rows of stride elements after the total; row[0] is always the key.
func parseReply(
	raw []rueidis.RedisMessage, stride int,
	decode func(row []rueidis.RedisMessage) (db.SearchEntry, bool),
) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	res := &db.SearchResult{Total: int(total)}
	for i := 1; i+stride <= len(raw); i += stride {
		row := raw[i : i+stride]
		key, err := row[0].ToString()
		if err != nil {
			continue
		}
		entry, ok := decode(row)
		if !ok {
			continue
		}
		entry.Key = key
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func fieldMap(msg rueidis.RedisMessage) (map[string]string, bool) {
	pairs, err := msg.ToArray()
	if err != nil {
		return nil, false
	}
	m := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, err1 := pairs[j].ToString()
		value, err2 := pairs[j+1].ToString()
		if err1 == nil && err2 == nil {
			m[name] = value
		}
	}
	return m, true
}
