package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/faqdex/internal/db"
)

// SearchKNN runs "*=>[KNN k @ref $BLOB]" with DIALECT 2.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Key: q.IndexName, Err: err}
	}

	args := []string{q.IndexName, fmt.Sprintf("*=>[KNN %d @%s $BLOB]", q.K, q.Ref())}
	if n := len(q.ReturnFields); n > 0 {
		args = append(args, "RETURN", strconv.Itoa(n))
		args = append(args, q.ReturnFields...)
	}
	args = append(args,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", rueidis.BinaryString(db.VectorToBytes(q.Vector)),
		"DIALECT", "2",
	)

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Key: q.IndexName, Err: err}
	}
	return parseKNNReply(raw, q.ScoreField())
}

// SearchCount runs the query with LIMIT 0 0 and returns only the total.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Key: index, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// parseKNNReply reads the RESP2 reply [total, key1, [f, v, ...], key2, ...].
// The distance in scoreField becomes Score = 1 - distance and is removed from Fields.
func parseKNNReply(raw []rueidis.RedisMessage, scoreField string) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	res := &db.SearchResult{Total: int(total)}
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		fields := pairsToMap(pairs)
		entry := db.SearchEntry{Key: key, Fields: fields}
		if d, err := strconv.ParseFloat(fields[scoreField], 64); err == nil {
			entry.Score = 1 - d
		}
		delete(fields, scoreField)
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func pairsToMap(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, nerr := pairs[j].ToString()
		value, verr := pairs[j+1].ToString()
		if nerr == nil && verr == nil {
			m[name] = value
		}
	}
	return m
}
