package local

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/kailas-cloud/faqdex/internal/db"
)

// SearchKNN ranks every hash under the index prefix by exact distance.
// Scores follow the FT convention, similarity = 1 - distance; the score field
// itself is not echoed back in Fields.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Key: q.IndexName, Err: err}
	}

	def, err := s.loadIndex(q.IndexName)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Key: q.IndexName, Err: err}
	}
	if def.Vector.Ref() != q.Ref() && def.Vector.Name != q.Ref() {
		return nil, &db.Error{Op: db.OpSearch, Key: q.IndexName,
			Err: fmt.Errorf("index has no vector field %q", q.Ref())}
	}

	var entries []db.SearchEntry
	err = s.view(func(txn *badger.Txn) error {
		return eachIndexed(txn, def, func(key string, m map[string]string) error {
			vec, err := db.BytesToVector([]byte(m[def.Vector.Name]))
			if err != nil || len(vec) != len(q.Vector) {
				return nil //nolint:nilerr // unindexable document, FT skips it too
			}
			entries = append(entries, db.SearchEntry{
				Key:    key,
				Score:  1 - distance(def.Vector.Distance, q.Vector, vec),
				Fields: project(m, q.ReturnFields),
			})
			return nil
		})
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Key: q.IndexName, Err: err}
	}

	slices.SortFunc(entries, func(a, b db.SearchEntry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	if len(entries) > q.K {
		entries = entries[:q.K]
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// SearchCount returns the number of documents in an index. Only the match-all query "*" is supported.
func (s *Store) SearchCount(_ context.Context, index, query string) (int, error) {
	if query != "*" {
		return 0, &db.Error{Op: db.OpSearch, Key: index, Err: fmt.Errorf("unsupported query %q", query)}
	}
	def, err := s.loadIndex(index)
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Key: index, Err: err}
	}

	var n int
	err = s.view(func(txn *badger.Txn) error {
		return eachIndexed(txn, def, func(string, map[string]string) error {
			n++
			return nil
		})
	})
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Key: index, Err: err}
	}
	return n, nil
}

func eachIndexed(txn *badger.Txn, def *db.IndexDefinition, fn func(key string, m map[string]string) error) error {
	return iterateHashes(txn, def.Prefix, func(key string, val []byte) error {
		var m map[string]string
		if err := json.Unmarshal(val, &m); err != nil {
			return fmt.Errorf("decode hash %s: %w", key, err)
		}
		return fn(key, m)
	})
}

// project copies the requested fields; pseudo-fields such as "__vector_score" are skipped.
func project(m map[string]string, fields []string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := m[f]; ok && !strings.HasPrefix(f, "__") {
			out[f] = v
		}
	}
	return out
}

// distance mirrors FT vector distances: COSINE 1-cos, IP 1-dot, L2 squared euclidean.
func distance(metric db.DistanceMetric, a, b []float32) float64 {
	var dot, na, nb, l2 float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
		l2 += (x - y) * (x - y)
	}

	switch metric {
	case db.DistanceIP:
		return 1 - dot
	case db.DistanceL2:
		return l2
	default:
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	}
}
