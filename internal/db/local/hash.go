package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/kailas-cloud/faqdex/internal/db"
)

// HSet merges fields into a hash.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	return s.HSetMulti(ctx, []db.HashItem{{Key: key, Fields: fields}})
}

// HSetMulti merges fields into several hashes in one transaction.
func (s *Store) HSetMulti(_ context.Context, items []db.HashItem) error {
	if len(items) == 0 {
		return nil
	}

	err := s.update(func(txn *badger.Txn) error {
		for _, item := range items {
			m, err := readHash(txn, item.Key)
			if err != nil {
				return fmt.Errorf("key %s: %w", item.Key, err)
			}
			for k, v := range item.Fields {
				m[k] = v
			}
			raw, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("key %s: %w", item.Key, err)
			}
			if err := txn.Set([]byte(hashPrefix+item.Key), raw); err != nil {
				return fmt.Errorf("key %s: %w", item.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll returns all fields of a hash, empty when the key does not exist.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	var m map[string]string
	err := s.view(func(txn *badger.Txn) error {
		var err error
		m, err = readHash(txn, key)
		return err
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}

// HGetAllMulti returns hashes for keys in order; missing keys yield empty maps.
func (s *Store) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	err := s.view(func(txn *badger.Txn) error {
		for i, key := range keys {
			m, err := readHash(txn, key)
			if err != nil {
				return fmt.Errorf("key %s: %w", key, err)
			}
			out[i] = m
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return out, nil
}

// Del removes a key of any type. Missing keys are not an error.
func (s *Store) Del(_ context.Context, key string) error {
	err := s.update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(hashPrefix + key)); err != nil {
			return err //nolint:wrapcheck // wrapped below
		}
		return txn.Delete([]byte(kvPrefix + key))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists reports whether a hash or value is stored under key.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	var found bool
	err := s.view(func(txn *badger.Txn) error {
		for _, k := range []string{hashPrefix + key, kvPrefix + key} {
			_, err := txn.Get([]byte(k))
			if err == nil {
				found = true
				return nil
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err //nolint:wrapcheck // wrapped below
			}
		}
		return nil
	})
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return found, nil
}

// Scan returns hash keys matching a glob pattern ("*", "?" and character classes).
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}

	var keys []string
	err := s.view(func(txn *badger.Txn) error {
		return iterateHashes(txn, literalPrefix(pattern), func(key string, _ []byte) error {
			if ok, _ := path.Match(pattern, key); ok {
				keys = append(keys, key)
			}
			return nil
		})
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}

func readHash(txn *badger.Txn, key string) (map[string]string, error) {
	m := make(map[string]string)
	item, err := txn.Get([]byte(hashPrefix + key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return m, nil
	}
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &m)
	})
	if err != nil {
		return nil, fmt.Errorf("decode hash: %w", err)
	}
	return m, nil
}

// iterateHashes calls fn for every hash whose key starts with prefix.
func iterateHashes(txn *badger.Txn, prefix string, fn func(key string, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(hashPrefix + prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := strings.TrimPrefix(string(item.Key()), hashPrefix)
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err //nolint:wrapcheck // callers wrap
		}
		if err := fn(key, val); err != nil {
			return err
		}
	}
	return nil
}

// literalPrefix returns the part of a glob pattern before its first wildcard.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}
