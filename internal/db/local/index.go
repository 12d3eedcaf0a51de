package local

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/kailas-cloud/faqdex/internal/db"
)

// CreateIndex records an index definition. Documents are matched by key prefix at query time.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	raw, err := json.Marshal(def)
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	err = s.update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(indexPrefix + def.Name))
		if err == nil {
			return db.ErrIndexExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err //nolint:wrapcheck // wrapped below
		}
		return txn.Set([]byte(indexPrefix+def.Name), raw)
	})
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an index definition. Indexed hashes are kept.
func (s *Store) DropIndex(_ context.Context, name string) error {
	err := s.update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(indexPrefix + name)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return db.ErrIndexNotFound
			}
			return err //nolint:wrapcheck // wrapped below
		}
		return txn.Delete([]byte(indexPrefix + name))
	})
	if err != nil {
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists checks if an index exists.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	_, err := s.loadIndex(name)
	if errors.Is(err, db.ErrIndexNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func (s *Store) loadIndex(name string) (*db.IndexDefinition, error) {
	var def db.IndexDefinition
	err := s.view(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexPrefix + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return db.ErrIndexNotFound
		}
		if err != nil {
			return err //nolint:wrapcheck // callers wrap
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &def)
		})
	})
	if err != nil {
		return nil, err
	}
	return &def, nil
}
