package local

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/kailas-cloud/faqdex/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.view(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(kvPrefix + key))
		if err != nil {
			return err //nolint:wrapcheck // mapped below
		}
		data, err = item.ValueCopy(nil)
		return err //nolint:wrapcheck // mapped below
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value that badger expires after ttl. Zero ttl never expires.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(kvPrefix+key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
