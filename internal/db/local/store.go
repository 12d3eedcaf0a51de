// Package local implements db.Store on an embedded BadgerDB for single-node
// deployments and tests. FT indexes are emulated with brute-force KNN.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/db"
)

// Key namespaces inside badger.
const (
	hashPrefix  = "h:"
	kvPrefix    = "k:"
	indexPrefix = "i:"
)

var errClosed = errors.New("local store is closed")

// Config for the embedded store.
type Config struct {
	Path     string // data directory; ignored when InMemory
	InMemory bool
	Logger   *zap.Logger
}

// Store implements db.Store on BadgerDB.
type Store struct {
	bdb    *badger.DB
	logger *zap.Logger
}

var _ db.Store = (*Store)(nil)

// badgerLogger adapts zap to badger.Logger.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(msg string, args ...any)   { l.s.Errorf(msg, args...) }
func (l badgerLogger) Warningf(msg string, args ...any) { l.s.Warnf(msg, args...) }
func (l badgerLogger) Infof(msg string, args ...any)    { l.s.Debugf(msg, args...) }
func (l badgerLogger) Debugf(msg string, args ...any)   { l.s.Debugf(msg, args...) }

// Open opens (or creates) a BadgerDB database.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("local store path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = badgerLogger{s: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Store{bdb: bdb, logger: logger}, nil
}

// Ping reports whether the database is open.
func (s *Store) Ping(_ context.Context) error {
	if s.bdb.IsClosed() {
		return errClosed
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	if err := s.bdb.Close(); err != nil {
		s.logger.Warn("Failed to close badger", zap.Error(err))
	}
}

// WaitForReady returns immediately: an opened embedded store is ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

func (s *Store) view(fn func(txn *badger.Txn) error) error {
	if s.bdb.IsClosed() {
		return errClosed
	}
	return s.bdb.View(fn) //nolint:wrapcheck // callers wrap with db.Error
}

func (s *Store) update(fn func(txn *badger.Txn) error) error {
	if s.bdb.IsClosed() {
		return errClosed
	}
	return s.bdb.Update(fn) //nolint:wrapcheck // callers wrap with db.Error
}
