// Package db defines the storage contract faqdex needs from a Valkey/Redis
// compatible backend: hashes for FAQ entries, plain keys for cached
// embeddings and index metadata, and an FT vector index over the hashes.
package db

import (
	"context"
	"time"
)

// Store is everything the service needs from one backend. Consumers declare
// the narrow subset they use.
//
//nolint:interfacebloat // facade; consumers depend on the small interfaces below
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	VectorSearcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashItem is one key and its fields, written in a single pipelined batch.
type HashItem struct {
	Key    string
	Fields map[string]string
}

// HashStore holds FAQ entries. HGetAll returns an empty map for a missing key.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore holds opaque values. Get returns ErrKeyNotFound for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager creates and drops FT indexes. Dropping keeps the indexed hashes.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// VectorSearcher runs queries against an FT index.
type VectorSearcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}
