package faq

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/faqdex/internal/db"
	"github.com/kailas-cloud/faqdex/internal/domain"
	domfaq "github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/domain/search/match"
)

// listChunk bounds the number of keys fetched per HGETALL pipeline.
const listChunk = 256

// store is the consumer interface for FAQ persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config holds key layout and index parameters.
type Config struct {
	KeyPrefix  string // e.g. "faqdex:"
	IndexName  string // without prefix, e.g. "faq:idx"
	Dimensions int
	HNSW       HNSWConfig
}

// Repo stores FAQ entries as hashes and searches them through an FT vector index.
type Repo struct {
	store store
	cfg   Config
}

// New creates a FAQ repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

func (r *Repo) entryPrefix() string { return r.cfg.KeyPrefix + "faq:" }

func (r *Repo) entryKey(id string) string { return r.entryPrefix() + id }

func (r *Repo) indexName() string { return r.cfg.KeyPrefix + r.cfg.IndexName }

// Upsert stores entries in one pipeline. Every entry must carry a vector of the configured size.
func (r *Repo) Upsert(ctx context.Context, entries []domfaq.Entry) error {
	items := make([]db.HashItem, 0, len(entries))
	for _, e := range entries {
		if err := domain.CheckDimensions(e.Vector(), r.cfg.Dimensions); err != nil {
			return fmt.Errorf("faq %s: %w", e.ID(), err)
		}
		fields, err := buildHashFields(e)
		if err != nil {
			return fmt.Errorf("encode faq %s: %w", e.ID(), err)
		}
		items = append(items, db.HashItem{Key: r.entryKey(e.ID()), Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset faqs: %w", err)
	}
	return nil
}

// Get returns a single entry.
func (r *Repo) Get(ctx context.Context, id string) (domfaq.Entry, error) {
	m, err := r.store.HGetAll(ctx, r.entryKey(id))
	if err != nil {
		return domfaq.Entry{}, fmt.Errorf("hgetall %s: %w", id, err)
	}
	if len(m) == 0 {
		return domfaq.Entry{}, fmt.Errorf("faq %q: %w", id, domain.ErrNotFound)
	}
	return parseHashFields(id, m), nil
}

// List returns every stored entry.
func (r *Repo) List(ctx context.Context) ([]domfaq.Entry, error) {
	keys, err := r.store.Scan(ctx, r.entryPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan faqs: %w", err)
	}

	entries := make([]domfaq.Entry, 0, len(keys))
	for start := 0; start < len(keys); start += listChunk {
		chunk := keys[start:min(start+listChunk, len(keys))]
		maps, err := r.store.HGetAllMulti(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("hgetall faqs: %w", err)
		}
		for i, m := range maps {
			if len(m) == 0 {
				continue // deleted between SCAN and HGETALL
			}
			entries = append(entries, parseHashFields(strings.TrimPrefix(chunk[i], r.entryPrefix()), m))
		}
	}
	return entries, nil
}

// Delete removes an entry.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.entryKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("faq %q: %w", id, domain.ErrNotFound)
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Count returns the number of indexed entries.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return n, nil
}

// SearchKNN returns the k nearest entries with raw cosine similarity scores.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int) ([]match.Match, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Field:        db.DefaultVectorRef,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"__" + db.DefaultVectorRef + "_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	if sr == nil {
		return nil, nil
	}

	ms := make([]match.Match, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		ms = append(ms, match.New(strings.TrimPrefix(e.Key, r.entryPrefix()), e.Score))
	}
	return ms, nil
}
