package faq

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/faqdex/internal/db"
	"github.com/kailas-cloud/faqdex/internal/domain"
)

// HNSWConfig holds vector index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// buildIndex creates the FAQ index definition: a category tag and an HNSW cosine vector field.
func buildIndex(name, prefix string, dim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(name).
		Prefix(prefix).
		Tag(fieldCategory).
		Vector(db.VectorField{
			Name:        fieldVector,
			Alias:       db.DefaultVectorRef,
			Dim:         dim,
			Distance:    db.DistanceCosine,
			M:           hnsw.M,
			EFConstruct: hnsw.EFConstruct,
		}).
		Build()
	if err != nil {
		return nil, err //nolint:wrapcheck // caller wraps
	}
	return def, nil
}

// dimKey records the dimension the index was built with. It lives outside the
// entry prefix so SCAN over entries never sees it.
func (r *Repo) dimKey() string { return r.cfg.KeyPrefix + "meta:" + r.cfg.IndexName + ":dim" }

// EnsureIndex creates the vector index unless it already exists. An existing
// index built for another dimension yields domain.ErrVectorDimMismatch.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName(), err)
	}
	if exists {
		return r.checkIndexDim(ctx)
	}
	return r.createIndex(ctx)
}

// Reindex drops the index and every stored entry, then recreates the index
// for the configured dimension. Entries must be synced again afterwards.
// It returns the number of entries removed.
func (r *Repo) Reindex(ctx context.Context) (int, error) {
	if err := r.store.DropIndex(ctx, r.indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return 0, fmt.Errorf("drop index %s: %w", r.indexName(), err)
	}

	keys, err := r.store.Scan(ctx, r.entryPrefix()+"*")
	if err != nil {
		return 0, fmt.Errorf("scan faqs: %w", err)
	}
	for i, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return i, fmt.Errorf("del %s: %w", key, err)
		}
	}

	if err := r.createIndex(ctx); err != nil {
		return len(keys), err
	}
	return len(keys), nil
}

func (r *Repo) createIndex(ctx context.Context) error {
	def, err := buildIndex(r.indexName(), r.entryPrefix(), r.cfg.Dimensions, r.cfg.HNSW)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.indexName(), err)
	}
	if err := r.store.Set(ctx, r.dimKey(), []byte(strconv.Itoa(r.cfg.Dimensions))); err != nil {
		return fmt.Errorf("record index dimension: %w", err)
	}
	return nil
}

// checkIndexDim compares the recorded dimension with the configured one.
// Indexes without a record are adopted as they are.
func (r *Repo) checkIndexDim(ctx context.Context) error {
	raw, err := r.store.Get(ctx, r.dimKey())
	if errors.Is(err, db.ErrKeyNotFound) {
		if err := r.store.Set(ctx, r.dimKey(), []byte(strconv.Itoa(r.cfg.Dimensions))); err != nil {
			return fmt.Errorf("record index dimension: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index dimension: %w", err)
	}

	built, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("parse index dimension %q: %w", raw, err)
	}
	if built != r.cfg.Dimensions {
		return fmt.Errorf("%w: index %s built for %d dimensions, configured %d; run faqsync reindex",
			domain.ErrVectorDimMismatch, r.indexName(), built, r.cfg.Dimensions)
	}
	return nil
}
