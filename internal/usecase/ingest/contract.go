package ingest

import (
	"context"

	domfaq "github.com/kailas-cloud/faqdex/internal/domain/faq"
)

// Store persists FAQ entries together with their vectors.
type Store interface {
	EnsureIndex(ctx context.Context) error
	List(ctx context.Context) ([]domfaq.Entry, error)
	Upsert(ctx context.Context, entries []domfaq.Entry) error
	Delete(ctx context.Context, id string) error
}
