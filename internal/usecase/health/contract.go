package health

import (
	"context"

	domfaq "github.com/kailas-cloud/faqdex/internal/domain/faq"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CorpusReader exposes the active FAQ snapshot.
type CorpusReader interface {
	Snapshot() *domfaq.Snapshot
}
