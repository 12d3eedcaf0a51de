package corpus

import (
	"context"

	"github.com/kailas-cloud/faqdex/internal/domain/faq"
)

// Source lists every stored FAQ entry, including vectors when present.
type Source interface {
	List(ctx context.Context) ([]faq.Entry, error)
}
