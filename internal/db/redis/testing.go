package redis

import (
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// NewStoreForTest wraps an existing client, typically a rueidis/mock client.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c, logger: zap.NewNop()}
}
