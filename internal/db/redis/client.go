// Package redis implements db.Store over rueidis for Valkey with valkey-search
// and for Redis 8+. Both speak the same FT.* dialect for HASH-backed vector indexes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/db"
)

var _ db.Store = (*Store)(nil)

// Readiness polling starts at readyMinBackoff and doubles up to readyMaxBackoff.
const (
	readyMinBackoff = 100 * time.Millisecond
	readyMaxBackoff = 2 * time.Second
)

// Config holds connection parameters.
type Config struct {
	Addrs       []string
	Password    string
	DialTimeout time.Duration // rueidis default when zero
	Logger      *zap.Logger
}

// Store is a rueidis-backed db.Store.
type Store struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewStore creates the client. rueidis dials lazily, so an unreachable server
// surfaces on the first command or in WaitForReady.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 || cfg.Addrs[0] == "" {
		return nil, errors.New("at least one address is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opt := rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
		AlwaysRESP2:  true, // parseKNNReply expects the RESP2 array layout
	}
	if cfg.DialTimeout > 0 {
		opt.Dialer.Timeout = cfg.DialTimeout
	}

	client, err := rueidis.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("create rueidis client: %w", err)
	}
	return &Store{client: client, logger: logger}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings with exponential backoff until the server answers or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := readyMinBackoff
	for attempt := 1; ; attempt++ {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		s.logger.Debug("Database not ready", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, readyMaxBackoff)
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr reports whether err is a server error whose message contains substr, ignoring case.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
