package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Quote cache keys
const (
	QuoteViewKeyFmt = "quotes:view:%s"
	QuoteViewTTL    = 10 * time.Minute
)

func QuoteViewKey(quoteID string) string {
	return fmt.Sprintf(QuoteViewKeyFmt, quoteID)
}

// Store is a nil-safe cache. A Store without a client misses every read and
// drops every write, so callers never need to check whether Redis is up.
type Store struct {
	client *redis.Client
}

// Init connects to addr. On failure it returns an empty Store together with
// the error so the caller can log and carry on without a cache.
func Init(ctx context.Context, addr, password string, db int) (*Store, error) {
	if addr == "" {
		return &Store{}, fmt.Errorf("redis address not configured")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		// Close the failed client and fall back to no cache
		client.Close()
		return &Store{}, err
	}
	return &Store{client: client}, nil
}

// New wraps an existing client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Client returns the Redis client, nil when running without cache.
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// Get returns cached data for a key
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if s == nil || s.client == nil {
		return nil, false
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores data with a TTL
func (s *Store) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if s == nil || s.client == nil {
		return
	}
	s.client.Set(ctx, key, data, ttl)
}

// Delete removes specific cache keys
func (s *Store) Delete(ctx context.Context, keys ...string) {
	if s == nil || s.client == nil || len(keys) == 0 {
		return
	}
	s.client.Del(ctx, keys...)
}

// InvalidatePattern removes all keys matching a glob pattern
func (s *Store) InvalidatePattern(ctx context.Context, pattern string) {
	if s == nil || s.client == nil {
		return
	}
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		s.client.Del(ctx, keys...)
	}
}

// InvalidateQuote clears the cached public view of a quote
// Called when: status transition, tech report sync
func (s *Store) InvalidateQuote(ctx context.Context, quoteID string) {
	s.Delete(ctx, QuoteViewKey(quoteID))
}

// IsHealthy returns true if Redis connection is working
func (s *Store) IsHealthy(ctx context.Context) bool {
	if s == nil || s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err() == nil
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
