package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-vigil/internal/ports"
)

// ErrRedisAddrRequired is returned when a Redis store is created
// without an address.
var ErrRedisAddrRequired = errors.New("redis address is required")

// Verify interface compliance at compile time.
var _ ports.CacheStore = (*RedisStore)(nil)

// RedisStoreOpts holds options for the Redis cache store.
type RedisStoreOpts struct {
	addr      string
	password  string
	db        int
	keyPrefix string
}

// RedisStoreOpt sets an option for the Redis cache store.
type RedisStoreOpt func(*RedisStoreOpts)

// WithAddr sets the Redis server address.
func WithAddr(addr string) RedisStoreOpt {
	return func(o *RedisStoreOpts) { o.addr = addr }
}

// WithPassword sets the Redis password.
func WithPassword(password string) RedisStoreOpt {
	return func(o *RedisStoreOpts) { o.password = password }
}

// WithDB selects the Redis logical database.
func WithDB(db int) RedisStoreOpt {
	return func(o *RedisStoreOpts) { o.db = db }
}

// WithKeyPrefix namespaces all keys written by the store. Clear only
// removes keys under the prefix, so multiple deployments can share one
// Redis instance.
func WithKeyPrefix(prefix string) RedisStoreOpt {
	return func(o *RedisStoreOpts) { o.keyPrefix = prefix }
}

// RedisStore is a cache store backed by Redis. Expiry is delegated to
// Redis key TTLs. It is safe for concurrent use.
type RedisStore struct {
	opts   RedisStoreOpts
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed cache store.
func NewRedisStore(options ...RedisStoreOpt) (*RedisStore, error) {
	opts := RedisStoreOpts{keyPrefix: "vigil:"}
	for _, option := range options {
		option(&opts)
	}
	if opts.addr == "" {
		return nil, ErrRedisAddrRequired
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.addr,
		Password: opts.password,
		DB:       opts.db,
	})
	return &RedisStore{opts: opts, client: client}, nil
}

// Get retrieves a cached value by key.
func (s *RedisStore) Get(ctx context.Context, key string) (any, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &ports.CacheError{Key: key, Operation: "get", Err: err}
	}
	return data, true, nil
}

// Set stores a value with an expiration time. Byte and string values
// are stored as-is; anything else is JSON-encoded.
func (s *RedisStore) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return &ports.CacheError{Key: key, Operation: "set", Err: err}
	}
	if err := s.client.Set(ctx, s.key(key), data, expiration).Err(); err != nil {
		return &ports.CacheError{Key: key, Operation: "set", Err: err}
	}
	return nil
}

// Delete removes a value from the cache.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return &ports.CacheError{Key: key, Operation: "delete", Err: err}
	}
	return nil
}

// Clear removes all values under the store's key prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.opts.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return &ports.CacheError{Key: iter.Val(), Operation: "clear", Err: err}
		}
	}
	if err := iter.Err(); err != nil {
		return &ports.CacheError{Operation: "clear", Err: err}
	}
	return nil
}

// Close releases the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(key string) string {
	return s.opts.keyPrefix + key
}

// encodeValue coerces a cached value into bytes for storage.
func encodeValue(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding cache value: %w", err)
		}
		return data, nil
	}
}
