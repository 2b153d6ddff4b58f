// Package redisstore provides an upload URL store backed by Redis, allowing
// uploads to be resumed from any process with access to the same Redis
// instance.
package redisstore

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"
)

// DefaultKeyPrefix is prepended to every fingerprint to form the Redis key.
const DefaultKeyPrefix = "tusc:upload:"

// RedisStore persists upload URLs in Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a RedisStore.
type Option func(store *RedisStore)

// WithKeyPrefix replaces the default key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(store *RedisStore) {
		store.prefix = prefix
	}
}

// WithTTL lets entries expire after the given duration. Zero keeps them
// until they are deleted.
func WithTTL(ttl time.Duration) Option {
	return func(store *RedisStore) {
		store.ttl = ttl
	}
}

// WithLogger replaces the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(store *RedisStore) {
		store.logger = logger
	}
}

// NewFromClient creates a store on top of an existing Redis client.
func NewFromClient(client redis.UniversalClient, options ...Option) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: DefaultKeyPrefix,
	}
	for _, option := range options {
		option(store)
	}

	if store.logger == nil {
		h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
		store.logger = slog.New(h)
	}

	return store
}

// New connects to the Redis instance described by the URI, e.g.
// redis://localhost:6379/0, and verifies the connection with a ping.
func New(uri string, options ...Option) (*RedisStore, error) {
	connection, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(connection)
	if res := client.Ping(context.Background()); res.Err() != nil {
		return nil, res.Err()
	}
	return NewFromClient(client, options...), nil
}

// Put inserts the mapping, overwriting any previous entry.
func (store *RedisStore) Put(fingerprint string, uploadURL string) error {
	return store.client.Set(context.Background(), store.prefix+fingerprint, uploadURL, store.ttl).Err()
}

// Get returns the stored upload URL for the fingerprint. A missing key is
// reported as absence, not as an error.
func (store *RedisStore) Get(fingerprint string) (string, bool, error) {
	uploadURL, err := store.client.Get(context.Background(), store.prefix+fingerprint).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return uploadURL, true, nil
}

// Delete removes the entry if present.
func (store *RedisStore) Delete(fingerprint string) error {
	return store.client.Del(context.Background(), store.prefix+fingerprint).Err()
}
