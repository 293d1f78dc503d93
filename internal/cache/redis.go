package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/ghostpen/internal/types"
)

// DefaultKeyPrefix namespaces profile keys in Redis.
const DefaultKeyPrefix = "ghostpen:profile"

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	Prefix string        // key prefix, default DefaultKeyPrefix
	TTL    time.Duration // entry lifetime, 0 = no expiry
}

// RedisCache shares profiles between processes through Redis.
// Profiles are stored as JSON under "{prefix}:{author_id}".
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client redis.UniversalClient, opts RedisOptions) *RedisCache {
	if opts.Prefix == "" {
		opts.Prefix = DefaultKeyPrefix
	}
	return &RedisCache{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

// NewRedisClient parses a redis:// URL and verifies the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) key(authorID string) string {
	return c.prefix + ":" + authorID
}

// Get returns the cached profile for authorID.
func (c *RedisCache) Get(ctx context.Context, authorID string) (*types.StyleProfile, bool, error) {
	data, err := c.client.Get(ctx, c.key(authorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", authorID, err)
	}

	var profile types.StyleProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, false, fmt.Errorf("decode cached profile %s: %w", authorID, err)
	}
	return &profile, true, nil
}

// Put stores profile under its author id.
func (c *RedisCache) Put(ctx context.Context, profile *types.StyleProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", profile.AuthorID, err)
	}
	if err := c.client.Set(ctx, c.key(profile.AuthorID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", profile.AuthorID, err)
	}
	return nil
}

// Invalidate removes the entry for authorID.
func (c *RedisCache) Invalidate(ctx context.Context, authorID string) error {
	if err := c.client.Del(ctx, c.key(authorID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", authorID, err)
	}
	return nil
}

// Clear removes every profile under the cache prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
