package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "moviematch:"
	redisOpTimeout   = 2 * time.Second
	scanBatch        = 500
)

func init() {
	Register("redis", newRedisCache)
}

// redisCache stores each entry as its own string key, {prefix}{key}, with a PX expiry.
// Reads refresh the expiry with GETEX so an active session stays alive (sliding TTL).
// Capacity is left to the server's maxmemory policy, so OnEvict is never called.
//
// Requires Redis 6.2+ or Valkey for GETEX.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger Logger
}

func newRedisCache(cfg ProviderConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &redisCache{
		client: client,
		ttl:    cfg.TTL,
		prefix: prefix,
		logger: cfg.Logger,
	}, nil
}

func (r *redisCache) key(k string) string {
	return r.prefix + k
}

func (r *redisCache) logError(msg string, err error) {
	if r.logger != nil {
		r.logger.Error(msg, err)
	}
}

func (r *redisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	val, err := r.client.GetEx(ctx, r.key(key), r.ttl).Bytes()
	if err != nil {
		// redis.Nil is a normal miss
		if !errors.Is(err, redis.Nil) {
			r.logError("redis cache Get failed", err)
		}
		return nil, false
	}
	return val, true
}

func (r *redisCache) Set(key string, value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		r.logError("redis cache Set failed", err)
	}
}

func (r *redisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logError("redis cache Delete failed", err)
	}
}

func (r *redisCache) Contains(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		r.logError("redis cache Contains failed", err)
		return false
	}
	return n > 0
}

// Len counts keys under the prefix with SCAN; it is only called at metrics scrape time.
func (r *redisCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	count := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		r.logError("redis cache Len failed", err)
		return 0
	}
	return count
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
