// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package argocd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces cache entries in a shared redis.
const redisKeyPrefix = "clitools:argocd:"

// RedisCache keeps entries as redis hashes {data, stored_at} so several agent
// pods can share one workspace cache. Keys expire after StaleAfter.
type RedisCache struct {
	client *redis.Client
	addr   string
	now    func() time.Time
}

// NewRedisCache connects to a redis:// URL.
func NewRedisCache(rawURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis_url: %w", err)
	}
	return NewRedisCacheWithClient(redis.NewClient(opts)), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, addr: client.Options().Addr, now: time.Now}
}

// Close releases the redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Location() string {
	return "redis://" + c.addr + "/" + redisKeyPrefix + "*"
}

func (c *RedisCache) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	fields, err := c.client.HGetAll(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis cache read: %w", err)
	}
	data, ok := fields["data"]
	if !ok {
		return nil, false, nil
	}
	if c.now().Sub(storedAt(fields)) >= ttl {
		return nil, false, nil
	}
	return []byte(data), true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte) error {
	full := redisKeyPrefix + key
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, full, "data", data, "stored_at", c.now().UnixNano())
		pipe.Expire(ctx, full, StaleAfter)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis cache write: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = redisKeyPrefix + k
	}
	_, err := c.del(ctx, full)
	return err
}

func (c *RedisCache) Entries(ctx context.Context) ([]Entry, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		fields, err := c.client.HGetAll(ctx, key).Result()
		if errors.Is(err, redis.Nil) || len(fields) == 0 {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis cache read: %w", err)
		}
		entries = append(entries, Entry{
			Name:    strings.TrimPrefix(key, redisKeyPrefix),
			Size:    int64(len(fields["data"])),
			ModTime: storedAt(fields),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (c *RedisCache) Cleanup(ctx context.Context, age time.Duration) (int, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := c.now().Add(-age)
	var stale []string
	for _, e := range entries {
		if e.ModTime.Before(cutoff) {
			stale = append(stale, redisKeyPrefix+e.Name)
		}
	}
	return c.del(ctx, stale)
}

func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return 0, err
	}
	return c.del(ctx, keys)
}

func (c *RedisCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := c.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis cache scan: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (c *RedisCache) del(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis cache delete: %w", err)
	}
	return int(n), nil
}

func storedAt(fields map[string]string) time.Time {
	ns, err := strconv.ParseInt(fields["stored_at"], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
