package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"paperbase/internal/app"
)

const searchKeyPattern = "search:*"

// SearchResultCache keeps ranked search results in Redis for a short TTL.
// Entries are flushed wholesale whenever a document changes, so staleness is
// bounded by the event pipeline rather than the TTL.
type SearchResultCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewSearchResultCache(client *redisv9.Client, ttl time.Duration) *SearchResultCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &SearchResultCache{client: client, ttl: ttl}
}

func (c *SearchResultCache) Get(ctx context.Context, key string) ([]app.Hit, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get search results failed: %w", err)
	}

	var hits []app.Hit
	if err := json.Unmarshal([]byte(raw), &hits); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached search results failed: %w", err)
	}
	return hits, true, nil
}

func (c *SearchResultCache) Set(ctx context.Context, key string, hits []app.Hit) error {
	payload, err := json.Marshal(hits)
	if err != nil {
		return fmt.Errorf("marshal search results failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set search results failed: %w", err)
	}
	return nil
}

// Flush removes every cached search entry.
func (c *SearchResultCache) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, searchKeyPattern, 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan search keys failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete search keys failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
