// Package cache mirrors items into Redis for other readers of the same
// instance. The API never answers from it: storage stays the source of
// truth and every successful read or write refreshes the mirror.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/deppfellow/demo-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "demo-backend:item:"

// ItemCache stores model.Item values as JSON under one key per id.
type ItemCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewItemCache wraps a Redis client. A zero ttl keeps entries forever.
func NewItemCache(client redis.Cmdable, ttl time.Duration) *ItemCache {
	return &ItemCache{client: client, ttl: ttl}
}

func itemKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

func (c *ItemCache) SetItem(ctx context.Context, item *model.Item) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("cache encode item %d: %w", item.ID, err)
	}

	if err := c.client.Set(ctx, itemKey(item.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set item %d: %w", item.ID, err)
	}
	return nil
}

// DeleteItem drops the mirror of an id storage no longer has. Deleting a
// missing key is not an error.
func (c *ItemCache) DeleteItem(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, itemKey(id)).Err(); err != nil {
		return fmt.Errorf("cache delete item %d: %w", id, err)
	}
	return nil
}
