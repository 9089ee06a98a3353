package cache

import (
	"context"
	"testing"
	"time"

	"github.com/deppfellow/demo-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemKey(t *testing.T) {
	assert.Equal(t, "demo-backend:item:42", itemKey(42))
}

// Nothing listens on port 1, so every command fails fast.
func unreachableCache(t *testing.T) *ItemCache {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewItemCache(client, time.Minute)
}

func TestItemCacheUnreachableReturnsErrors(t *testing.T) {
	c := unreachableCache(t)
	ctx := context.Background()

	err := c.SetItem(ctx, &model.Item{ID: 1, Name: "n", Description: "d", CreatedAt: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache set item 1")

	err = c.DeleteItem(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache delete item 1")
}
