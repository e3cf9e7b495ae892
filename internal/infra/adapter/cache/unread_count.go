// Package cache provides the Redis-backed cache of per-recipient unread
// alert counts. The database stays authoritative; the cache is refreshed by
// recounting whenever new alerts are stored.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stream-notify/internal/repository"
)

const unreadCountKeyPrefix = "alerts:unread:"

// UnreadCountCache mirrors unread in-app alert counts in Redis so read-side
// consumers can fetch them without hitting the database.
type UnreadCountCache struct {
	client *redis.Client
	repo   repository.InAppNotificationRepository
	ttl    time.Duration
}

// NewUnreadCountCache creates a cache over the given Redis client. ttl bounds
// how long a count survives without a resync; zero means no expiry.
func NewUnreadCountCache(client *redis.Client, repo repository.InAppNotificationRepository, ttl time.Duration) *UnreadCountCache {
	return &UnreadCountCache{client: client, repo: repo, ttl: ttl}
}

// Resync recounts the recipient's unread alerts from the database and stores
// the result in Redis, replacing any stale value.
func (c *UnreadCountCache) Resync(ctx context.Context, recipientID int64) error {
	count, err := c.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("Resync: %w", err)
	}
	key := unreadCountKey(recipientID)
	if err := c.client.Set(ctx, key, count, c.ttl).Err(); err != nil {
		return fmt.Errorf("Resync: set %s: %w", key, err)
	}
	return nil
}

// Get returns the cached unread count for a recipient. On a cache miss it
// falls back to the database and repopulates the cache.
func (c *UnreadCountCache) Get(ctx context.Context, recipientID int64) (int, error) {
	key := unreadCountKey(recipientID)
	count, err := c.client.Get(ctx, key).Int()
	if err == nil {
		return count, nil
	}
	if err != redis.Nil {
		return 0, fmt.Errorf("Get: %w", err)
	}
	count, err = c.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("Get: %w", err)
	}
	if err := c.client.Set(ctx, key, count, c.ttl).Err(); err != nil {
		return 0, fmt.Errorf("Get: set %s: %w", key, err)
	}
	return count, nil
}

func unreadCountKey(recipientID int64) string {
	return fmt.Sprintf("%s%d", unreadCountKeyPrefix, recipientID)
}
