package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	postKeyPrefix = "post:%d"
	feedListKey   = "feed:recent"
)

const (
	// FeedTTL bounds staleness of the recent-posts list between invalidations.
	FeedTTL = 2 * time.Minute
	PostTTL = 10 * time.Minute
)

// PostKey derives the cache key for a single post.
func PostKey(postID uint) string {
	return fmt.Sprintf(postKeyPrefix, postID)
}

// FeedKey is the cache key for the default recent-posts window.
func FeedKey() string {
	return feedListKey
}

// Aside implements the cache-aside pattern: on hit, dest is populated from the
// cached JSON; on miss, fetch is called and its result is stored under key.
// A nil Redis client degrades to calling fetch directly.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}

	cached, err := client.Get(ctx, key).Result()
	if err == nil {
		if unmarshalErr := json.Unmarshal([]byte(cached), dest); unmarshalErr == nil {
			return nil
		}
		// Corrupt entry: drop it and fall through to the fetch path.
		client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		// Redis unavailable mid-flight; serve from the source instead of failing.
		return fetch()
	}

	if err := fetch(); err != nil {
		return err
	}

	if data, marshalErr := json.Marshal(dest); marshalErr == nil {
		client.Set(ctx, key, data, ttl)
	}
	return nil
}

// Invalidate removes a single cache entry.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateFeed drops the cached recent-posts window.
func InvalidateFeed(ctx context.Context) {
	Invalidate(ctx, feedListKey)
}

// InvalidatePost drops the cached entry for a post and the feed window that
// may embed it.
func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
	InvalidateFeed(ctx)
}
