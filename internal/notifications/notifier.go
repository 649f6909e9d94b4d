// Package notifications provides best-effort fan-out of feed events to
// connected listeners.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"

	"ripple/internal/models"

	"github.com/redis/go-redis/v9"
)

// EventNewPost is the event name emitted when a post is created.
const EventNewPost = "newPost"

// feedChannel is the Redis pub/sub channel carrying feed events.
const feedChannel = "feed:new_post"

// Emitter is the contract the feed service depends on. Emission is
// fire-and-forget: callers must treat failures as non-fatal, and a nil
// Emitter is a valid configuration.
type Emitter interface {
	EmitNewPost(ctx context.Context, post *models.Post) error
}

// Notifier publishes feed events into a Redis channel.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// EmitNewPost publishes the created post to the feed channel. A nil Redis
// client is a silent no-op.
func (n *Notifier) EmitNewPost(ctx context.Context, post *models.Post) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	event := map[string]interface{}{
		"type":    EventNewPost,
		"payload": post,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", EventNewPost, err)
	}
	return n.rdb.Publish(ctx, feedChannel, string(payload)).Err()
}

// StartFeedSubscriber subscribes to the feed channel and calls onMessage for
// each incoming event until ctx is cancelled.
func (n *Notifier) StartFeedSubscriber(
	ctx context.Context, onMessage func(payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, feedChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in FeedSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
