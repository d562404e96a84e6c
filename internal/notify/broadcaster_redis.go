package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "transfer:events:"

// RedisBroadcaster fans events out across service instances via Redis
// Pub/Sub, so a session connected to any instance sees transitions made
// through another. Pub/Sub gives at-most-once per connected subscriber;
// combined with client-side refetch on subscribe this yields the advisory
// at-least-once behavior the protocol needs.
type RedisBroadcaster struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisBroadcaster(client *redis.Client, logger *slog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, logger: logger}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return b.client.Publish(ctx, channelPrefix+event.SubjectID, payload).Err()
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context, subjectID string) (<-chan Event, func(), error) {
	pubsub := b.client.Subscribe(ctx, channelPrefix+subjectID)
	// Force the subscription to be established before we report success.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", subjectID, err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("dropping malformed transfer event",
					"subject_id", subjectID,
					"error", err,
				)
				continue
			}
			select {
			case out <- event:
			default:
				// Stalled consumer; it will refetch on resume.
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}
