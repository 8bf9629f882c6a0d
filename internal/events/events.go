// Package events publishes accepted review ratings to a Redis stream for
// analytics and audit consumers. The feed is best effort: the review flow
// never fails because the stream is down.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jktrolbot/opositaplus-sub000/internal/review"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reviewStream = "opositaplus:reviews"

// Publisher writes review events to Redis Streams.
type Publisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewPublisher connects to Redis and verifies the connection.
func NewPublisher(redisURL string, logger *zap.Logger) (*Publisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Publisher{rdb: rdb, logger: logger}, nil
}

// envelope wraps a review event with a feed-level identity.
type envelope struct {
	ID string `json:"id"`
	review.ReviewEvent
}

// PublishReview appends one event to the review stream.
func (p *Publisher) PublishReview(ctx context.Context, e review.ReviewEvent) error {
	data, err := json.Marshal(envelope{ID: uuid.NewString(), ReviewEvent: e})
	if err != nil {
		return err
	}

	_, err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: reviewStream,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", reviewStream, err)
	}

	p.logger.Debug("review event published",
		zap.String("learner", e.LearnerID),
		zap.String("item", e.ItemID),
		zap.Int("rating", e.Rating))
	return nil
}

// Subscribe tails the review stream, emitting events on the returned channel.
// Cancel the context to stop.
func (p *Publisher) Subscribe(ctx context.Context) <-chan review.ReviewEvent {
	ch := make(chan review.ReviewEvent, 16)

	go func() {
		defer close(ch)
		lastID := "$"

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			results, err := p.rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{reviewStream, lastID},
				Count:   10,
				Block:   time.Second * 2,
			}).Result()

			if err != nil {
				if err == context.Canceled || err == context.DeadlineExceeded {
					return
				}
				continue
			}

			for _, r := range results {
				for _, msg := range r.Messages {
					lastID = msg.ID
					data, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}
					var env envelope
					if json.Unmarshal([]byte(data), &env) == nil {
						ch <- env.ReviewEvent
					}
				}
			}
		}
	}()

	return ch
}

// Close shuts down the Redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
