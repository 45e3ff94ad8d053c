package queue

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nao1215/pageaudit/internal/model"
)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// Queue is the list triggers are pushed to. Defaults to DefaultQueue.
	Queue string

	// Channel is the pub/sub channel events are published on. Defaults to DefaultChannel.
	Channel string

	// TLS configuration for secure connections
	TLS *tls.Config

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// RedisClient pushes and pops triggers and publishes run events.
// It implements orchestrator.Publisher.
type RedisClient struct {
	client  *redis.Client
	queue   string
	channel string
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(opts RedisOptions) (*RedisClient, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Queue == "" {
		opts.Queue = DefaultQueue
	}
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if opts.TLS != nil {
		redisOpts.TLSConfig = opts.TLS
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client, queue: opts.Queue, channel: opts.Channel}, nil
}

// PushTrigger appends a trigger to the queue.
func (c *RedisClient) PushTrigger(ctx context.Context, trigger Trigger) error {
	if err := trigger.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(trigger)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger: %w", err)
	}
	if err := c.client.LPush(ctx, c.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to push to queue %s: %w", c.queue, err)
	}
	return nil
}

// PopTrigger removes the oldest trigger from the queue, waiting up to
// timeout for one to arrive. A zero timeout blocks until a trigger arrives
// or ctx is cancelled. It returns ErrNoMessage when the wait timed out.
func (c *RedisClient) PopTrigger(ctx context.Context, timeout time.Duration) (*Trigger, error) {
	result, err := c.client.BRPop(ctx, timeout, c.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoMessage
		}
		return nil, fmt.Errorf("failed to pop from queue %s: %w", c.queue, err)
	}

	// BRPOP returns [queue_name, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result length: %d", len(result))
	}

	var trigger Trigger
	if err := json.Unmarshal([]byte(result[1]), &trigger); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTrigger, err)
	}
	return &trigger, nil
}

// PublishProgress publishes a progress event.
func (c *RedisClient) PublishProgress(ctx context.Context, event model.ProgressEvent) error {
	return c.publish(ctx, Event{Kind: EventProgress, Progress: &event})
}

// PublishFailure publishes a failure event.
func (c *RedisClient) PublishFailure(ctx context.Context, event model.FailureEvent) error {
	return c.publish(ctx, Event{Kind: EventFailure, Failure: &event})
}

func (c *RedisClient) publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := c.client.Publish(ctx, c.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", c.channel, err)
	}
	return nil
}

// Subscribe listens on the events channel. The returned channel is closed
// when ctx is cancelled. Messages that are not valid Event JSON are dropped.
func (c *RedisClient) Subscribe(ctx context.Context) (<-chan Event, error) {
	pubsub := c.client.Subscribe(ctx, c.channel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", c.channel, err)
	}

	events := make(chan Event)

	go func() {
		defer close(events)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}

				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// QueueLength returns the number of pending triggers.
func (c *RedisClient) QueueLength(ctx context.Context) (int64, error) {
	n, err := c.client.LLen(ctx, c.queue).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get length of queue %s: %w", c.queue, err)
	}
	return n, nil
}

// Close closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}
