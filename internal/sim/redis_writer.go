package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vanet-sim/internal/traffic"
)

// DefaultRedisChannel is the pub/sub channel events are published on.
const DefaultRedisChannel = "vanet:events"

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// eventMessage is the payload published for each event.
type eventMessage struct {
	ClusterID string `json:"cluster_id"`
	traffic.Event
}

// RedisEventWriter publishes events to a Redis pub/sub channel.
type RedisEventWriter struct {
	client    redisPublisher
	channel   string
	clusterID string
	timeout   time.Duration
}

// NewRedisEventWriter connects to addr and verifies the connection.
func NewRedisEventWriter(ctx context.Context, addr, channel, clusterID string) (*RedisEventWriter, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, PoolSize: 10})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisEventWriter{client: rdb, channel: channel, clusterID: clusterID, timeout: 2 * time.Second}, rdb, nil
}

// WriteEvent publishes a single event.
func (w *RedisEventWriter) WriteEvent(ev traffic.Event) error {
	payload, err := json.Marshal(eventMessage{ClusterID: w.clusterID, Event: ev})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if err := w.client.Publish(ctx, w.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event to Redis: %w", err)
	}
	return nil
}

// WriteEvents publishes events in order, stopping at the first failure.
func (w *RedisEventWriter) WriteEvents(events []traffic.Event) error {
	for _, ev := range events {
		if err := w.WriteEvent(ev); err != nil {
			return err
		}
	}
	return nil
}
