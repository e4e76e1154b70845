package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tankwatch/backend/services/ingest-service/internal/fuel"
)

// CounterStore keeps the per-tanker stable debounce counter between requests.
type CounterStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCounterStore returns redis-backed store. A zero ttl keeps counters forever.
func NewCounterStore(client *redis.Client, ttl time.Duration) *CounterStore {
	return &CounterStore{client: client, ttl: ttl}
}

func (s *CounterStore) key(plate string) string {
	return fmt.Sprintf("tanker:%s:stable_count", plate)
}

// Get returns the stored counter, 0 when none is stored.
func (s *CounterStore) Get(ctx context.Context, plate string) (int, error) {
	raw, err := s.client.Get(ctx, s.key(plate)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("redis: corrupt stable count for %s: %w", plate, err)
	}
	return n, nil
}

// Set stores the counter.
func (s *CounterStore) Set(ctx context.Context, plate string, count int) error {
	return s.client.Set(ctx, s.key(plate), count, s.ttl).Err()
}

// AlertPublisher mirrors live tanker events onto redis pub/sub for other consumers.
type AlertPublisher struct {
	client *redis.Client
}

// NewAlertPublisher returns publisher.
func NewAlertPublisher(client *redis.Client) *AlertPublisher {
	return &AlertPublisher{client: client}
}

// Channel returns the publish target for a tanker.
func (p *AlertPublisher) Channel(plate string) fuel.Channel {
	return &pubsubChannel{client: p.client, name: fmt.Sprintf("tanker:%s:alerts", plate)}
}

type pubsubChannel struct {
	client *redis.Client
	name   string
}

func (c *pubsubChannel) Emit(event string, payload interface{}) error {
	data, err := json.Marshal(map[string]interface{}{
		"event":        event,
		"data":         payload,
		"published_at": time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return c.client.Publish(ctx, c.name, data).Err()
}
