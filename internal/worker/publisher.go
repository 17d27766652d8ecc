package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/presensi-backend/internal/config"
	"github.com/stemsi/presensi-backend/internal/model"
)

// RedisEventPublisher fans terminal recognition outcomes out to the stats
// worker queue and the live feed channel.
type RedisEventPublisher struct {
	rdb *redis.Client
}

// NewRedisEventPublisher creates a new RedisEventPublisher.
func NewRedisEventPublisher(rdb *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{rdb: rdb}
}

// Publish enqueues the event for stats aggregation and broadcasts it on
// the feed channel.
func (p *RedisEventPublisher) Publish(ctx context.Context, ev model.RecognitionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal recognition event: %w", err)
	}

	if err := p.rdb.LPush(ctx, config.WorkerKey.RecognitionEventsQueue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue recognition event: %w", err)
	}
	if err := p.rdb.Publish(ctx, config.CacheKey.RecognitionFeedChannel(), payload).Err(); err != nil {
		return fmt.Errorf("publish recognition event: %w", err)
	}
	return nil
}
