package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/stemsi/cohortsched-backend/internal/config"
	"github.com/stemsi/cohortsched-backend/internal/model"
)

// ScheduleEventRepository carries schedule change events over Redis Pub/Sub.
type ScheduleEventRepository struct {
	rdb *redis.Client
}

// NewScheduleEventRepository creates a new ScheduleEventRepository.
func NewScheduleEventRepository(rdb *redis.Client) *ScheduleEventRepository {
	return &ScheduleEventRepository{rdb: rdb}
}

// Publish sends ev to everyone watching its partition.
func (r *ScheduleEventRepository) Publish(ctx context.Context, ev model.ScheduleEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return r.rdb.Publish(ctx, config.CacheKey.ScheduleEventsChannel(ev.Partition), payload).Err()
}

// Subscribe listens to the events of one partition. The caller must Close it.
func (r *ScheduleEventRepository) Subscribe(ctx context.Context, partition string) *redis.PubSub {
	return r.rdb.Subscribe(ctx, config.CacheKey.ScheduleEventsChannel(partition))
}
