package worker

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/stemsi/cohortsched-backend/internal/config"
)

// RecomputeQueue is the Redis list of mentor ids awaiting attendance recomputation.
type RecomputeQueue struct {
	rdb *redis.Client
}

// NewRecomputeQueue creates a new RecomputeQueue.
func NewRecomputeQueue(rdb *redis.Client) *RecomputeQueue {
	return &RecomputeQueue{rdb: rdb}
}

// Enqueue appends mentor ids in a single round trip.
func (q *RecomputeQueue) Enqueue(ctx context.Context, mentorIDs ...int) error {
	if len(mentorIDs) == 0 {
		return nil
	}
	values := make([]interface{}, len(mentorIDs))
	for i, id := range mentorIDs {
		values[i] = strconv.Itoa(id)
	}
	return q.rdb.RPush(ctx, config.WorkerKey.AttendanceRecomputeQueue, values...).Err()
}
