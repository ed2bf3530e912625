package worker

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/cohortsched-backend/internal/config"
	"github.com/stemsi/cohortsched-backend/internal/service"
)

const AttendancePollTimeout = 1 * time.Second

// Recomputer recomputes the ledger of one mentor.
type Recomputer interface {
	Recompute(ctx context.Context, mentorID int) (*service.AttendanceResult, error)
}

// AttendanceWorker drains the recompute queue one mentor at a time.
type AttendanceWorker struct {
	rdb        *redis.Client
	recomputer Recomputer
	log        zerolog.Logger
}

func NewAttendanceWorker(rdb *redis.Client, recomputer Recomputer, log zerolog.Logger) *AttendanceWorker {
	return &AttendanceWorker{
		rdb:        rdb,
		recomputer: recomputer,
		log:        log.With().Str("component", "attendance_worker").Logger(),
	}
}

// Start blocks until ctx is cancelled. Failed mentors are logged and dropped; the
// queue is refilled by the next recompute-all request or the sync CLI.
func (w *AttendanceWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AttendanceWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("AttendanceWorker stopped")
			return
		default:
		}

		item, err := w.rdb.BLPop(ctx, AttendancePollTimeout, config.WorkerKey.AttendanceRecomputeQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("BLPop error")
				time.Sleep(AttendancePollTimeout)
			}
			continue
		}
		if len(item) < 2 {
			continue
		}

		w.process(ctx, item[1])
	}
}

func (w *AttendanceWorker) process(ctx context.Context, raw string) {
	mentorID, err := strconv.Atoi(raw)
	if err != nil {
		w.log.Error().Str("payload", raw).Msg("Invalid mentor id in queue")
		return
	}

	result, err := w.recomputer.Recompute(ctx, mentorID)
	if err != nil {
		w.log.Error().Err(err).Int("mentor_id", mentorID).Msg("Attendance recompute failed")
		return
	}
	if err := result.Err(); err != nil {
		w.log.Warn().
			Err(err).
			Int("mentor_id", mentorID).
			Int("skipped_partitions", len(result.SkippedPartitions)).
			Msg("Attendance recomputed with skipped partitions")
	}
}
