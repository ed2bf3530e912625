package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/stemsi/cohortsched-backend/internal/config"
	"github.com/stemsi/cohortsched-backend/internal/database"
	"github.com/stemsi/cohortsched-backend/internal/logger"
	"github.com/stemsi/cohortsched-backend/internal/repository"
	"github.com/stemsi/cohortsched-backend/internal/service"
)

// attendance-sync recomputes mentor attendance ledgers without the HTTP server.
// Intended for cron: exits non-zero when any mentor could not be recomputed.
func main() {
	var (
		mentorID int
		timeout  time.Duration
	)
	flag.IntVar(&mentorID, "mentor", 0, "Recompute a single mentor (default: every mentor)")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "Overall deadline")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	attendanceService := service.NewAttendanceService(
		repository.NewScheduleRepository(pool),
		repository.NewDirectoryRepository(pool),
		repository.NewAttendanceRepository(pool),
		nil,
		log,
	)

	if mentorID > 0 {
		result, err := attendanceService.Recompute(ctx, mentorID)
		if err != nil {
			log.Error().Err(err).Int("mentor_id", mentorID).Msg("Recompute failed")
			os.Exit(1)
		}
		log.Info().
			Int("mentor_id", mentorID).
			Float64("percent", result.Ledger.AttendancePercent).
			Bool("partial_failure", result.PartialFailure).
			Msg("Recompute finished")
		if err := result.Err(); err != nil {
			log.Warn().Err(err).Msg("Some partitions were skipped")
			os.Exit(1)
		}
		return
	}

	result, err := attendanceService.RecomputeAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Recompute failed")
		os.Exit(1)
	}
	log.Info().
		Int("mentors", result.Mentors.Attempted).
		Int("succeeded", result.Mentors.Succeeded).
		Int("failed", result.Mentors.Failed()).
		Int("partitions_scanned", result.Partitions.Succeeded).
		Int("partitions_skipped", result.Partitions.Failed()).
		Msg("Recompute finished")
	if err := result.Err(); err != nil {
		log.Warn().Err(err).Msg("Recompute incomplete")
		os.Exit(1)
	}
}
