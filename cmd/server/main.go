package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/cohortsched-backend/internal/config"
	"github.com/stemsi/cohortsched-backend/internal/database"
	"github.com/stemsi/cohortsched-backend/internal/handler"
	"github.com/stemsi/cohortsched-backend/internal/lock"
	"github.com/stemsi/cohortsched-backend/internal/logger"
	"github.com/stemsi/cohortsched-backend/internal/notify"
	"github.com/stemsi/cohortsched-backend/internal/repository"
	"github.com/stemsi/cohortsched-backend/internal/router"
	"github.com/stemsi/cohortsched-backend/internal/service"
	"github.com/stemsi/cohortsched-backend/internal/validator"
	"github.com/stemsi/cohortsched-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("notify_driver", cfg.NotifyDriver).
		Msg("Starting cohort scheduler")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	scheduleRepo := repository.NewScheduleRepository(pool)
	directoryRepo := repository.NewDirectoryRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	eventRepo := repository.NewScheduleEventRepository(rdb)
	recomputeQueue := worker.NewRecomputeQueue(rdb)

	// ─── Notification Channels ────────────────────────────────────────
	mailer, messenger := buildDispatchers(cfg, log)
	notifier := notify.NewNotifier(mailer, messenger, cfg.DefaultCountryCode, log)
	pacing := notify.PacingPolicy{Coordinator: cfg.CoordinatorDelay, Student: cfg.StudentDelay}

	// ─── Initialize Services ──────────────────────────────────────────
	locker := lock.NewRedisLocker(rdb, cfg.PartitionLockTTL)
	authService := service.NewAuthService(cfg.JWTSecret)
	scheduleService := service.NewScheduleService(scheduleRepo)
	weekService := service.NewWeekService(scheduleRepo, locker, eventRepo, log)
	rescheduleService := service.NewRescheduleService(
		scheduleRepo, directoryRepo, notifier, pacing, locker, eventRepo, cfg.MailFromName, log,
	)
	attendanceService := service.NewAttendanceService(scheduleRepo, directoryRepo, attendanceRepo, recomputeQueue, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Schedule:   handler.NewScheduleHandler(scheduleService, weekService, rescheduleService),
		Attendance: handler.NewAttendanceHandler(attendanceService),
		Stream:     handler.NewStreamHandler(eventRepo, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	attendanceWorker := worker.NewAttendanceWorker(rdb, attendanceService, log)
	go func() {
		defer close(workerDone)
		attendanceWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. Reschedules may still be pacing
	// notifications, so allow them a generous window.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the worker after its current mentor.
	workerCancel()
	<-workerDone

	log.Info().Msg("Shutdown complete")
}

// buildDispatchers picks the notification transports for NOTIFY_DRIVER.
func buildDispatchers(cfg *config.Config, log zerolog.Logger) (notify.Mailer, notify.Messenger) {
	if cfg.NotifyDriver != config.NotifyDriverLive {
		console := notify.NewConsoleDispatcher(log)
		return console, console
	}

	if cfg.SendGridAPIKey == "" || cfg.WhatsAppToken == "" || cfg.WhatsAppPhoneNumberID == "" {
		log.Fatal().Msg("NOTIFY_DRIVER=live requires SENDGRID_API_KEY, WHATSAPP_TOKEN and WHATSAPP_PHONE_NUMBER_ID")
	}

	mailer := notify.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromAddress, cfg.NotifyTimeout, log)
	messenger := notify.NewWhatsAppSender(notify.WhatsAppConfig{
		BaseURL:       cfg.WhatsAppAPIURL,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		Token:         cfg.WhatsAppToken,
		Language:      cfg.WhatsAppTemplateLang,
		Timeout:       cfg.NotifyTimeout,
	}, log)
	return mailer, messenger
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
