package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/cohortsched-backend/internal/config"
	"github.com/stemsi/cohortsched-backend/internal/response"
)

const healthTimeout = 2 * time.Second

// SystemHandler reports liveness of the service and its backing stores.
type SystemHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		pool:      pool,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthReport struct {
	Status          string `json:"status"`
	Uptime          string `json:"uptime"`
	Postgres        string `json:"postgres"`
	Redis           string `json:"redis"`
	RecomputeQueued int64  `json:"recompute_queued"`
	Goroutines      int    `json:"goroutines"`
	GoVersion       string `json:"go_version"`
}

// Health godoc
// GET /health
// Returns 200 when both stores answer, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	report := healthReport{
		Status:     "ok",
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Postgres:   "ok",
		Redis:      "ok",
		Goroutines: runtime.NumGoroutine(),
		GoVersion:  runtime.Version(),
	}

	if err := h.pool.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("PostgreSQL health check failed")
		report.Postgres = "unavailable"
		report.Status = "degraded"
	}
	if n, err := h.rdb.LLen(ctx, config.WorkerKey.AttendanceRecomputeQueue).Result(); err != nil {
		h.log.Warn().Err(err).Msg("Redis health check failed")
		report.Redis = "unavailable"
		report.Status = "degraded"
	} else {
		report.RecomputeQueued = n
	}

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	response.Success(c, status, report)
}
