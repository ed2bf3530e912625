package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/cohortsched-backend/internal/config"
	"github.com/stemsi/cohortsched-backend/internal/handler"
	"github.com/stemsi/cohortsched-backend/internal/middleware"
	"github.com/stemsi/cohortsched-backend/internal/model"
	"github.com/stemsi/cohortsched-backend/internal/response"
	"github.com/stemsi/cohortsched-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Schedule   *handler.ScheduleHandler
	Attendance *handler.AttendanceHandler
	Stream     *handler.StreamHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares. Background
// housekeeping started here stops when ctx is done.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware(log))
	router.Use(middleware.Brotli())

	if handlers.System != nil {
		router.GET("/health", handlers.System.Health)
	}

	// Schedule mutations fan out notifications; keep admins from hammering them.
	mutationLimiter := middleware.NewRateLimiter(cfg.MutationRateLimit, time.Minute)
	go mutationLimiter.StartCleanup(ctx, time.Minute, 3*time.Minute)

	// ─── 1. WebSocket Group (Admin JWT via ?token=) ────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminJWT(authService))
	{
		ws.GET("/cohorts/:type/:number/stream",
			middleware.RequirePermission(model.PermissionScheduleRead), handlers.Stream.ScheduleStream)
	}

	// ─── 2. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), middleware.NoStore())
	{
		cohorts := adminAPI.Group("/cohorts/:type/:number")
		{
			cohorts.GET("/sessions",
				middleware.RequirePermission(model.PermissionScheduleRead), handlers.Schedule.ListSessions)
			cohorts.DELETE("/weeks/:week",
				middleware.RequirePermission(model.PermissionScheduleWrite), mutationLimiter.Middleware(), handlers.Schedule.DeleteWeek)
			cohorts.POST("/sessions/:id/reschedule",
				middleware.RequirePermission(model.PermissionScheduleWrite), mutationLimiter.Middleware(), handlers.Schedule.RescheduleSession)
		}

		mentors := adminAPI.Group("/mentors/:id/attendance")
		{
			mentors.GET("",
				middleware.RequirePermission(model.PermissionAttendanceRead), handlers.Attendance.Get)
			mentors.POST("/recompute",
				middleware.RequirePermission(model.PermissionAttendanceWrite), handlers.Attendance.Recompute)
		}

		adminAPI.POST("/attendance/recompute-all",
			middleware.RequirePermission(model.PermissionAttendanceWrite), mutationLimiter.Middleware(), handlers.Attendance.RecomputeAll)
	}

	return router
}
