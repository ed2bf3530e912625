package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/cohortsched-backend/internal/model"
	"github.com/stemsi/cohortsched-backend/internal/response"
	"github.com/stemsi/cohortsched-backend/internal/service"
	"github.com/stemsi/cohortsched-backend/internal/validator"
)

// AttendanceHandler exposes the mentor attendance ledger.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// Recompute godoc
// POST /api/v1/admin/mentors/:id/attendance/recompute
func (h *AttendanceHandler) Recompute(c *gin.Context) {
	var uri model.MentorURI
	if fields := validator.BindURI(c, &uri); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidID, fields)
		return
	}

	result, err := h.attendanceService.Recompute(c.Request.Context(), uri.ID)
	if err != nil {
		failFromError(c, err, response.ErrMentorNotFound)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Get godoc
// GET /api/v1/admin/mentors/:id/attendance
func (h *AttendanceHandler) Get(c *gin.Context) {
	var uri model.MentorURI
	if fields := validator.BindURI(c, &uri); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidID, fields)
		return
	}

	entry, err := h.attendanceService.Get(c.Request.Context(), uri.ID)
	if err != nil {
		failFromError(c, err, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attendance": entry})
}

// RecomputeAll godoc
// POST /api/v1/admin/attendance/recompute-all
// Queues every mentor for background recomputation.
func (h *AttendanceHandler) RecomputeAll(c *gin.Context) {
	queued, err := h.attendanceService.EnqueueAll(c.Request.Context())
	if err != nil {
		failFromError(c, err, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"queued": queued})
}
