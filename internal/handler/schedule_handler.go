package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/model"
	"github.com/stemsi/cohortsched-backend/internal/response"
	"github.com/stemsi/cohortsched-backend/internal/service"
	"github.com/stemsi/cohortsched-backend/internal/validator"
)

// ScheduleHandler exposes cohort schedule reads and mutations.
type ScheduleHandler struct {
	scheduleService   *service.ScheduleService
	weekService       *service.WeekService
	rescheduleService *service.RescheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(
	scheduleService *service.ScheduleService,
	weekService *service.WeekService,
	rescheduleService *service.RescheduleService,
) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService:   scheduleService,
		weekService:       weekService,
		rescheduleService: rescheduleService,
	}
}

// ListSessions godoc
// GET /api/v1/admin/cohorts/:type/:number/sessions
func (h *ScheduleHandler) ListSessions(c *gin.Context) {
	var uri model.CohortURI
	key, ok := bindCohort(c, &uri, &uri)
	if !ok {
		return
	}

	sessions, err := h.scheduleService.ListSessions(c.Request.Context(), key.Partition())
	if err != nil {
		failFromError(c, err, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"cohort":   key.Name(),
		"sessions": sessions,
	})
}

// DeleteWeek godoc
// DELETE /api/v1/admin/cohorts/:type/:number/weeks/:week
// Deletes a week and shifts every later session one week earlier.
func (h *ScheduleHandler) DeleteWeek(c *gin.Context) {
	var uri model.WeekURI
	key, ok := bindCohort(c, &uri, &uri.CohortURI)
	if !ok {
		return
	}

	result, err := h.weekService.DeleteWeek(c.Request.Context(), key.Partition(), uri.Week)
	if err != nil {
		failFromError(c, err, response.ErrWeekNotFound)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// RescheduleSession godoc
// POST /api/v1/admin/cohorts/:type/:number/sessions/:id/reschedule
// Moves one session and notifies coordinators and students.
func (h *ScheduleHandler) RescheduleSession(c *gin.Context) {
	var uri model.SessionURI
	key, ok := bindCohort(c, &uri, &uri.CohortURI)
	if !ok {
		return
	}

	var req model.RescheduleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.rescheduleService.Reschedule(c.Request.Context(), service.RescheduleInput{
		Partition:  key.Partition(),
		SessionID:  uri.ID,
		NewDate:    req.NewDate,
		NewTime:    req.NewTime,
		Action:     req.ActionType,
		MentorName: req.MentorName,
	})
	if err != nil {
		failFromError(c, err, response.ErrSessionMissing)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// bindCohort validates the path parameters in dst and resolves the cohort they name.
func bindCohort(c *gin.Context, dst any, uri *model.CohortURI) (cohort.Key, bool) {
	if fields := validator.BindURI(c, dst); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return cohort.Key{}, false
	}
	key, err := cohort.NewKey(uri.Type, uri.Number)
	if err != nil {
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrInvalidCohort, err.Error())
		return cohort.Key{}, false
	}
	return key, true
}
