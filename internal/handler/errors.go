package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/cohortsched-backend/internal/response"
	"github.com/stemsi/cohortsched-backend/internal/service"
)

// failFromError maps a service error onto the response envelope. notFound is the
// code used when the operation's target is missing.
func failFromError(c *gin.Context, err error, notFound response.ErrCode) {
	_ = c.Error(err)

	var opErr *service.OpError
	detail := ""
	if errors.As(err, &opErr) {
		detail = opErr.Message
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrValidation, detail)
	case errors.Is(err, service.ErrNotFound):
		response.FailWithDetail(c, http.StatusNotFound, notFound, detail)
	case errors.Is(err, service.ErrPartitionBusy):
		response.Fail(c, http.StatusConflict, response.ErrPartitionBusy)
	case errors.Is(err, service.ErrStorage):
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Storage failure")
		response.FailWithDetail(c, http.StatusServiceUnavailable, response.ErrStorage, detail)
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
