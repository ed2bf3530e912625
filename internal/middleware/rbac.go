package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/cohortsched-backend/internal/model"
	"github.com/stemsi/cohortsched-backend/internal/response"
)

// RequirePermission checks that the admin JWT contains the required permission code.
func RequirePermission(permission model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if claims.HasPermission(string(permission)) {
			c.Next()
			return
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
	}
}
