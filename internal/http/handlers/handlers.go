package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/wealthquest-backend/internal/http/response"
	"github.com/yungbote/wealthquest-backend/internal/platform/ctxutil"
)

// currentUser returns the authenticated user id, writing a 401 when absent.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	uid := ctxutil.UserID(c.Request.Context())
	if uid == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
		return uuid.Nil, false
	}
	return uid, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}
