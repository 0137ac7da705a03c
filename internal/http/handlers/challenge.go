package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/http/response"
	"github.com/yungbote/wealthquest-backend/internal/services"
)

type ChallengeHandler struct {
	challenges services.ChallengeService
}

func NewChallengeHandler(challenges services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

// List serves ?type=daily|weekly, daily when omitted.
func (ch *ChallengeHandler) List(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	t := types.ChallengeType(strings.ToLower(strings.TrimSpace(c.DefaultQuery("type", string(types.ChallengeDaily)))))
	r, err := ch.challenges.List(c.Request.Context(), uid, t)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondResult(c, r)
}

func (ch *ChallengeHandler) UpdateProgress(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if !bindJSON(c, &req) {
		return
	}
	upd, err := ch.challenges.UpdateProgress(c.Request.Context(), uid, c.Param("id"), req.Delta)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, upd)
}
