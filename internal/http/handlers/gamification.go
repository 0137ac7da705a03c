package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/wealthquest-backend/internal/http/response"
	"github.com/yungbote/wealthquest-backend/internal/services"
)

type GamificationHandler struct {
	gamify services.GamificationService
}

func NewGamificationHandler(gamify services.GamificationService) *GamificationHandler {
	return &GamificationHandler{gamify: gamify}
}

func (gh *GamificationHandler) Get(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	r, err := gh.gamify.Snapshot(c.Request.Context(), uid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondResult(c, r)
}

func (gh *GamificationHandler) CheckStreak(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	out, err := gh.gamify.CheckDailyStreak(c.Request.Context(), uid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}
