package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/wealthquest-backend/internal/http/response"
	"github.com/yungbote/wealthquest-backend/internal/services"
)

type MentorHandler struct {
	mentor services.MentorService
}

func NewMentorHandler(mentor services.MentorService) *MentorHandler {
	return &MentorHandler{mentor: mentor}
}

func (mh *MentorHandler) GenerateAdvice(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	adv, err := mh.mentor.GenerateAdvice(c.Request.Context(), uid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"advice": adv})
}

func (mh *MentorHandler) LatestAdvice(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	adv, err := mh.mentor.LatestAdvice(c.Request.Context(), uid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"advice": adv})
}

func (mh *MentorHandler) Chat(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if !bindJSON(c, &req) {
		return
	}
	reply, err := mh.mentor.Chat(c.Request.Context(), uid, req.Message)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reply": reply})
}

func (mh *MentorHandler) ChatHistory(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	msgs, err := mh.mentor.ChatHistory(c.Request.Context(), uid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}

func (mh *MentorHandler) ClearChat(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	n, err := mh.mentor.ClearChat(c.Request.Context(), uid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": n})
}
