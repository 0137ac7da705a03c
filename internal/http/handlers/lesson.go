package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/wealthquest-backend/internal/http/response"
	"github.com/yungbote/wealthquest-backend/internal/services"
)

type LessonHandler struct {
	education services.EducationService
}

func NewLessonHandler(education services.EducationService) *LessonHandler {
	return &LessonHandler{education: education}
}

func (lh *LessonHandler) List(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	r, err := lh.education.ListLessons(c.Request.Context(), uid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondResult(c, r)
}

func (lh *LessonHandler) Quiz(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	r, err := lh.education.GetQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondResult(c, r)
}

func (lh *LessonHandler) Complete(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := lh.education.CompleteLesson(c.Request.Context(), uid, c.Param("id"), req.Answers)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}
