package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/http/response"
	"github.com/yungbote/wealthquest-backend/internal/services"
)

type FinanceHandler struct {
	finance services.FinanceService
}

func NewFinanceHandler(finance services.FinanceService) *FinanceHandler {
	return &FinanceHandler{finance: finance}
}

func (fh *FinanceHandler) GetProfile(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	r, err := fh.finance.GetProfile(c.Request.Context(), uid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondResult(c, r)
}

func (fh *FinanceHandler) SaveProfile(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.ProfileInput
	if !bindJSON(c, &req) {
		return
	}
	upd, err := fh.finance.SaveProfile(c.Request.Context(), uid, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, upd)
}

func (fh *FinanceHandler) ListGoals(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	r, err := fh.finance.ListGoals(c.Request.Context(), uid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondResult(c, r)
}

type goalRequest struct {
	GoalName      string  `json:"goal_name"`
	TargetAmount  float64 `json:"target_amount"`
	CurrentAmount float64 `json:"current_amount"`
	// TargetDate accepts RFC 3339 or a bare YYYY-MM-DD date.
	TargetDate string `json:"target_date"`
}

func (g goalRequest) input() (services.GoalInput, error) {
	in := services.GoalInput{
		GoalName:      g.GoalName,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
	}
	raw := strings.TrimSpace(g.TargetDate)
	if raw == "" {
		return in, errors.New("target_date is required")
	}
	for _, layout := range []string{time.RFC3339, types.DateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			in.TargetDate = t
			return in, nil
		}
	}
	return in, fmt.Errorf("target_date %q is not a date", raw)
}

func (fh *FinanceHandler) CreateGoal(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req goalRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	upd, err := fh.finance.CreateGoal(c.Request.Context(), uid, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, upd)
}

func (fh *FinanceHandler) AddFunds(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	goalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Amount float64 `json:"amount"`
	}
	if !bindJSON(c, &req) {
		return
	}
	upd, err := fh.finance.AddFunds(c.Request.Context(), uid, goalID, req.Amount)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, upd)
}

func (fh *FinanceHandler) GetPlan(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	r, err := fh.finance.GetPlan(c.Request.Context(), uid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondResult(c, r)
}

func (fh *FinanceHandler) GeneratePlan(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	pv, err := fh.finance.GeneratePlan(c.Request.Context(), uid)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, pv)
}
