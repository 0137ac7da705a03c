package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/wealthquest-backend/internal/data/repos"
	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/apierr"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

// TextGenerator is the AI provider behind the mentor.
type TextGenerator interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

var errMentorDisabled = errors.New("mentor provider disabled")

type disabledGenerator struct{}

func (disabledGenerator) GenerateText(context.Context, string, string) (string, error) {
	return "", errMentorDisabled
}

// DisabledGenerator always fails; used when no provider is configured.
func DisabledGenerator() TextGenerator { return disabledGenerator{} }

// MentorContext is everything the mentor sees about the user.
type MentorContext struct {
	Profile *types.FinancialProfile `json:"profile"`
	Goals   []*types.Goal           `json:"goals"`
	Plan    *types.FinancialPlan    `json:"plan"`
	Score   int                     `json:"score"`
	Level   int                     `json:"level"`
	XP      int64                   `json:"xp"`
	Badges  []string                `json:"badges"`
}

type MentorService interface {
	GenerateAdvice(ctx context.Context, userID uuid.UUID) (*types.Advice, error)
	LatestAdvice(ctx context.Context, userID uuid.UUID) (*types.Advice, error)
	Chat(ctx context.Context, userID uuid.UUID, message string) (string, error)
	ChatHistory(ctx context.Context, userID uuid.UUID) ([]*types.ChatMessage, error)
	ClearChat(ctx context.Context, userID uuid.UUID) (int64, error)
}

// chatHistoryLimit caps how many turns ChatHistory returns.
const chatHistoryLimit = 200

type mentorService struct {
	log      *logger.Logger
	gen      TextGenerator
	provider string
	advice   repos.AdviceRepo
	chats    repos.ChatMessageRepo
	finance  FinanceService
	sessions SessionManager
	now      func() time.Time
}

func NewMentorService(log *logger.Logger, gen TextGenerator, provider string, advice repos.AdviceRepo, chats repos.ChatMessageRepo, finance FinanceService, sessions SessionManager) MentorService {
	if gen == nil {
		gen = DisabledGenerator()
		provider = "disabled"
	}
	return &mentorService{
		log:      log.With("service", "MentorService", "provider", provider),
		gen:      gen,
		provider: provider,
		advice:   advice,
		chats:    chats,
		finance:  finance,
		sessions: sessions,
		now:      time.Now,
	}
}

const adviceSystemPrompt = `You are a professional financial advisor acting as a lifestyle finance mentor for young adults.
Keep the tone friendly, encouraging and clear. Never recommend specific stocks.`

const adviceInstructions = `Provide personalized advice in this structure:
1. Budget Improvement: specific suggestions based on income and expenses.
2. Savings Optimization: advice on savings ratio and emergency fund.
3. Investment Recommendations: general strategy based on risk and age.
4. Goal Achievement Strategy: how to reach the listed goals.
5. Motivation: one short motivational statement.`

const chatSystemPrompt = `You are a friendly and expert financial mentor. Give personalized, actionable and encouraging advice
based on the user's data. If they ask whether they can afford something, look at their expenses and savings.
If they ask how to improve their score, suggest hitting their savings ratio or completing lessons.
Keep responses concise but thorough and use markdown.`

func (ms *mentorService) buildContext(ctx context.Context, userID uuid.UUID) (MentorContext, error) {
	var mc MentorContext
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := ms.finance.GetProfile(gctx, userID)
		mc.Profile = r.Value
		return err
	})
	g.Go(func() error {
		r, err := ms.finance.ListGoals(gctx, userID)
		mc.Goals = r.Value
		return err
	})
	g.Go(func() error {
		r, err := ms.finance.GetPlan(gctx, userID)
		mc.Plan = r.Value
		return err
	})
	g.Go(func() error {
		sess, err := ms.sessions.Get(gctx, userID)
		if err != nil {
			return err
		}
		st := sess.Snapshot()
		mc.Score, mc.Level, mc.XP = st.Score, st.Level, st.XP
		for _, b := range st.Badges {
			mc.Badges = append(mc.Badges, b.Name)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return MentorContext{}, err
	}
	return mc, nil
}

func describe(mc MentorContext) string {
	var b strings.Builder
	b.WriteString("User details:\n")
	if p := mc.Profile; p != nil {
		fmt.Fprintf(&b, "- Age: %d\n- Income: %.2f\n- Expenses: %.2f\n- Savings: %.2f\n- Debt: %.2f\n",
			p.Age, p.Income, p.Expenses, p.Savings, p.Debt)
	} else {
		b.WriteString("- No financial profile yet.\n")
	}

	b.WriteString("\nGoals:\n")
	if len(mc.Goals) == 0 {
		b.WriteString("- No specific goals set.\n")
	}
	for _, g := range mc.Goals {
		fmt.Fprintf(&b, "- %s: target %.2f by %s, current %.2f\n",
			g.GoalName, g.TargetAmount, g.TargetDate.Format("2006-01-02"), g.CurrentAmount)
	}

	fmt.Fprintf(&b, "\nFinancial score: %d\nLevel: %d\nTotal XP: %d\n", mc.Score, mc.Level, mc.XP)
	if len(mc.Badges) > 0 {
		fmt.Fprintf(&b, "Badges: %s\n", strings.Join(mc.Badges, ", "))
	}

	if p := mc.Plan; p != nil {
		fmt.Fprintf(&b, "\nFinancial plan:\n- Emergency fund: %d\n- Monthly investment required: %d\n- Budget needs: %d\n- Budget wants: %d\n- Budget savings: %d\n- Savings ratio: %.0f%%\n",
			p.EmergencyFund, p.MonthlyInvestmentRequired, p.BudgetNeeds, p.BudgetWants, p.BudgetSavings, p.SavingsRatio*100)
	}
	return b.String()
}

func mentorUnavailable(err error) error {
	return apierr.Unavailable("mentor_unavailable", fmt.Errorf("AI mentor is temporarily unavailable: %w", err))
}

func (ms *mentorService) GenerateAdvice(ctx context.Context, userID uuid.UUID) (*types.Advice, error) {
	mc, err := ms.buildContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	text, err := ms.gen.GenerateText(ctx, adviceSystemPrompt, describe(mc)+"\n"+adviceInstructions)
	if err != nil {
		ms.log.Warn("Advice generation failed", "user_id", userID, "error", err)
		return nil, mentorUnavailable(err)
	}

	raw, err := json.Marshal(mc)
	if err != nil {
		ms.log.Warn("Encoding advice context failed", "user_id", userID, "error", err)
		raw = []byte("{}")
	}
	row := &types.Advice{
		UserID:   userID,
		Content:  strings.TrimSpace(text),
		Context:  datatypes.JSON(raw),
		Provider: ms.provider,
	}
	// The advice is still returned when it cannot be stored.
	if err := ms.advice.Create(dbctx.New(ctx), row); err != nil {
		ms.log.Warn("Storing advice failed", "user_id", userID, "error", err)
	}
	return row, nil
}

func (ms *mentorService) LatestAdvice(ctx context.Context, userID uuid.UUID) (*types.Advice, error) {
	rows, err := ms.advice.Latest(dbctx.New(ctx), userID, 1)
	if err != nil {
		return nil, storeUnavailable("load advice", err)
	}
	if len(rows) == 0 {
		return nil, apierr.NotFound("advice_not_found", fmt.Errorf("no advice generated yet"))
	}
	return rows[0], nil
}

// Chat answers one question. Both turns are appended to the user's history;
// a history write failure is logged and does not fail the reply.
func (ms *mentorService) Chat(ctx context.Context, userID uuid.UUID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apierr.BadRequest("invalid_argument", fmt.Errorf("message is required"))
	}
	mc, err := ms.buildContext(ctx, userID)
	if err != nil {
		return "", err
	}
	asked := ms.now().UTC()
	ms.appendTurn(ctx, userID, types.ChatRoleUser, message, asked)

	reply, err := ms.gen.GenerateText(ctx, chatSystemPrompt, describe(mc)+"\nUser question:\n"+message)
	if err != nil {
		ms.log.Warn("Mentor chat failed", "user_id", userID, "error", err)
		return "", mentorUnavailable(err)
	}
	reply = strings.TrimSpace(reply)

	// Keep the answer strictly after the question even on a coarse clock.
	answered := ms.now().UTC()
	if !answered.After(asked) {
		answered = asked.Add(time.Microsecond)
	}
	ms.appendTurn(ctx, userID, types.ChatRoleAssistant, reply, answered)
	return reply, nil
}

func (ms *mentorService) appendTurn(ctx context.Context, userID uuid.UUID, role, text string, at time.Time) {
	row := &types.ChatMessage{UserID: userID, Role: role, Message: text, CreatedAt: at}
	if err := ms.chats.Create(dbctx.New(ctx), row); err != nil {
		ms.log.Warn("Storing chat message failed", "user_id", userID, "role", role, "error", err)
	}
}

func (ms *mentorService) ChatHistory(ctx context.Context, userID uuid.UUID) ([]*types.ChatMessage, error) {
	rows, err := ms.chats.ListByUserID(dbctx.New(ctx), userID, chatHistoryLimit)
	if err != nil {
		return nil, storeUnavailable("load chat history", err)
	}
	return rows, nil
}

func (ms *mentorService) ClearChat(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := ms.chats.DeleteByUserID(dbctx.New(ctx), userID)
	if err != nil {
		return 0, storeUnavailable("clear chat history", err)
	}
	ms.log.Info("Chat history cleared", "user_id", userID, "messages", n)
	return n, nil
}
