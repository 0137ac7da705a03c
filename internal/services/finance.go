package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wealthquest-backend/internal/data/cache"
	"github.com/yungbote/wealthquest-backend/internal/data/repos"
	types "github.com/yungbote/wealthquest-backend/internal/domain"
	financemod "github.com/yungbote/wealthquest-backend/internal/modules/finance"
	gamemod "github.com/yungbote/wealthquest-backend/internal/modules/gamification"
	"github.com/yungbote/wealthquest-backend/internal/observability"
	"github.com/yungbote/wealthquest-backend/internal/platform/apierr"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/fetch"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
	pkgerrors "github.com/yungbote/wealthquest-backend/internal/pkg/errors"
)

// OnboardingXP is granted once, when a user saves their first profile.
const OnboardingXP int64 = 50

type ProfileInput struct {
	Age      int     `json:"age"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Savings  float64 `json:"savings"`
	Debt     float64 `json:"debt"`
}

type GoalInput struct {
	GoalName      string    `json:"goal_name"`
	TargetAmount  float64   `json:"target_amount"`
	CurrentAmount float64   `json:"current_amount"`
	TargetDate    time.Time `json:"target_date"`
}

type PlanView struct {
	Plan     *types.FinancialPlan `json:"plan"`
	Computed bool                 `json:"computed"`
}

type FinanceUpdate struct {
	Profile *types.FinancialProfile `json:"profile,omitempty"`
	Goal    *types.Goal             `json:"goal,omitempty"`
	Plan    PlanView                `json:"plan"`
	State   types.GamificationState `json:"state"`
	// Onboarded is true for the save that paid the onboarding XP.
	Onboarded bool `json:"onboarded,omitempty"`
}

type FinanceService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (fetch.Result[*types.FinancialProfile], error)
	SaveProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*FinanceUpdate, error)
	ListGoals(ctx context.Context, userID uuid.UUID) (fetch.Result[[]*types.Goal], error)
	CreateGoal(ctx context.Context, userID uuid.UUID, in GoalInput) (*FinanceUpdate, error)
	AddFunds(ctx context.Context, userID, goalID uuid.UUID, amount float64) (*FinanceUpdate, error)
	GetPlan(ctx context.Context, userID uuid.UUID) (fetch.Result[*types.FinancialPlan], error)
	GeneratePlan(ctx context.Context, userID uuid.UUID) (PlanView, error)
	// ScoreFunc returns the score for the user's current finances as a
	// function of streak.
	ScoreFunc(ctx context.Context, userID uuid.UUID) (func(streak int) int, error)
	// RefreshPlans regenerates the plan of every user with a profile.
	RefreshPlans(ctx context.Context) (int, error)
}

type financeService struct {
	log      *logger.Logger
	profiles repos.ProfileRepo
	goals    repos.GoalRepo
	plans    repos.PlanRepo
	cache    cache.Store
	sessions SessionManager
	now      func() time.Time
}

func NewFinanceService(
	log *logger.Logger,
	profiles repos.ProfileRepo,
	goals repos.GoalRepo,
	plans repos.PlanRepo,
	store cache.Store,
	sessions SessionManager,
) FinanceService {
	return &financeService{
		log:      log.With("service", "FinanceService"),
		profiles: profiles,
		goals:    goals,
		plans:    plans,
		cache:    store,
		sessions: sessions,
		now:      time.Now,
	}
}

func storeUnavailable(op string, err error) error {
	return apierr.Unavailable("store_unavailable", fmt.Errorf("%s: %w", op, err))
}

// readThrough serves key from the cache, falling back to load and caching
// what it returns. found=false from load is not cached.
func readThrough[T any](ctx context.Context, fs *financeService, key string, load func() (T, bool, error)) (fetch.Result[T], error) {
	var v T
	hit, err := cache.GetJSON(ctx, fs.cache, key, &v)
	if err != nil {
		fs.log.Warn("Cache read failed", "key", key, "error", err)
	}
	if hit {
		return fetch.Cached(v, nil), nil
	}

	v, found, err := load()
	if err != nil {
		return fetch.Result[T]{}, err
	}
	if found {
		fs.refreshCache(ctx, key, v)
	}
	return fetch.Remote(v), nil
}

// refreshCache writes v to key; if that fails the key is dropped so the next
// read goes to the durable store instead of serving a stale value.
func (fs *financeService) refreshCache(ctx context.Context, key string, v interface{}) {
	if err := cache.PutJSON(ctx, fs.cache, key, v); err != nil {
		fs.log.Warn("Cache write failed", "key", key, "error", err)
		if dErr := fs.cache.Delete(ctx, key); dErr != nil {
			fs.log.Warn("Cache invalidate failed", "key", key, "error", dErr)
		}
	}
}

func (fs *financeService) GetProfile(ctx context.Context, userID uuid.UUID) (fetch.Result[*types.FinancialProfile], error) {
	return readThrough(ctx, fs, cache.ProfileKey(userID), func() (*types.FinancialProfile, bool, error) {
		p, err := fs.profiles.GetByUserID(dbctx.New(ctx), userID)
		if err != nil {
			return nil, false, storeUnavailable("load profile", err)
		}
		return p, p != nil, nil
	})
}

func (fs *financeService) ListGoals(ctx context.Context, userID uuid.UUID) (fetch.Result[[]*types.Goal], error) {
	return readThrough(ctx, fs, cache.GoalsKey(userID), func() ([]*types.Goal, bool, error) {
		goals, err := fs.goals.ListByUserID(dbctx.New(ctx), userID)
		if err != nil {
			return nil, false, storeUnavailable("list goals", err)
		}
		return goals, true, nil
	})
}

func (fs *financeService) GetPlan(ctx context.Context, userID uuid.UUID) (fetch.Result[*types.FinancialPlan], error) {
	return readThrough(ctx, fs, cache.PlanKey(userID), func() (*types.FinancialPlan, bool, error) {
		p, err := fs.plans.GetByUserID(dbctx.New(ctx), userID)
		if err != nil {
			return nil, false, storeUnavailable("load plan", err)
		}
		return p, p != nil, nil
	})
}

func validMoney(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (in ProfileInput) validate() error {
	switch {
	case in.Age < 0 || in.Age > 150:
		return fmt.Errorf("age must be between 0 and 150")
	case !validMoney(in.Income):
		return fmt.Errorf("income must be a non-negative number")
	case !validMoney(in.Expenses):
		return fmt.Errorf("expenses must be a non-negative number")
	case !validMoney(in.Savings):
		return fmt.Errorf("savings must be a non-negative number")
	case !validMoney(in.Debt):
		return fmt.Errorf("debt must be a non-negative number")
	}
	return nil
}

func (fs *financeService) SaveProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*FinanceUpdate, error) {
	if err := in.validate(); err != nil {
		return nil, apierr.BadRequest("invalid_argument", err)
	}
	row := &types.FinancialProfile{
		UserID:   userID,
		Age:      in.Age,
		Income:   in.Income,
		Expenses: in.Expenses,
		Savings:  in.Savings,
		Debt:     in.Debt,
	}
	created, err := fs.profiles.Upsert(dbctx.New(ctx), row)
	if err != nil {
		return nil, storeUnavailable("save profile", err)
	}
	fs.refreshCache(ctx, cache.ProfileKey(userID), row)

	sess, err := fs.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Granted on every save until it sticks; the reward key pays it once even
	// if the state write after the first insert failed.
	var onboarded bool
	err = withSession(ctx, fs.sessions, userID, sess, func(s *GamificationSession) error {
		var err error
		_, _, onboarded, err = s.GrantReward(ctx, gamemod.OnboardingReward(OnboardingXP))
		return err
	})
	if err != nil {
		return nil, err
	}
	if onboarded {
		observability.Current().AddXP("onboarding", OnboardingXP)
		fs.log.Info("Profile onboarded", "user_id", userID, "new_profile", created)
	}

	upd, err := fs.afterChange(ctx, userID, sess, nil)
	if err != nil {
		return nil, err
	}
	upd.Profile = row
	upd.Onboarded = onboarded
	return upd, nil
}

func (in GoalInput) validate() error {
	switch {
	case strings.TrimSpace(in.GoalName) == "":
		return fmt.Errorf("goal_name is required")
	case !validMoney(in.TargetAmount) || in.TargetAmount <= 0:
		return fmt.Errorf("target_amount must be greater than zero")
	case !validMoney(in.CurrentAmount):
		return fmt.Errorf("current_amount must be a non-negative number")
	case in.TargetDate.IsZero():
		return fmt.Errorf("target_date is required")
	}
	return nil
}

func (fs *financeService) CreateGoal(ctx context.Context, userID uuid.UUID, in GoalInput) (*FinanceUpdate, error) {
	if err := in.validate(); err != nil {
		return nil, apierr.BadRequest("invalid_argument", err)
	}
	dbc := dbctx.New(ctx)
	before, err := fs.goals.CountByUserID(dbc, userID)
	if err != nil {
		return nil, storeUnavailable("count goals", err)
	}
	g := &types.Goal{
		UserID:        userID,
		GoalName:      strings.TrimSpace(in.GoalName),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		TargetDate:    in.TargetDate.UTC(),
	}
	if err := fs.goals.Create(dbc, g); err != nil {
		return nil, storeUnavailable("create goal", err)
	}

	sess, err := fs.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	var badge func(types.GamificationState) types.GamificationState
	if before == 0 {
		name, desc := gamemod.StarterPlanner()
		badge = func(st types.GamificationState) types.GamificationState {
			st, _ = gamemod.UnlockBadge(st, name, desc, fs.now())
			return st
		}
	}

	upd, err := fs.afterChange(ctx, userID, sess, badge)
	if err != nil {
		return nil, err
	}
	upd.Goal = g
	return upd, nil
}

func (fs *financeService) AddFunds(ctx context.Context, userID, goalID uuid.UUID, amount float64) (*FinanceUpdate, error) {
	if !validMoney(amount) || amount <= 0 {
		return nil, apierr.BadRequest("invalid_argument", fmt.Errorf("amount must be greater than zero"))
	}
	g, err := fs.goals.AddFunds(dbctx.New(ctx), userID, goalID, amount)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return nil, apierr.NotFound("goal_not_found", err)
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return nil, apierr.BadRequest("invalid_argument", err)
	case err != nil:
		return nil, storeUnavailable("add funds", err)
	}

	sess, err := fs.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	upd, err := fs.afterChange(ctx, userID, sess, nil)
	if err != nil {
		return nil, err
	}
	upd.Goal = g
	return upd, nil
}

// afterChange refreshes the goal cache, regenerates the plan and recomputes
// the score. extra runs in the same state mutation as the score.
func (fs *financeService) afterChange(ctx context.Context, userID uuid.UUID, sess *GamificationSession, extra func(types.GamificationState) types.GamificationState) (*FinanceUpdate, error) {
	goals, err := fs.goals.ListByUserID(dbctx.New(ctx), userID)
	if err != nil {
		fs.log.Warn("Reloading goals failed", "user_id", userID, "error", err)
		_ = fs.cache.Delete(ctx, cache.GoalsKey(userID))
	} else {
		fs.refreshCache(ctx, cache.GoalsKey(userID), goals)
	}

	plan, err := fs.GeneratePlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	score, err := fs.ScoreFunc(ctx, userID)
	if err != nil {
		return nil, err
	}
	var st types.GamificationState
	err = withSession(ctx, fs.sessions, userID, sess, func(s *GamificationSession) error {
		var err error
		st, err = s.Apply(ctx, func(st types.GamificationState) (types.GamificationState, error) {
			if extra != nil {
				st = extra(st)
			}
			st.Score = score(st.Streak)
			return st, nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &FinanceUpdate{Plan: plan, State: st}, nil
}

func (fs *financeService) GeneratePlan(ctx context.Context, userID uuid.UUID) (PlanView, error) {
	profile, err := fs.GetProfile(ctx, userID)
	if err != nil {
		return PlanView{}, err
	}
	goals, err := fs.ListGoals(ctx, userID)
	if err != nil {
		return PlanView{}, err
	}

	plan, ok := financemod.ComputePlan(profile.Value, goals.Value, fs.now())
	if !ok {
		prior, err := fs.GetPlan(ctx, userID)
		if err != nil {
			return PlanView{}, err
		}
		return PlanView{Plan: prior.Value, Computed: false}, nil
	}

	plan.UserID = userID
	plan.UpdatedAt = fs.now().UTC()
	if err := fs.plans.Upsert(dbctx.New(ctx), &plan); err != nil {
		return PlanView{}, storeUnavailable("save plan", err)
	}
	fs.refreshCache(ctx, cache.PlanKey(userID), &plan)
	return PlanView{Plan: &plan, Computed: true}, nil
}

func (fs *financeService) ScoreFunc(ctx context.Context, userID uuid.UUID) (func(streak int) int, error) {
	profile, err := fs.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	goals, err := fs.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, gs := profile.Value, goals.Value
	return func(streak int) int {
		return financemod.ComputeScore(p, gs, streak)
	}, nil
}

func (fs *financeService) RefreshPlans(ctx context.Context) (int, error) {
	const page = 200
	refreshed := 0
	after := uuid.Nil
	for {
		ids, err := fs.profiles.ListUserIDs(dbctx.New(ctx), after, page)
		if err != nil {
			return refreshed, fmt.Errorf("list profile users: %w", err)
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				return refreshed, ctx.Err()
			}
			if _, err := fs.GeneratePlan(ctx, id); err != nil {
				fs.log.Warn("Plan refresh failed", "user_id", id, "error", err)
				continue
			}
			refreshed++
		}
		if len(ids) < page {
			return refreshed, nil
		}
		after = ids[len(ids)-1]
	}
}
