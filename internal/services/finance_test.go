package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	financemod "github.com/yungbote/wealthquest-backend/internal/modules/finance"
	gamemod "github.com/yungbote/wealthquest-backend/internal/modules/gamification"
	"github.com/yungbote/wealthquest-backend/internal/platform/apierr"
	"github.com/yungbote/wealthquest-backend/internal/platform/fetch"
)

func sampleProfile() ProfileInput {
	return ProfileInput{Age: 27, Income: 5000, Expenses: 3000, Savings: 1000, Debt: 200}
}

func TestSaveProfileOnboardsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := uuid.New()

	upd, err := f.finance.SaveProfile(ctx, uid, sampleProfile())
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if !upd.Onboarded || upd.State.XP != OnboardingXP {
		t.Fatalf("first save onboarded=%v xp=%d", upd.Onboarded, upd.State.XP)
	}
	if !upd.Plan.Computed || upd.Plan.Plan == nil {
		t.Fatalf("plan not computed: %+v", upd.Plan)
	}
	if upd.Plan.Plan.BudgetNeeds != 2500 || upd.Plan.Plan.EmergencyFund != 18000 {
		t.Fatalf("plan needs=%d emergency=%d", upd.Plan.Plan.BudgetNeeds, upd.Plan.Plan.EmergencyFund)
	}

	in := sampleProfile()
	in.Savings = 2000
	upd, err = f.finance.SaveProfile(ctx, uid, in)
	if err != nil {
		t.Fatalf("SaveProfile again: %v", err)
	}
	if upd.Onboarded || upd.State.XP != OnboardingXP {
		t.Fatalf("second save onboarded=%v xp=%d", upd.Onboarded, upd.State.XP)
	}
	want := financemod.ComputeScore(&types.FinancialProfile{Income: 5000, Savings: 2000}, nil, 0)
	if upd.State.Score != want {
		t.Fatalf("score=%d want %d", upd.State.Score, want)
	}
}

func TestSaveProfileOnboardingPaidAfterFailedStateWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := uuid.New()
	f.sessionsSnapshot(t, uid)

	f.cache.failPut.Store(true)
	_, err := f.finance.SaveProfile(ctx, uid, sampleProfile())
	if ae, ok := apierr.As(err); !ok || ae.Code != "state_unavailable" {
		t.Fatalf("save with cache down err=%v want state_unavailable", err)
	}
	if _, ok := f.profiles.rows[uid]; !ok {
		t.Fatalf("profile should be stored before the state write")
	}
	f.cache.failPut.Store(false)

	upd, err := f.finance.SaveProfile(ctx, uid, sampleProfile())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !upd.Onboarded || upd.State.XP != OnboardingXP {
		t.Fatalf("retry onboarded=%v xp=%d", upd.Onboarded, upd.State.XP)
	}
	upd, err = f.finance.SaveProfile(ctx, uid, sampleProfile())
	if err != nil || upd.Onboarded || upd.State.XP != OnboardingXP {
		t.Fatalf("third save onboarded=%v xp=%d err=%v", upd.Onboarded, upd.State.XP, err)
	}
}

func TestSaveProfileRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		in   ProfileInput
	}{
		{name: "negative income", in: ProfileInput{Income: -1}},
		{name: "negative expenses", in: ProfileInput{Income: 100, Expenses: -5}},
		{name: "absurd age", in: ProfileInput{Age: 200, Income: 100}},
	}
	f := newFixture(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.finance.SaveProfile(context.Background(), uuid.New(), tc.in)
			ae, ok := apierr.As(err)
			if !ok || ae.Status != 400 {
				t.Fatalf("err=%v want 400", err)
			}
		})
	}
}

func TestCreateGoalUnlocksStarterPlannerOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := uuid.New()
	if _, err := f.finance.SaveProfile(ctx, uid, sampleProfile()); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	goal := GoalInput{GoalName: "Laptop", TargetAmount: 1200, TargetDate: time.Now().AddDate(1, 0, 0)}
	upd, err := f.finance.CreateGoal(ctx, uid, goal)
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if !upd.State.HasBadge(gamemod.BadgeStarterPlanner) {
		t.Fatalf("Starter Planner missing after first goal")
	}
	if upd.Plan.Plan == nil || upd.Plan.Plan.MonthlyInvestmentRequired <= 0 {
		t.Fatalf("plan ignores new goal: %+v", upd.Plan.Plan)
	}

	goal.GoalName = "Trip"
	upd, err = f.finance.CreateGoal(ctx, uid, goal)
	if err != nil {
		t.Fatalf("CreateGoal second: %v", err)
	}
	count := 0
	for _, b := range upd.State.Badges {
		if b.Name == gamemod.BadgeStarterPlanner {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("Starter Planner count=%d want 1", count)
	}

	goals, err := f.finance.ListGoals(ctx, uid)
	if err != nil {
		t.Fatalf("ListGoals: %v", err)
	}
	if len(goals.Value) != 2 {
		t.Fatalf("goals=%d want 2", len(goals.Value))
	}
}

func TestCreateGoalValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		in   GoalInput
	}{
		{name: "blank name", in: GoalInput{GoalName: "  ", TargetAmount: 10, TargetDate: time.Now()}},
		{name: "zero target", in: GoalInput{GoalName: "x", TargetDate: time.Now()}},
		{name: "no date", in: GoalInput{GoalName: "x", TargetAmount: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.finance.CreateGoal(context.Background(), uuid.New(), tc.in)
			if ae, ok := apierr.As(err); !ok || ae.Code != "invalid_argument" {
				t.Fatalf("err=%v want invalid_argument", err)
			}
		})
	}
}

func TestAddFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := uuid.New()
	upd, err := f.finance.CreateGoal(ctx, uid, GoalInput{GoalName: "Car", TargetAmount: 100, TargetDate: time.Now().AddDate(0, 6, 0)})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	id := upd.Goal.ID

	upd, err = f.finance.AddFunds(ctx, uid, id, 150)
	if err != nil {
		t.Fatalf("AddFunds: %v", err)
	}
	if upd.Goal.CurrentAmount != 150 {
		t.Fatalf("current=%v want 150", upd.Goal.CurrentAmount)
	}

	if _, err := f.finance.AddFunds(ctx, uid, id, 0); err == nil {
		t.Fatalf("AddFunds(0) succeeded")
	}
	_, err = f.finance.AddFunds(ctx, uid, uuid.New(), 10)
	if ae, ok := apierr.As(err); !ok || ae.Code != "goal_not_found" {
		t.Fatalf("unknown goal err=%v", err)
	}
}

func TestProfileReadsThroughCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := uuid.New()

	r, err := f.finance.GetProfile(ctx, uid)
	if err != nil || r.Value != nil {
		t.Fatalf("empty GetProfile value=%v err=%v", r.Value, err)
	}
	if _, err := f.finance.SaveProfile(ctx, uid, sampleProfile()); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	f.profiles.fail.Store(true)
	r, err = f.finance.GetProfile(ctx, uid)
	if err != nil {
		t.Fatalf("GetProfile with store down: %v", err)
	}
	if r.Source != fetch.SourceCache || r.Value == nil || r.Value.Income != 5000 {
		t.Fatalf("cached profile source=%s value=%+v", r.Source, r.Value)
	}

	_, err = f.finance.GetProfile(ctx, uuid.New())
	if ae, ok := apierr.As(err); !ok || ae.Code != "store_unavailable" {
		t.Fatalf("uncached read with store down err=%v", err)
	}
}

func TestGeneratePlanWithoutIncomeKeepsPriorPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := uuid.New()

	pv, err := f.finance.GeneratePlan(ctx, uid)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if pv.Computed || pv.Plan != nil {
		t.Fatalf("plan without profile: %+v", pv)
	}

	if _, err := f.finance.SaveProfile(ctx, uid, sampleProfile()); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	upd, err := f.finance.SaveProfile(ctx, uid, ProfileInput{})
	if err != nil {
		t.Fatalf("SaveProfile zero income: %v", err)
	}
	if upd.Plan.Computed || upd.Plan.Plan == nil || upd.Plan.Plan.BudgetNeeds != 2500 {
		t.Fatalf("prior plan not kept: %+v", upd.Plan)
	}
}

func TestRefreshPlans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := f.finance.SaveProfile(ctx, uuid.New(), sampleProfile()); err != nil {
			t.Fatalf("SaveProfile: %v", err)
		}
	}
	n, err := f.finance.RefreshPlans(ctx)
	if err != nil {
		t.Fatalf("RefreshPlans: %v", err)
	}
	if n != 3 {
		t.Fatalf("refreshed=%d want 3", n)
	}
}
