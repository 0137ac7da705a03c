package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	financemod "github.com/yungbote/wealthquest-backend/internal/modules/finance"
)

func TestGamificationSnapshotIncludesProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := uuid.New()
	if _, err := f.finance.SaveProfile(ctx, uid, sampleProfile()); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	r, err := f.gamify.Snapshot(ctx, uid)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	p := r.Value.Progress
	if p.Level != 1 || p.XP != OnboardingXP || p.NextThreshold == nil || *p.NextThreshold != 100 || p.PercentToNext != 50 {
		t.Fatalf("progress %+v", p)
	}
}

func TestGamificationStreakCheckRecomputesScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := uuid.New()
	if _, err := f.finance.SaveProfile(ctx, uid, sampleProfile()); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	yesterday := time.Now().AddDate(0, 0, -1).Format(types.DateLayout)
	f.streaks.mu.Lock()
	f.streaks.rows[uid] = types.StreakRecord{UserID: uid, StreakDays: 2, LastActivityDate: yesterday}
	f.streaks.mu.Unlock()

	got, err := f.gamify.CheckDailyStreak(ctx, uid)
	if err != nil {
		t.Fatalf("CheckDailyStreak: %v", err)
	}
	if !got.IsNewDay || got.Streak != 3 || got.BonusXP != 20 {
		t.Fatalf("outcome %+v", got.StreakOutcome)
	}
	profile := &types.FinancialProfile{Income: 5000, Savings: 1000}
	if want := financemod.ComputeScore(profile, nil, 3); got.State.Score != want {
		t.Fatalf("score=%d want %d", got.State.Score, want)
	}
	if got.State.XP != OnboardingXP+20 {
		t.Fatalf("xp=%d want %d", got.State.XP, OnboardingXP+20)
	}

	again, err := f.gamify.CheckDailyStreak(ctx, uid)
	if err != nil {
		t.Fatalf("second CheckDailyStreak: %v", err)
	}
	if again.IsNewDay || again.BonusXP != 0 || again.State.XP != got.State.XP {
		t.Fatalf("second check same day %+v", again)
	}
}

func TestGamificationStreakBonusPaidAfterFailedStateWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := uuid.New()
	if _, err := f.finance.SaveProfile(ctx, uid, sampleProfile()); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	yesterday := time.Now().AddDate(0, 0, -1).Format(types.DateLayout)
	f.streaks.mu.Lock()
	f.streaks.rows[uid] = types.StreakRecord{UserID: uid, StreakDays: 29, LastActivityDate: yesterday}
	f.streaks.mu.Unlock()

	f.cache.failPut.Store(true)
	if _, err := f.gamify.CheckDailyStreak(ctx, uid); err == nil {
		t.Fatalf("CheckDailyStreak with cache down succeeded")
	}
	f.cache.failPut.Store(false)

	got, err := f.gamify.CheckDailyStreak(ctx, uid)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got.Streak != 30 || got.BonusXP != 100 || got.State.XP != OnboardingXP+100 {
		t.Fatalf("retry outcome=%+v xp=%d", got.StreakOutcome, got.State.XP)
	}
	if got.LevelUp == nil || got.LevelUp.From != 1 || got.LevelUp.To != 2 {
		t.Fatalf("level up=%+v want 1->2", got.LevelUp)
	}

	again, err := f.gamify.CheckDailyStreak(ctx, uid)
	if err != nil || again.BonusXP != 0 || again.LevelUp != nil || again.State.XP != got.State.XP {
		t.Fatalf("third check %+v err=%v", again, err)
	}
}
