package gamification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/wealthquest-backend/internal/data/repos/testutil"
	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	pkgerrors "github.com/yungbote/wealthquest-backend/internal/pkg/errors"
)

func TestStateRepoUpsertIsMonotonic(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "state@example.com")
	repo := NewStateRepo(db, testutil.Logger(t))

	first := types.GamificationState{
		UserID:           u.ID,
		XP:               300,
		Level:            3,
		Score:            40,
		Streak:           4,
		LastActivityDate: "2026-03-04",
		ActionsCompleted: 6,
	}
	if err := repo.Upsert(dbc, &first); err != nil {
		t.Fatalf("Upsert(first): %v", err)
	}

	// A stale snapshot: lower everywhere, older activity date, newer score.
	stale := types.GamificationState{
		UserID:           u.ID,
		XP:               100,
		Level:            2,
		Score:            55,
		Streak:           9,
		LastActivityDate: "2026-03-01",
		ActionsCompleted: 2,
	}
	if err := repo.Upsert(dbc, &stale); err != nil {
		t.Fatalf("Upsert(stale): %v", err)
	}

	got, err := repo.GetByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got == nil {
		t.Fatalf("GetByUserID: expected row")
	}
	if got.XP != 300 || got.Level != 3 || got.ActionsCompleted != 6 {
		t.Fatalf("counters went backwards: %+v", got)
	}
	if got.Streak != 4 || got.LastActivityDate != "2026-03-04" {
		t.Fatalf("older streak overwrote newer one: %+v", got)
	}
	if got.Score != 55 {
		t.Fatalf("score=%d want latest 55", got.Score)
	}

	// A newer day resets the streak even though the number is smaller.
	newer := types.GamificationState{UserID: u.ID, XP: 310, Level: 3, Streak: 1, LastActivityDate: "2026-03-10"}
	if err := repo.Upsert(dbc, &newer); err != nil {
		t.Fatalf("Upsert(newer): %v", err)
	}
	got, err = repo.GetByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got.Streak != 1 || got.LastActivityDate != "2026-03-10" || got.XP != 310 {
		t.Fatalf("newer day not applied: %+v", got)
	}
}

func TestBadgeRepoInsertMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "badges@example.com")
	repo := NewBadgeRepo(db, testutil.Logger(t))
	now := time.Now().UTC()

	if err := repo.InsertMissing(dbc, []types.Badge{
		{UserID: u.ID, Name: "Starter Planner", EarnedAt: now},
	}); err != nil {
		t.Fatalf("InsertMissing(first): %v", err)
	}
	if err := repo.InsertMissing(dbc, []types.Badge{
		{UserID: u.ID, Name: "Starter Planner", Description: "dup", EarnedAt: now.Add(time.Hour)},
		{UserID: u.ID, Name: "Wealth Explorer", EarnedAt: now.Add(time.Hour)},
	}); err != nil {
		t.Fatalf("InsertMissing(second): %v", err)
	}

	got, err := repo.ListByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 badges, got %+v", got)
	}
	if got[0].Name != "Starter Planner" || got[0].Description != "" {
		t.Fatalf("existing badge was overwritten: %+v", got[0])
	}
}

func TestStreakRepoAdvance(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "streak@example.com")
	repo := NewStreakRepo(db, testutil.Logger(t))

	day1 := types.StreakRecord{UserID: u.ID, StreakDays: 1, LastActivityDate: "2026-05-01"}
	ok, err := repo.Advance(dbc, nil, day1)
	if err != nil || !ok {
		t.Fatalf("Advance(insert): ok=%v err=%v", ok, err)
	}
	ok, err = repo.Advance(dbc, nil, day1)
	if err != nil || ok {
		t.Fatalf("Advance(duplicate insert): ok=%v err=%v want false", ok, err)
	}

	day2 := types.StreakRecord{UserID: u.ID, StreakDays: 2, LastActivityDate: "2026-05-02"}
	ok, err = repo.Advance(dbc, &day1, day2)
	if err != nil || !ok {
		t.Fatalf("Advance(day2): ok=%v err=%v", ok, err)
	}
	// The same transition a second time must lose the compare-and-set.
	ok, err = repo.Advance(dbc, &day1, day2)
	if err != nil || ok {
		t.Fatalf("Advance(replay): ok=%v err=%v want false", ok, err)
	}

	got, err := repo.GetByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got == nil || got.StreakDays != 2 || got.LastActivityDate != "2026-05-02" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestChallengeProgressAdvance(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "challenge@example.com")
	ch := testutil.SeedChallenge(t, ctx, tx, "weekly-test", types.ChallengeWeekly, 2)

	catalog := NewChallengeRepo(db, testutil.Logger(t))
	weekly, err := catalog.ListByType(dbc, types.ChallengeWeekly)
	if err != nil {
		t.Fatalf("ListByType: %v", err)
	}
	if len(weekly) == 0 {
		t.Fatalf("ListByType: expected seeded challenge")
	}

	repo := NewChallengeProgressRepo(db, testutil.Logger(t))
	now := time.Now().UTC()

	if err := repo.Advance(dbc, nil, types.ChallengeProgress{UserID: u.ID, ChallengeID: ch.ID, Progress: 1, LastUpdated: now}); err != nil {
		t.Fatalf("Advance(insert): %v", err)
	}
	if err := repo.Advance(dbc, nil, types.ChallengeProgress{UserID: u.ID, ChallengeID: ch.ID, Progress: 1, LastUpdated: now}); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("Advance(duplicate insert): err=%v want ErrConflict", err)
	}

	cur, err := repo.Get(dbc, u.ID, ch.ID)
	if err != nil || cur == nil {
		t.Fatalf("Get: row=%v err=%v", cur, err)
	}
	done := now.Add(time.Minute)
	next := *cur
	next.Progress = 2
	next.Completed = true
	next.CompletedAt = &done
	if err := repo.Advance(dbc, cur, next); err != nil {
		t.Fatalf("Advance(complete): %v", err)
	}
	if err := repo.Advance(dbc, cur, next); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("Advance(after complete): err=%v want ErrConflict", err)
	}

	list, err := repo.ListByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if len(list) != 1 || !list[0].Completed || list[0].Progress != 2 {
		t.Fatalf("unexpected progress rows: %+v", list)
	}
}

func TestRewardRepoInsertMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "rewards@example.com")
	repo := NewRewardRepo(db, testutil.Logger(t))
	now := time.Now().UTC()

	if err := repo.InsertMissing(dbc, []types.Reward{
		{UserID: u.ID, Key: "onboarding", GrantedAt: now},
	}); err != nil {
		t.Fatalf("InsertMissing(first): %v", err)
	}
	if err := repo.InsertMissing(dbc, []types.Reward{
		{UserID: u.ID, Key: "onboarding", GrantedAt: now.Add(time.Hour)},
		{UserID: u.ID, Key: "lesson:1", GrantedAt: now},
	}); err != nil {
		t.Fatalf("InsertMissing(second): %v", err)
	}

	got, err := repo.ListKeysByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListKeysByUserID: %v", err)
	}
	if len(got) != 2 || got[0] != "lesson:1" || got[1] != "onboarding" {
		t.Fatalf("keys=%v want [lesson:1 onboarding]", got)
	}
}

func TestStateRepoKeepsLatestStreakReward(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "streak-reward@example.com")
	repo := NewStateRepo(db, testutil.Logger(t))

	for _, day := range []string{"2026-03-10", "2026-03-08"} {
		row := types.GamificationState{UserID: u.ID, Level: 1, Streak: 3, LastActivityDate: "2026-03-10", StreakRewardedDate: day}
		if err := repo.Upsert(dbc, &row); err != nil {
			t.Fatalf("Upsert(%s): %v", day, err)
		}
	}
	got, err := repo.GetByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got.StreakRewardedDate != "2026-03-10" {
		t.Fatalf("streak_rewarded_date=%q want 2026-03-10", got.StreakRewardedDate)
	}
}
