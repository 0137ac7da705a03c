package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "pw",
		DisplayName:  "Test User",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, income, expenses, savings float64) *types.FinancialProfile {
	tb.Helper()
	p := &types.FinancialProfile{
		UserID:   userID,
		Age:      30,
		Income:   income,
		Expenses: expenses,
		Savings:  savings,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedChallenge(tb testing.TB, ctx context.Context, tx *gorm.DB, id string, ct types.ChallengeType, requirement int) *types.Challenge {
	tb.Helper()
	c := &types.Challenge{
		ID:               id,
		Title:            id,
		XPReward:         25,
		Type:             ct,
		RequirementValue: requirement,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed challenge: %v", err)
	}
	return c
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, id string, level int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:            id,
		Title:         id,
		LevelRequired: level,
		XPReward:      100,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}
