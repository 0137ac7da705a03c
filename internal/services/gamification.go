package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	gamemod "github.com/yungbote/wealthquest-backend/internal/modules/gamification"
	"github.com/yungbote/wealthquest-backend/internal/platform/fetch"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type GamificationView struct {
	State    types.GamificationState `json:"state"`
	Progress gamemod.LevelProgress   `json:"progress"`
}

type StreakCheck struct {
	gamemod.StreakOutcome
	LevelUp *gamemod.LevelUp        `json:"level_up,omitempty"`
	State   types.GamificationState `json:"state"`
}

type GamificationService interface {
	Snapshot(ctx context.Context, userID uuid.UUID) (fetch.Result[GamificationView], error)
	CheckDailyStreak(ctx context.Context, userID uuid.UUID) (*StreakCheck, error)
}

type gamificationService struct {
	log      *logger.Logger
	sessions SessionManager
	finance  FinanceService
	now      func() time.Time
}

func NewGamificationService(log *logger.Logger, sessions SessionManager, finance FinanceService) GamificationService {
	return &gamificationService{
		log:      log.With("service", "GamificationService"),
		sessions: sessions,
		finance:  finance,
		now:      time.Now,
	}
}

func (gs *gamificationService) Snapshot(ctx context.Context, userID uuid.UUID) (fetch.Result[GamificationView], error) {
	sess, err := gs.sessions.Get(ctx, userID)
	if err != nil {
		return fetch.Result[GamificationView]{}, err
	}
	r := sess.SnapshotResult()
	return fetch.Result[GamificationView]{
		Value:  GamificationView{State: r.Value, Progress: gamemod.Progress(r.Value.XP)},
		Source: r.Source,
		Err:    r.Err,
	}, nil
}

func (gs *gamificationService) CheckDailyStreak(ctx context.Context, userID uuid.UUID) (*StreakCheck, error) {
	sess, err := gs.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	score, err := gs.finance.ScoreFunc(ctx, userID)
	if err != nil {
		// The streak still advances; the score is recomputed on the next finance change.
		gs.log.Warn("Score inputs unavailable during streak check", "user_id", userID, "error", err)
		score = nil
	}
	res := &StreakCheck{}
	err = withSession(ctx, gs.sessions, userID, sess, func(s *GamificationSession) error {
		var err error
		res.StreakOutcome, res.State, res.LevelUp, err = s.CheckDailyStreak(ctx, gs.now(), score)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res.IsNewDay {
		gs.log.Info("Daily streak advanced", "user_id", userID, "streak", res.Streak, "bonus_xp", res.BonusXP)
	}
	return res, nil
}
