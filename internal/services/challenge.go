package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wealthquest-backend/internal/data/repos"
	types "github.com/yungbote/wealthquest-backend/internal/domain"
	gamemod "github.com/yungbote/wealthquest-backend/internal/modules/gamification"
	"github.com/yungbote/wealthquest-backend/internal/observability"
	"github.com/yungbote/wealthquest-backend/internal/platform/apierr"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/fetch"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
	pkgerrors "github.com/yungbote/wealthquest-backend/internal/pkg/errors"
)

// progressAttempts bounds retries of a guarded progress write that lost a race.
const progressAttempts = 3

type ChallengeUpdate struct {
	Progress types.ChallengeProgress `json:"progress"`
	// Completed is true only for the update that completed the challenge.
	Completed bool                    `json:"completed"`
	XPAwarded int64                   `json:"xp_awarded"`
	LevelUp   *gamemod.LevelUp        `json:"level_up,omitempty"`
	State     types.GamificationState `json:"state"`
}

type ChallengeService interface {
	List(ctx context.Context, userID uuid.UUID, t types.ChallengeType) (fetch.Result[[]types.ChallengeView], error)
	UpdateProgress(ctx context.Context, userID uuid.UUID, challengeID string, delta int) (*ChallengeUpdate, error)
}

type challengeService struct {
	log      *logger.Logger
	catalog  CatalogService
	progress repos.ChallengeProgressRepo
	sessions SessionManager
	now      func() time.Time
}

func NewChallengeService(log *logger.Logger, catalog CatalogService, progress repos.ChallengeProgressRepo, sessions SessionManager) ChallengeService {
	return &challengeService{
		log:      log.With("service", "ChallengeService"),
		catalog:  catalog,
		progress: progress,
		sessions: sessions,
		now:      time.Now,
	}
}

func (cs *challengeService) List(ctx context.Context, userID uuid.UUID, t types.ChallengeType) (fetch.Result[[]types.ChallengeView], error) {
	if !t.Valid() {
		return fetch.Result[[]types.ChallengeView]{}, apierr.BadRequest("invalid_argument", fmt.Errorf("type must be daily or weekly"))
	}
	catalog := cs.catalog.Challenges(ctx, t)

	rows, err := cs.progress.ListByUserID(dbctx.New(ctx), userID)
	out := fetch.Result[[]types.ChallengeView]{Source: catalog.Source, Err: catalog.Err}
	if err != nil {
		cs.log.Warn("Challenge progress read failed, showing zero progress", "user_id", userID, "error", err)
		rows = nil
		if out.Err == nil {
			out.Err = fetch.NewError("progress store", "list challenge progress", err)
		}
	}
	out.Value = gamemod.MergeChallenges(catalog.Value, rows)
	return out, nil
}

func (cs *challengeService) UpdateProgress(ctx context.Context, userID uuid.UUID, challengeID string, delta int) (*ChallengeUpdate, error) {
	ch, ok := cs.catalog.Challenge(ctx, challengeID)
	if !ok {
		return nil, apierr.NotFound("challenge_not_found", fmt.Errorf("unknown challenge %q", challengeID))
	}
	sess, err := cs.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	dbc := dbctx.New(ctx)
	for attempt := 0; attempt < progressAttempts; attempt++ {
		cur, err := cs.progress.Get(dbc, userID, ch.ID)
		if err != nil {
			return nil, storeUnavailable("load challenge progress", err)
		}
		base := types.ChallengeProgress{UserID: userID, ChallengeID: ch.ID}
		if cur != nil {
			base = *cur
		}

		step := gamemod.ApplyChallengeProgress(base, delta, ch.RequirementValue, cs.now())
		if step.Changed {
			err = cs.progress.Advance(dbc, cur, step.Progress)
			if errors.Is(err, pkgerrors.ErrConflict) {
				cs.log.Debug("Challenge progress write lost a race, retrying", "challenge_id", ch.ID, "attempt", attempt+1)
				continue
			}
			if err != nil {
				return nil, storeUnavailable("save challenge progress", err)
			}
		}

		upd := &ChallengeUpdate{Progress: step.Progress}
		if !step.Progress.Completed {
			upd.State = sess.Snapshot()
			return upd, nil
		}
		// Runs for every call on a completed row so an XP grant lost to a
		// failed state write is paid on retry; the reward key keeps it single.
		var applied bool
		err = withSession(ctx, cs.sessions, userID, sess, func(s *GamificationSession) error {
			var err error
			upd.State, upd.LevelUp, applied, err = s.GrantReward(ctx, gamemod.ChallengeReward(ch.ID, ch.XPReward))
			return err
		})
		if err != nil {
			return nil, err
		}
		if applied {
			cs.log.Info("Challenge completed", "user_id", userID, "challenge_id", ch.ID, "xp", ch.XPReward)
			upd.Completed = true
			upd.XPAwarded = ch.XPReward
			observability.Current().AddXP("challenge", ch.XPReward)
		}
		return upd, nil
	}
	return nil, apierr.Conflict("progress_conflict", fmt.Errorf("challenge progress changed concurrently"))
}
