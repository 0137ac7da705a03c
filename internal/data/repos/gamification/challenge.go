package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
	pkgerrors "github.com/yungbote/wealthquest-backend/internal/pkg/errors"
)

type ChallengeRepo interface {
	ListByType(dbc dbctx.Context, t types.ChallengeType) ([]*types.Challenge, error)
	GetByID(dbc dbctx.Context, id string) (*types.Challenge, error)
	UpsertMany(dbc dbctx.Context, rows []*types.Challenge) error
}

type challengeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChallengeRepo(db *gorm.DB, baseLog *logger.Logger) ChallengeRepo {
	return &challengeRepo{db: db, log: baseLog.With("repo", "ChallengeRepo")}
}

func (r *challengeRepo) ListByType(dbc dbctx.Context, ct types.ChallengeType) ([]*types.Challenge, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Challenge{}
	if err := t.WithContext(dbc.Ctx).Where("type = ?", ct).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *challengeRepo) GetByID(dbc dbctx.Context, id string) (*types.Challenge, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Challenge
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *challengeRepo) UpsertMany(dbc dbctx.Context, rows []*types.Challenge) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}

type ChallengeProgressRepo interface {
	Get(dbc dbctx.Context, userID uuid.UUID, challengeID string) (*types.ChallengeProgress, error)
	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.ChallengeProgress, error)
	// Advance writes next only if the row still matches prev (nil prev means
	// no row yet) and is not completed. Returns ErrConflict otherwise.
	Advance(dbc dbctx.Context, prev *types.ChallengeProgress, next types.ChallengeProgress) error
}

type challengeProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChallengeProgressRepo(db *gorm.DB, baseLog *logger.Logger) ChallengeProgressRepo {
	return &challengeProgressRepo{db: db, log: baseLog.With("repo", "ChallengeProgressRepo")}
}

func (r *challengeProgressRepo) Get(dbc dbctx.Context, userID uuid.UUID, challengeID string) (*types.ChallengeProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.ChallengeProgress
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *challengeProgressRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.ChallengeProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.ChallengeProgress{}
	if err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *challengeProgressRepo) Advance(dbc dbctx.Context, prev *types.ChallengeProgress, next types.ChallengeProgress) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if next.LastUpdated.IsZero() {
		next.LastUpdated = time.Now().UTC()
	}
	if prev == nil {
		res := t.WithContext(dbc.Ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "challenge_id"}},
				DoNothing: true,
			}).
			Create(&next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.ErrConflict
		}
		return nil
	}
	res := t.WithContext(dbc.Ctx).Model(&types.ChallengeProgress{}).
		Where("id = ? AND completed = ? AND progress = ?", prev.ID, false, prev.Progress).
		Updates(map[string]interface{}{
			"progress":     next.Progress,
			"completed":    next.Completed,
			"completed_at": next.CompletedAt,
			"last_updated": next.LastUpdated,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrConflict
	}
	return nil
}
