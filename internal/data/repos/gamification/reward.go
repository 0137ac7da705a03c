package gamification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type RewardRepo interface {
	ListKeysByUserID(dbc dbctx.Context, userID uuid.UUID) ([]string, error)
	// InsertMissing records grants by (user_id, reward_key); keys already present are left alone.
	InsertMissing(dbc dbctx.Context, rows []types.Reward) error
}

type rewardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRewardRepo(db *gorm.DB, baseLog *logger.Logger) RewardRepo {
	return &rewardRepo{db: db, log: baseLog.With("repo", "RewardRepo")}
}

func (r *rewardRepo) ListKeysByUserID(dbc dbctx.Context, userID uuid.UUID) ([]string, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []string{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Reward{}).
		Where("user_id = ?", userID).
		Order("reward_key ASC").
		Pluck("reward_key", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rewardRepo) InsertMissing(dbc dbctx.Context, rows []types.Reward) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "reward_key"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}
