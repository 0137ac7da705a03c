package gamification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type BadgeRepo interface {
	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]types.Badge, error)
	// InsertMissing adds badges by (user_id, name); existing names are left alone.
	InsertMissing(dbc dbctx.Context, rows []types.Badge) error
}

type badgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return &badgeRepo{db: db, log: baseLog.With("repo", "BadgeRepo")}
}

func (r *badgeRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]types.Badge, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []types.Badge{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *badgeRepo) InsertMissing(dbc dbctx.Context, rows []types.Badge) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}
