package gamification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type StreakRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.StreakRecord, error)
	// Advance moves the record from prev to next with compare-and-set on the
	// previous activity date. prev nil means no row existed. It reports false
	// when another writer got there first.
	Advance(dbc dbctx.Context, prev *types.StreakRecord, next types.StreakRecord) (bool, error)
}

type streakRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStreakRepo(db *gorm.DB, baseLog *logger.Logger) StreakRepo {
	return &streakRepo{db: db, log: baseLog.With("repo", "StreakRepo")}
}

func (r *streakRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.StreakRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.StreakRecord
	if err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.UserID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *streakRepo) Advance(dbc dbctx.Context, prev *types.StreakRecord, next types.StreakRecord) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if next.UserID == uuid.Nil {
		return false, nil
	}
	if prev == nil {
		res := t.WithContext(dbc.Ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
			Create(&next)
		if res.Error != nil {
			return false, res.Error
		}
		return res.RowsAffected == 1, nil
	}
	res := t.WithContext(dbc.Ctx).Model(&types.StreakRecord{}).
		Where("user_id = ? AND last_activity_date = ?", next.UserID, prev.LastActivityDate).
		Updates(map[string]interface{}{
			"streak_days":        next.StreakDays,
			"last_activity_date": next.LastActivityDate,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
