package gamification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/wealthquest-backend/internal/data/db"
	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type StateRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.GamificationState, error)
	// Upsert writes a snapshot without letting xp, level, counters or a newer
	// streak already in the row go backwards.
	Upsert(dbc dbctx.Context, row *types.GamificationState) error
}

type stateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStateRepo(db *gorm.DB, baseLog *logger.Logger) StateRepo {
	return &stateRepo{db: db, log: baseLog.With("repo", "GamificationStateRepo")}
}

func (r *stateRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.GamificationState, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.GamificationState
	if err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *stateRepo) Upsert(dbc dbctx.Context, row *types.GamificationState) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	// Copy so BeforeCreate cannot stamp a fresh id onto the caller's snapshot.
	ins := *row
	ins.Badges = nil
	ins.Rewards = nil

	tbl := types.GamificationState{}.TableName()
	greatest := db.GreatestFunc(t)
	keepMax := func(col string) clause.Expr {
		return gorm.Expr(fmt.Sprintf("%s(%s.%s, excluded.%s)", greatest, tbl, col, col))
	}
	newer := fmt.Sprintf("excluded.last_activity_date > %s.last_activity_date", tbl)
	same := fmt.Sprintf("excluded.last_activity_date = %s.last_activity_date", tbl)

	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"xp":                   keepMax("xp"),
				"level":                keepMax("level"),
				"actions_completed":    keepMax("actions_completed"),
				"challenges_completed": keepMax("challenges_completed"),
				"streak_rewarded_date": keepMax("streak_rewarded_date"),
				"streak": gorm.Expr(fmt.Sprintf(
					"CASE WHEN %s THEN excluded.streak WHEN %s THEN %s(%s.streak, excluded.streak) ELSE %s.streak END",
					newer, same, greatest, tbl, tbl,
				)),
				"last_activity_date": gorm.Expr(fmt.Sprintf(
					"CASE WHEN %s THEN excluded.last_activity_date ELSE %s.last_activity_date END",
					newer, tbl,
				)),
				"score":      gorm.Expr("excluded.score"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(&ins).Error
}
