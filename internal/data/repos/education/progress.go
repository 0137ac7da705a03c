package education

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

type LessonProgressRepo interface {
	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.LessonProgress, error)
	Get(dbc dbctx.Context, userID uuid.UUID, lessonID string) (*types.LessonProgress, error)
	// RecordAttempt counts one quiz attempt and keeps the best score. When
	// passed, the lesson is marked complete; firstCompletion is true only for
	// the attempt that flipped it.
	RecordAttempt(dbc dbctx.Context, userID uuid.UUID, lessonID string, score int, passed bool) (row *types.LessonProgress, firstCompletion bool, err error)
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return &lessonProgressRepo{db: db, log: baseLog.With("repo", "LessonProgressRepo")}
}

func (r *lessonProgressRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.LessonProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.LessonProgress{}
	if err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonProgressRepo) Get(dbc dbctx.Context, userID uuid.UUID, lessonID string) (*types.LessonProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.LessonProgress
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *lessonProgressRepo) RecordAttempt(dbc dbctx.Context, userID uuid.UUID, lessonID string, score int, passed bool) (*types.LessonProgress, bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var (
		out   types.LessonProgress
		first bool
	)
	err := t.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		seed := types.LessonProgress{UserID: userID, LessonID: lessonID, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		scope := tx.Model(&types.LessonProgress{}).
			Where("user_id = ? AND lesson_id = ?", userID, lessonID).
			Session(&gorm.Session{})
		if err := scope.Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"score":      gorm.Expr(fmt.Sprintf("%s(score, ?)", db.GreatestFunc(tx)), score),
			"updated_at": now,
		}).Error; err != nil {
			return err
		}

		if passed {
			res := scope.Where("completed = ?", false).
				Updates(map[string]interface{}{"completed": true, "completed_at": now})
			if res.Error != nil {
				return res.Error
			}
			first = res.RowsAffected == 1
		}

		return tx.Where("user_id = ? AND lesson_id = ?", userID, lessonID).Limit(1).Find(&out).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &out, first, nil
}
