package education

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type LessonRepo interface {
	List(dbc dbctx.Context) ([]*types.Lesson, error)
	GetByID(dbc dbctx.Context, id string) (*types.Lesson, error)
	UpsertMany(dbc dbctx.Context, rows []*types.Lesson) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) List(dbc dbctx.Context) ([]*types.Lesson, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Lesson{}
	if err := t.WithContext(dbc.Ctx).
		Order("level_required ASC").
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonRepo) GetByID(dbc dbctx.Context, id string) (*types.Lesson, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Lesson
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *lessonRepo) UpsertMany(dbc dbctx.Context, rows []*types.Lesson) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}

type QuizRepo interface {
	ListByLesson(dbc dbctx.Context, lessonID string) ([]*types.QuizQuestion, error)
	UpsertMany(dbc dbctx.Context, rows []*types.QuizQuestion) error
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return &quizRepo{db: db, log: baseLog.With("repo", "QuizRepo")}
}

func (r *quizRepo) ListByLesson(dbc dbctx.Context, lessonID string) ([]*types.QuizQuestion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.QuizQuestion{}
	if err := t.WithContext(dbc.Ctx).
		Where("lesson_id = ?", lessonID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quizRepo) UpsertMany(dbc dbctx.Context, rows []*types.QuizQuestion) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}
