package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/wealthquest-backend/internal/content"
	"github.com/yungbote/wealthquest-backend/internal/data/repos"
	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/fetch"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

const catalogCollaborator = "catalog"

// CatalogService serves lessons, quizzes and challenges from the durable
// store, falling back to the embedded catalog when the store fails or is empty.
type CatalogService interface {
	Challenges(ctx context.Context, t types.ChallengeType) fetch.Result[[]*types.Challenge]
	Challenge(ctx context.Context, id string) (*types.Challenge, bool)
	Lessons(ctx context.Context) fetch.Result[[]*types.Lesson]
	Lesson(ctx context.Context, id string) (*types.Lesson, bool)
	Quiz(ctx context.Context, lessonID string) fetch.Result[[]*types.QuizQuestion]
	// Seed upserts the embedded catalog into the durable store.
	Seed(ctx context.Context) error
}

type catalogService struct {
	db         *gorm.DB
	log        *logger.Logger
	lessons    repos.LessonRepo
	quiz       repos.QuizRepo
	challenges repos.ChallengeRepo
	builtin    *content.Catalog
}

func NewCatalogService(db *gorm.DB, log *logger.Logger, lessons repos.LessonRepo, quiz repos.QuizRepo, challenges repos.ChallengeRepo) CatalogService {
	return &catalogService{
		db:         db,
		log:        log.With("service", "CatalogService"),
		lessons:    lessons,
		quiz:       quiz,
		challenges: challenges,
		builtin:    content.Builtin(),
	}
}

// fallback picks the embedded value when the store failed or returned nothing.
func fallback[T any](cs *catalogService, op string, rows []T, err error, builtin func() []T) fetch.Result[[]T] {
	if err == nil && len(rows) > 0 {
		return fetch.Remote(rows)
	}
	cause := fetch.NewError(catalogCollaborator, op, err)
	if err != nil {
		cs.log.Warn("Catalog read failed, serving embedded catalog", "op", op, "error", err)
	}
	return fetch.Fallback(builtin(), cause)
}

func (cs *catalogService) Challenges(ctx context.Context, t types.ChallengeType) fetch.Result[[]*types.Challenge] {
	rows, err := cs.challenges.ListByType(dbctx.New(ctx), t)
	return fallback(cs, "list challenges", rows, err, func() []*types.Challenge {
		return cs.builtin.ChallengesOfType(t)
	})
}

func (cs *catalogService) Challenge(ctx context.Context, id string) (*types.Challenge, bool) {
	row, err := cs.challenges.GetByID(dbctx.New(ctx), id)
	if err != nil {
		cs.log.Warn("Challenge lookup failed, trying embedded catalog", "challenge_id", id, "error", err)
	}
	if row != nil {
		return row, true
	}
	return cs.builtin.Challenge(id)
}

func (cs *catalogService) Lessons(ctx context.Context) fetch.Result[[]*types.Lesson] {
	rows, err := cs.lessons.List(dbctx.New(ctx))
	return fallback(cs, "list lessons", rows, err, cs.builtin.AllLessons)
}

func (cs *catalogService) Lesson(ctx context.Context, id string) (*types.Lesson, bool) {
	row, err := cs.lessons.GetByID(dbctx.New(ctx), id)
	if err != nil {
		cs.log.Warn("Lesson lookup failed, trying embedded catalog", "lesson_id", id, "error", err)
	}
	if row != nil {
		return row, true
	}
	return cs.builtin.Lesson(id)
}

func (cs *catalogService) Quiz(ctx context.Context, lessonID string) fetch.Result[[]*types.QuizQuestion] {
	rows, err := cs.quiz.ListByLesson(dbctx.New(ctx), lessonID)
	return fallback(cs, "list quiz", rows, err, func() []*types.QuizQuestion {
		return cs.builtin.Quiz(lessonID)
	})
}

func (cs *catalogService) Seed(ctx context.Context) error {
	c := cs.builtin
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx).WithTx(tx)
		if err := cs.lessons.UpsertMany(dbc, c.AllLessons()); err != nil {
			return fmt.Errorf("seed lessons: %w", err)
		}
		if err := cs.quiz.UpsertMany(dbc, c.QuizQuestions); err != nil {
			return fmt.Errorf("seed quiz: %w", err)
		}
		if err := cs.challenges.UpsertMany(dbc, c.Challenges); err != nil {
			return fmt.Errorf("seed challenges: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cs.log.Info("Catalog seeded",
		"lessons", len(c.Lessons),
		"quiz_questions", len(c.QuizQuestions),
		"challenges", len(c.Challenges),
	)
	return nil
}
