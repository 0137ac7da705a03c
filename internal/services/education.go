package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/wealthquest-backend/internal/data/repos"
	types "github.com/yungbote/wealthquest-backend/internal/domain"
	edumod "github.com/yungbote/wealthquest-backend/internal/modules/education"
	gamemod "github.com/yungbote/wealthquest-backend/internal/modules/gamification"
	"github.com/yungbote/wealthquest-backend/internal/observability"
	"github.com/yungbote/wealthquest-backend/internal/platform/apierr"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/fetch"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type LessonResult struct {
	edumod.Grade
	XPAwarded        int64                   `json:"xp_awarded"`
	LevelUp          *gamemod.LevelUp        `json:"level_up,omitempty"`
	AlreadyCompleted bool                    `json:"already_completed"`
	Attempts         int                     `json:"attempts"`
	BestScore        int                     `json:"best_score"`
	State            types.GamificationState `json:"state"`
}

type EducationService interface {
	ListLessons(ctx context.Context, userID uuid.UUID) (fetch.Result[[]types.LessonView], error)
	GetQuiz(ctx context.Context, lessonID string) (fetch.Result[[]*types.QuizQuestion], error)
	CompleteLesson(ctx context.Context, userID uuid.UUID, lessonID string, answers map[string]string) (*LessonResult, error)
}

type educationService struct {
	log      *logger.Logger
	catalog  CatalogService
	progress repos.LessonProgressRepo
	sessions SessionManager
}

func NewEducationService(log *logger.Logger, catalog CatalogService, progress repos.LessonProgressRepo, sessions SessionManager) EducationService {
	return &educationService{
		log:      log.With("service", "EducationService"),
		catalog:  catalog,
		progress: progress,
		sessions: sessions,
	}
}

func (es *educationService) ListLessons(ctx context.Context, userID uuid.UUID) (fetch.Result[[]types.LessonView], error) {
	sess, err := es.sessions.Get(ctx, userID)
	if err != nil {
		return fetch.Result[[]types.LessonView]{}, err
	}
	lessons := es.catalog.Lessons(ctx)
	out := fetch.Result[[]types.LessonView]{Source: lessons.Source, Err: lessons.Err}

	rows, err := es.progress.ListByUserID(dbctx.New(ctx), userID)
	if err != nil {
		es.log.Warn("Lesson progress read failed, showing no progress", "user_id", userID, "error", err)
		rows = nil
		if out.Err == nil {
			out.Err = fetch.NewError("progress store", "list lesson progress", err)
		}
	}
	out.Value = edumod.Annotate(lessons.Value, rows, sess.Snapshot().Level)
	return out, nil
}

func (es *educationService) GetQuiz(ctx context.Context, lessonID string) (fetch.Result[[]*types.QuizQuestion], error) {
	if _, ok := es.catalog.Lesson(ctx, lessonID); !ok {
		return fetch.Result[[]*types.QuizQuestion]{}, apierr.NotFound("lesson_not_found", fmt.Errorf("unknown lesson %q", lessonID))
	}
	return es.catalog.Quiz(ctx, lessonID), nil
}

func (es *educationService) CompleteLesson(ctx context.Context, userID uuid.UUID, lessonID string, answers map[string]string) (*LessonResult, error) {
	lesson, ok := es.catalog.Lesson(ctx, lessonID)
	if !ok {
		return nil, apierr.NotFound("lesson_not_found", fmt.Errorf("unknown lesson %q", lessonID))
	}
	sess, err := es.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if edumod.Locked(*lesson, sess.Snapshot().Level) {
		return nil, apierr.Forbidden("lesson_locked", fmt.Errorf("lesson requires level %d", lesson.LevelRequired))
	}

	grade := edumod.GradeQuiz(es.catalog.Quiz(ctx, lessonID).Value, answers)
	row, _, err := es.progress.RecordAttempt(dbctx.New(ctx), userID, lesson.ID, grade.Score, grade.Passed)
	if err != nil {
		return nil, storeUnavailable("record lesson attempt", err)
	}

	res := &LessonResult{
		Grade:     grade,
		Attempts:  row.Attempts,
		BestScore: row.Score,
	}
	if !row.Completed {
		res.State = sess.Snapshot()
		return res, nil
	}

	// The grant is keyed by lesson, so only the first completion that reaches
	// the state pays, including a retry after a failed state write.
	var applied bool
	err = withSession(ctx, es.sessions, userID, sess, func(s *GamificationSession) error {
		var err error
		res.State, res.LevelUp, applied, err = s.GrantReward(ctx, gamemod.LessonReward(lesson.ID, lesson.XPReward))
		return err
	})
	if err != nil {
		return nil, err
	}
	res.AlreadyCompleted = !applied
	if applied {
		es.log.Info("Lesson completed", "user_id", userID, "lesson_id", lesson.ID, "score", grade.Score, "xp", lesson.XPReward)
		res.XPAwarded = lesson.XPReward
		observability.Current().AddXP("lesson", lesson.XPReward)
	}
	return res, nil
}
