package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/wealthquest-backend/internal/data/repos/education"
	"github.com/yungbote/wealthquest-backend/internal/data/repos/finance"
	"github.com/yungbote/wealthquest-backend/internal/data/repos/gamification"
	"github.com/yungbote/wealthquest-backend/internal/data/repos/mentor"
	"github.com/yungbote/wealthquest-backend/internal/data/repos/user"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type ProfileRepo = finance.ProfileRepo
type GoalRepo = finance.GoalRepo
type PlanRepo = finance.PlanRepo

type StateRepo = gamification.StateRepo
type BadgeRepo = gamification.BadgeRepo
type RewardRepo = gamification.RewardRepo
type StreakRepo = gamification.StreakRepo
type ChallengeRepo = gamification.ChallengeRepo
type ChallengeProgressRepo = gamification.ChallengeProgressRepo

type LessonRepo = education.LessonRepo
type QuizRepo = education.QuizRepo
type LessonProgressRepo = education.LessonProgressRepo

type AdviceRepo = mentor.AdviceRepo
type ChatMessageRepo = mentor.ChatMessageRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return finance.NewProfileRepo(db, baseLog)
}
func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo { return finance.NewGoalRepo(db, baseLog) }
func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo { return finance.NewPlanRepo(db, baseLog) }

func NewStateRepo(db *gorm.DB, baseLog *logger.Logger) StateRepo {
	return gamification.NewStateRepo(db, baseLog)
}
func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return gamification.NewBadgeRepo(db, baseLog)
}
func NewRewardRepo(db *gorm.DB, baseLog *logger.Logger) RewardRepo {
	return gamification.NewRewardRepo(db, baseLog)
}
func NewStreakRepo(db *gorm.DB, baseLog *logger.Logger) StreakRepo {
	return gamification.NewStreakRepo(db, baseLog)
}
func NewChallengeRepo(db *gorm.DB, baseLog *logger.Logger) ChallengeRepo {
	return gamification.NewChallengeRepo(db, baseLog)
}
func NewChallengeProgressRepo(db *gorm.DB, baseLog *logger.Logger) ChallengeProgressRepo {
	return gamification.NewChallengeProgressRepo(db, baseLog)
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return education.NewLessonRepo(db, baseLog)
}
func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo { return education.NewQuizRepo(db, baseLog) }
func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return education.NewLessonProgressRepo(db, baseLog)
}

func NewAdviceRepo(db *gorm.DB, baseLog *logger.Logger) AdviceRepo {
	return mentor.NewAdviceRepo(db, baseLog)
}
func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return mentor.NewChatMessageRepo(db, baseLog)
}
