package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/wealthquest-backend/internal/data/repos"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type Repos struct {
	User repos.UserRepo

	Profile repos.ProfileRepo
	Goal    repos.GoalRepo
	Plan    repos.PlanRepo

	State             repos.StateRepo
	Badge             repos.BadgeRepo
	Reward            repos.RewardRepo
	Streak            repos.StreakRepo
	Challenge         repos.ChallengeRepo
	ChallengeProgress repos.ChallengeProgressRepo

	Lesson         repos.LessonRepo
	Quiz           repos.QuizRepo
	LessonProgress repos.LessonProgressRepo

	Advice      repos.AdviceRepo
	ChatMessage repos.ChatMessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User: repos.NewUserRepo(db, log),

		Profile: repos.NewProfileRepo(db, log),
		Goal:    repos.NewGoalRepo(db, log),
		Plan:    repos.NewPlanRepo(db, log),

		State:             repos.NewStateRepo(db, log),
		Badge:             repos.NewBadgeRepo(db, log),
		Reward:            repos.NewRewardRepo(db, log),
		Streak:            repos.NewStreakRepo(db, log),
		Challenge:         repos.NewChallengeRepo(db, log),
		ChallengeProgress: repos.NewChallengeProgressRepo(db, log),

		Lesson:         repos.NewLessonRepo(db, log),
		Quiz:           repos.NewQuizRepo(db, log),
		LessonProgress: repos.NewLessonProgressRepo(db, log),

		Advice:      repos.NewAdviceRepo(db, log),
		ChatMessage: repos.NewChatMessageRepo(db, log),
	}
}
