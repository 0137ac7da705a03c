package domain

import (
	"github.com/yungbote/wealthquest-backend/internal/domain/education"
	"github.com/yungbote/wealthquest-backend/internal/domain/finance"
	"github.com/yungbote/wealthquest-backend/internal/domain/gamification"
	"github.com/yungbote/wealthquest-backend/internal/domain/mentor"
	"github.com/yungbote/wealthquest-backend/internal/domain/user"
)

type User = user.User

type FinancialProfile = finance.FinancialProfile
type Goal = finance.Goal
type FinancialPlan = finance.FinancialPlan

type GamificationState = gamification.State
type Badge = gamification.Badge
type Reward = gamification.Reward
type StreakRecord = gamification.StreakRecord
type Challenge = gamification.Challenge
type ChallengeType = gamification.ChallengeType
type ChallengeProgress = gamification.ChallengeProgress
type ChallengeView = gamification.ChallengeView

type Lesson = education.Lesson
type QuizQuestion = education.QuizQuestion
type LessonProgress = education.LessonProgress
type LessonView = education.LessonView

type Advice = mentor.Advice
type ChatMessage = mentor.ChatMessage

const (
	ChallengeDaily  = gamification.ChallengeDaily
	ChallengeWeekly = gamification.ChallengeWeekly

	DateLayout = gamification.DateLayout

	ChatRoleUser      = mentor.ChatRoleUser
	ChatRoleAssistant = mentor.ChatRoleAssistant
)

var NewState = gamification.NewState

// Models lists every persisted table in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&FinancialProfile{},
		&Goal{},
		&FinancialPlan{},
		&GamificationState{},
		&Badge{},
		&Reward{},
		&StreakRecord{},
		&Challenge{},
		&ChallengeProgress{},
		&Lesson{},
		&QuizQuestion{},
		&LessonProgress{},
		&Advice{},
		&ChatMessage{},
	}
}
