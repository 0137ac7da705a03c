package gamification

import (
	"time"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

// StreakOutcome is the result of one daily check.
type StreakOutcome struct {
	Streak   int   `json:"streak"`
	IsNewDay bool  `json:"is_new_day"`
	BonusXP  int64 `json:"bonus_xp"`
}

var streakMilestones = map[int]int64{
	3:  20,
	7:  50,
	30: 100,
}

// MilestoneBonus returns the bonus for landing exactly on a milestone.
func MilestoneBonus(streak int) int64 {
	return streakMilestones[streak]
}

// Day truncates t to its calendar date in t's location.
func Day(t time.Time) string {
	return t.Format(types.DateLayout)
}

// NextStreak applies one check for today against the stored record.
// A nil record is a first-ever check.
func NextStreak(rec *types.StreakRecord, today time.Time) StreakOutcome {
	todayKey := Day(today)
	if rec != nil && rec.LastActivityDate == todayKey {
		return StreakOutcome{Streak: rec.StreakDays, IsNewDay: false}
	}
	streak := 1
	if rec != nil && rec.LastActivityDate == Day(today.AddDate(0, 0, -1)) {
		streak = rec.StreakDays + 1
	}
	return StreakOutcome{Streak: streak, IsNewDay: true, BonusXP: MilestoneBonus(streak)}
}
