package gamification

import (
	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

// Grant is a one-time XP award identified by Key.
type Grant struct {
	Key string
	XP  int64
	// Action counts the grant towards actions_completed; Challenge also
	// towards challenges_completed.
	Action    bool
	Challenge bool
}

func ChallengeReward(challengeID string, xp int64) Grant {
	return Grant{Key: "challenge:" + challengeID, XP: xp, Action: true, Challenge: true}
}

func LessonReward(lessonID string, xp int64) Grant {
	return Grant{Key: "lesson:" + lessonID, XP: xp, Action: true}
}

func OnboardingReward(xp int64) Grant {
	return Grant{Key: "onboarding", XP: xp}
}

// ApplyGrant applies g unless its key is already recorded on state. applied
// reports whether anything changed.
func ApplyGrant(state types.GamificationState, g Grant) (out types.GamificationState, ev *LevelUp, applied bool) {
	if g.Key == "" || state.HasReward(g.Key) {
		return state, nil, false
	}
	out, ev = AwardXP(state, g.XP)
	out = out.Clone()
	out.Rewards = append(out.Rewards, g.Key)
	if g.Action {
		out.ActionsCompleted++
	}
	if g.Challenge {
		out.ChallengesCompleted++
	}
	return out, ev, true
}

// ApplyStreakBonus brings state up to the durable streak record for day and
// pays that day's milestone bonus once. A day older than the state's last
// activity changes nothing.
func ApplyStreakBonus(state types.GamificationState, streak int, day string) (out types.GamificationState, ev *LevelUp, bonus int64) {
	if day == "" || day < state.LastActivityDate {
		return state, nil, 0
	}
	out = state.Clone()
	if day > out.LastActivityDate || streak > out.Streak {
		out.Streak = streak
	}
	out.LastActivityDate = day
	if day <= out.StreakRewardedDate {
		return out, nil, 0
	}
	out.StreakRewardedDate = day
	bonus = MilestoneBonus(streak)
	out, ev = AwardXP(out, bonus)
	return out, ev, bonus
}
