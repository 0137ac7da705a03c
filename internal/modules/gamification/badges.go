package gamification

import (
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

const (
	BadgeStarterPlanner    = "Starter Planner"
	BadgeWealthExplorer    = "Wealth Explorer"
	BadgeConsistencyPro    = "Consistency Pro"
	BadgeStreakMaster      = "Streak Master"
	BadgeChallengeChampion = "Challenge Champion"

	wealthExplorerLevel    = 3
	consistencyActions     = 5
	streakMasterDays       = 30
	challengeChampionCount = 10
)

// BadgeRule pairs a badge with the state condition that earns it.
type BadgeRule struct {
	Name        string
	Description string
	Earned      func(s types.GamificationState) bool
}

// BadgeCatalog holds the state-derived badges. Starter Planner is event-driven
// (first goal created) and is unlocked directly by the goal flow.
var BadgeCatalog = []BadgeRule{
	{
		Name:        BadgeWealthExplorer,
		Description: "Reached Level 3",
		Earned:      func(s types.GamificationState) bool { return s.Level >= wealthExplorerLevel },
	},
	{
		Name:        BadgeConsistencyPro,
		Description: "Completed 5 actions",
		Earned:      func(s types.GamificationState) bool { return s.ActionsCompleted >= consistencyActions },
	},
	{
		Name:        BadgeStreakMaster,
		Description: "Kept a 30-day streak",
		Earned:      func(s types.GamificationState) bool { return s.Streak >= streakMasterDays },
	},
	{
		Name:        BadgeChallengeChampion,
		Description: "Completed 10 challenges",
		Earned:      func(s types.GamificationState) bool { return s.ChallengesCompleted >= challengeChampionCount },
	},
}

const starterPlannerDescription = "Created your first financial goal"

// StarterPlanner is the badge granted for the first goal.
func StarterPlanner() (string, string) {
	return BadgeStarterPlanner, starterPlannerDescription
}

// UnlockBadge adds the named badge once. The bool reports whether it was newly added.
func UnlockBadge(state types.GamificationState, name, description string, now time.Time) (types.GamificationState, bool) {
	if name == "" || state.HasBadge(name) {
		return state, false
	}
	out := state.Clone()
	out.Badges = append(out.Badges, types.Badge{
		ID:          uuid.New(),
		UserID:      state.UserID,
		Name:        name,
		Description: description,
		EarnedAt:    now.UTC(),
	})
	return out, true
}

// EvaluateBadges unlocks every catalog badge whose condition holds and returns
// the names that were new.
func EvaluateBadges(state types.GamificationState, now time.Time) (types.GamificationState, []string) {
	var unlocked []string
	for _, rule := range BadgeCatalog {
		if !rule.Earned(state) {
			continue
		}
		var added bool
		state, added = UnlockBadge(state, rule.Name, rule.Description, now)
		if added {
			unlocked = append(unlocked, rule.Name)
		}
	}
	return state, unlocked
}
