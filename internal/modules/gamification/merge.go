package gamification

import (
	"sort"

	"github.com/google/uuid"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

// Merge reconciles two copies of the same user's state without regressing either.
// xp and counters take the max, level takes the max of both levels and the level
// implied by xp, and the streak follows the later activity date (ties keep the
// longer streak). Badges are unioned by name, keeping the earliest unlock, and
// reward keys are unioned so a grant applied on either side is never repeated.
// Score is copied from whichever side wrote last; callers recompute it.
func Merge(local, remote types.GamificationState) types.GamificationState {
	out := remote.Clone()
	if out.UserID == uuid.Nil {
		out.UserID = local.UserID
	}
	if out.ID == uuid.Nil {
		out.ID = local.ID
	}
	out.XP = max(local.XP, remote.XP)
	out.Level = max(max(local.Level, remote.Level), LevelFor(out.XP))
	out.ActionsCompleted = max(local.ActionsCompleted, remote.ActionsCompleted)
	out.ChallengesCompleted = max(local.ChallengesCompleted, remote.ChallengesCompleted)

	switch {
	case local.LastActivityDate > remote.LastActivityDate:
		out.Streak, out.LastActivityDate = local.Streak, local.LastActivityDate
	case local.LastActivityDate == remote.LastActivityDate:
		out.Streak = max(local.Streak, remote.Streak)
	}

	if local.UpdatedAt.After(remote.UpdatedAt) {
		out.Score = local.Score
		out.UpdatedAt = local.UpdatedAt
	}

	out.StreakRewardedDate = max(local.StreakRewardedDate, remote.StreakRewardedDate)
	out.Badges = unionBadges(local.Badges, remote.Badges)
	out.Rewards = unionKeys(local.Rewards, remote.Rewards)
	return out
}

func unionKeys(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, set := range [][]string{a, b} {
		for _, k := range set {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func unionBadges(a, b []types.Badge) []types.Badge {
	byName := make(map[string]types.Badge, len(a)+len(b))
	for _, set := range [][]types.Badge{a, b} {
		for _, badge := range set {
			prev, ok := byName[badge.Name]
			if !ok || badge.EarnedAt.Before(prev.EarnedAt) {
				byName[badge.Name] = badge
			}
		}
	}
	out := make([]types.Badge, 0, len(byName))
	for _, badge := range byName {
		out = append(out, badge)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].EarnedAt.Before(out[j].EarnedAt)
	})
	return out
}

// Equivalent reports whether two states would persist identically, ignoring timestamps.
func Equivalent(a, b types.GamificationState) bool {
	if a.XP != b.XP || a.Level != b.Level || a.Score != b.Score || a.Streak != b.Streak ||
		a.LastActivityDate != b.LastActivityDate || a.ActionsCompleted != b.ActionsCompleted ||
		a.ChallengesCompleted != b.ChallengesCompleted || a.StreakRewardedDate != b.StreakRewardedDate ||
		len(a.Badges) != len(b.Badges) || len(a.Rewards) != len(b.Rewards) {
		return false
	}
	keys := make(map[string]struct{}, len(a.Rewards))
	for _, k := range a.Rewards {
		keys[k] = struct{}{}
	}
	for _, k := range b.Rewards {
		if _, ok := keys[k]; !ok {
			return false
		}
	}
	names := make(map[string]struct{}, len(a.Badges))
	for _, badge := range a.Badges {
		names[badge.Name] = struct{}{}
	}
	for _, badge := range b.Badges {
		if _, ok := names[badge.Name]; !ok {
			return false
		}
	}
	return true
}
