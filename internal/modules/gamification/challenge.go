package gamification

import (
	"time"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

// ChallengeStep is the outcome of applying delta to a progress row.
type ChallengeStep struct {
	Progress types.ChallengeProgress
	// Changed is false when the call was a no-op.
	Changed bool
	// Completed is true only on the incomplete-to-complete transition.
	Completed bool
}

// ApplyChallengeProgress advances progress by delta, capped at requirement.
// Completed rows are terminal and non-positive deltas do nothing.
func ApplyChallengeProgress(cur types.ChallengeProgress, delta, requirement int, now time.Time) ChallengeStep {
	if cur.Completed || delta <= 0 || requirement <= 0 {
		return ChallengeStep{Progress: cur}
	}
	next := cur
	next.Progress = cur.Progress + delta
	if next.Progress > requirement {
		next.Progress = requirement
	}
	next.LastUpdated = now.UTC()
	step := ChallengeStep{Progress: next, Changed: true}
	if next.Progress >= requirement {
		ts := now.UTC()
		next.Completed = true
		next.CompletedAt = &ts
		step.Progress = next
		step.Completed = true
	}
	return step
}

// MergeChallenges joins catalog entries with a user's progress rows.
func MergeChallenges(catalog []*types.Challenge, progress []*types.ChallengeProgress) []types.ChallengeView {
	byID := make(map[string]*types.ChallengeProgress, len(progress))
	for _, p := range progress {
		if p != nil {
			byID[p.ChallengeID] = p
		}
	}
	out := make([]types.ChallengeView, 0, len(catalog))
	for _, c := range catalog {
		if c == nil {
			continue
		}
		v := types.ChallengeView{Challenge: *c}
		if p, ok := byID[c.ID]; ok {
			v.Progress = p.Progress
			v.Completed = p.Completed
		}
		out = append(out, v)
	}
	return out
}
