package finance

import (
	"math"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

const (
	MaxScore = 100

	savingsWeight = 0.4
	goalWeight    = 0.4
	streakWeight  = 2
)

// ComputeScore blends savings ratio, average goal progress and streak into [0,100].
// Goal progress is not clamped per goal, so over-funding raises the score until the cap.
func ComputeScore(profile *types.FinancialProfile, goals []*types.Goal, streak int) int {
	var savingsPct float64
	if profile != nil && profile.Income > 0 {
		savingsPct = profile.Savings / profile.Income * 100
	}

	var goalPct float64
	var counted int
	for _, g := range goals {
		if g == nil || g.TargetAmount <= 0 {
			continue
		}
		goalPct += g.CurrentAmount / g.TargetAmount * 100
		counted++
	}
	if counted > 0 {
		goalPct /= float64(counted)
	}

	raw := int(math.Round(savingsPct*savingsWeight + goalPct*goalWeight + float64(streak*streakWeight)))
	if raw > MaxScore {
		return MaxScore
	}
	if raw < 0 {
		return 0
	}
	return raw
}
