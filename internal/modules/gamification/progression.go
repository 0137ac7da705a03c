package gamification

import (
	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

// LevelThresholds holds the cumulative XP needed for levels 1..10.
var LevelThresholds = [...]int64{0, 100, 300, 700, 1500, 3000, 5000, 8000, 12000, 20000}

// MaxLevel is the top level. XP keeps accumulating past its threshold.
const MaxLevel = len(LevelThresholds)

// LevelUp is emitted when an award crosses one or more thresholds.
type LevelUp struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// LevelFor returns 1 + the highest index whose threshold xp meets.
func LevelFor(xp int64) int {
	level := 1
	for i, t := range LevelThresholds {
		if xp >= t {
			level = i + 1
		}
	}
	return level
}

// AwardXP adds amount to state. Non-positive amounts leave the state untouched.
// The level never decreases, even if the stored level was ahead of the xp.
func AwardXP(state types.GamificationState, amount int64) (types.GamificationState, *LevelUp) {
	if amount <= 0 {
		return state, nil
	}
	out := state.Clone()
	out.XP += amount
	next := LevelFor(out.XP)
	if next <= out.Level {
		return out, nil
	}
	ev := &LevelUp{From: out.Level, To: next}
	out.Level = next
	return out, ev
}

// LevelProgress describes where xp sits between the current and next threshold.
type LevelProgress struct {
	Level            int     `json:"level"`
	XP               int64   `json:"xp"`
	CurrentThreshold int64   `json:"current_threshold"`
	NextThreshold    *int64  `json:"next_threshold"`
	PercentToNext    float64 `json:"percent_to_next"`
}

func Progress(xp int64) LevelProgress {
	level := LevelFor(xp)
	p := LevelProgress{
		Level:            level,
		XP:               xp,
		CurrentThreshold: LevelThresholds[level-1],
		PercentToNext:    100,
	}
	if level >= MaxLevel {
		return p
	}
	next := LevelThresholds[level]
	p.NextThreshold = &next
	span := float64(next - p.CurrentThreshold)
	p.PercentToNext = float64(xp-p.CurrentThreshold) / span * 100
	return p
}
