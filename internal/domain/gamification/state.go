package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// State is the per-user gamification aggregate. Badges live in user_badges and
// reward keys in xp_rewards; both are attached on load.
type State struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	XP                  int64     `gorm:"column:xp;not null;default:0" json:"xp"`
	Level               int       `gorm:"column:level;not null;default:1" json:"level"`
	Score               int       `gorm:"column:score;not null;default:0" json:"score"`
	Streak              int       `gorm:"column:streak;not null;default:0" json:"streak"`
	LastActivityDate    string    `gorm:"column:last_activity_date;size:10;not null;default:''" json:"last_activity_date"`
	ActionsCompleted    int       `gorm:"column:actions_completed;not null;default:0" json:"actions_completed"`
	ChallengesCompleted int       `gorm:"column:challenges_completed;not null;default:0" json:"challenges_completed"`
	// StreakRewardedDate is the last streak day whose milestone bonus was applied.
	StreakRewardedDate  string    `gorm:"column:streak_rewarded_date;size:10;not null;default:''" json:"streak_rewarded_date"`
	Badges              []Badge   `gorm:"-" json:"badges"`
	Rewards             []string  `gorm:"-" json:"rewards"`
	UpdatedAt           time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (State) TableName() string { return "gamification_states" }

func (s *State) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// NewState is the starting point for a user with no history.
func NewState(userID uuid.UUID) State {
	return State{UserID: userID, Level: 1, Badges: []Badge{}, Rewards: []string{}}
}

// Clone deep-copies the badge slice so mutations on the copy stay isolated.
func (s State) Clone() State {
	out := s
	out.Badges = make([]Badge, len(s.Badges))
	copy(out.Badges, s.Badges)
	out.Rewards = make([]string, len(s.Rewards))
	copy(out.Rewards, s.Rewards)
	return out
}

func (s State) HasBadge(name string) bool {
	for _, b := range s.Badges {
		if b.Name == name {
			return true
		}
	}
	return false
}

func (s State) HasReward(key string) bool {
	for _, k := range s.Rewards {
		if k == key {
			return true
		}
	}
	return false
}
