package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChallengeType string

const (
	ChallengeDaily  ChallengeType = "daily"
	ChallengeWeekly ChallengeType = "weekly"
)

func (t ChallengeType) Valid() bool {
	return t == ChallengeDaily || t == ChallengeWeekly
}

// Challenge is a catalog entry.
type Challenge struct {
	ID               string        `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	Title            string        `gorm:"column:title;not null" json:"title" yaml:"title"`
	Description      string        `gorm:"column:description;not null;default:''" json:"description" yaml:"description"`
	XPReward         int64         `gorm:"column:xp_reward;not null" json:"xp_reward" yaml:"xp_reward"`
	Type             ChallengeType `gorm:"column:type;size:16;not null;index" json:"type" yaml:"type"`
	RequirementValue int           `gorm:"column:requirement_value;not null" json:"requirement_value" yaml:"requirement_value"`
}

func (Challenge) TableName() string { return "challenges" }

type ChallengeProgress struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_challenge" json:"user_id"`
	ChallengeID string     `gorm:"column:challenge_id;size:64;not null;uniqueIndex:idx_user_challenge" json:"challenge_id"`
	Progress    int        `gorm:"column:progress;not null;default:0" json:"progress"`
	Completed   bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	LastUpdated time.Time  `gorm:"column:last_updated;not null" json:"last_updated"`
}

func (ChallengeProgress) TableName() string { return "user_challenges" }

func (p *ChallengeProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ChallengeView is a catalog entry merged with one user's progress.
type ChallengeView struct {
	Challenge
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}
