package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reward records that a one-time XP grant was applied, keyed by what earned
// it ("challenge:<id>", "lesson:<id>", "onboarding").
type Reward struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_reward_key" json:"user_id"`
	Key       string    `gorm:"column:reward_key;size:96;not null;uniqueIndex:idx_user_reward_key" json:"key"`
	GrantedAt time.Time `gorm:"column:granted_at;not null" json:"granted_at"`
}

func (Reward) TableName() string { return "xp_rewards" }

func (r *Reward) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
