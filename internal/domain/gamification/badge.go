package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Badge struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge_name" json:"user_id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:idx_user_badge_name" json:"name"`
	Description string    `gorm:"column:description;not null;default:''" json:"description"`
	EarnedAt    time.Time `gorm:"column:earned_at;not null" json:"earned_at"`
}

func (Badge) TableName() string { return "user_badges" }

func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
