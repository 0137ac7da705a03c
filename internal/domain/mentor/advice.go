package mentor

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Advice is one generated mentor recommendation, kept with the context it was generated from.
type Advice struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Content   string         `gorm:"column:content;type:text;not null" json:"content"`
	Context   datatypes.JSON `gorm:"column:context" json:"context,omitempty"`
	Provider  string         `gorm:"column:provider;size:32;not null;default:''" json:"provider"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;autoCreateTime;index" json:"created_at"`
}

func (Advice) TableName() string { return "ai_advice" }

func (a *Advice) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
