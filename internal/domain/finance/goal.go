package finance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Goal is a savings target. CurrentAmount only grows through add-funds and may exceed TargetAmount.
type Goal struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	GoalName      string    `gorm:"column:goal_name;not null" json:"goal_name"`
	TargetAmount  float64   `gorm:"column:target_amount;not null" json:"target_amount"`
	CurrentAmount float64   `gorm:"column:current_amount;not null;default:0" json:"current_amount"`
	TargetDate    time.Time `gorm:"column:target_date;not null" json:"target_date"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Goal) TableName() string { return "goals" }

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// ProgressPct is clamped to [0,100] for display only.
func (g Goal) ProgressPct() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	pct := g.CurrentAmount / g.TargetAmount * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
