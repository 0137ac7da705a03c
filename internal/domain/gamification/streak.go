package gamification

import "github.com/google/uuid"

// DateLayout is the calendar-day format used for streak bookkeeping.
const DateLayout = "2006-01-02"

type StreakRecord struct {
	UserID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	StreakDays       int       `gorm:"column:streak_days;not null;default:0" json:"streak_days"`
	LastActivityDate string    `gorm:"column:last_activity_date;size:10;not null;default:''" json:"last_activity_date"`
}

func (StreakRecord) TableName() string { return "streak_records" }
