package finance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FinancialProfile is the monthly money picture a user enters at onboarding.
type FinancialProfile struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Age      int       `gorm:"column:age;not null;default:0" json:"age"`
	Income   float64   `gorm:"column:income;not null;default:0" json:"income"`
	Expenses float64   `gorm:"column:expenses;not null;default:0" json:"expenses"`
	Savings  float64   `gorm:"column:savings;not null;default:0" json:"savings"`
	Debt     float64   `gorm:"column:debt;not null;default:0" json:"debt"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (FinancialProfile) TableName() string { return "financial_profiles" }

func (p *FinancialProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
