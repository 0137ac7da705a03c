package finance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FinancialPlan is derived from the profile and goals; every regeneration overwrites it.
type FinancialPlan struct {
	ID                        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	EmergencyFund             int64     `gorm:"column:emergency_fund;not null" json:"emergency_fund"`
	MonthlyInvestmentRequired int64     `gorm:"column:monthly_investment_required;not null" json:"monthly_investment_required"`
	BudgetNeeds               int64     `gorm:"column:budget_needs;not null" json:"budget_needs"`
	BudgetWants               int64     `gorm:"column:budget_wants;not null" json:"budget_wants"`
	BudgetSavings             int64     `gorm:"column:budget_savings;not null" json:"budget_savings"`
	RecommendedSavings        int64     `gorm:"column:recommended_savings;not null" json:"recommended_savings"`
	SavingsRatio              float64   `gorm:"column:savings_ratio;not null" json:"savings_ratio"`
	UpdatedAt                 time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (FinancialPlan) TableName() string { return "financial_plans" }

func (p *FinancialPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
