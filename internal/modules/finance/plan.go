package finance

import (
	"math"
	"time"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
)

const (
	emergencyFundMonths = 6

	needsShare   = 0.50
	wantsShare   = 0.20
	savingsShare = 0.30
)

// ComputePlan projects budget, emergency fund and monthly goal funding.
// It reports false when the profile is missing or has no income; callers
// keep whatever plan they already had in that case.
func ComputePlan(profile *types.FinancialProfile, goals []*types.Goal, asOf time.Time) (types.FinancialPlan, bool) {
	if profile == nil || profile.Income <= 0 {
		return types.FinancialPlan{}, false
	}
	income := profile.Income

	var monthly float64
	for _, g := range goals {
		if g == nil {
			continue
		}
		monthly += MonthlyRequired(*g, asOf)
	}

	savings := roundMoney(income * savingsShare)
	return types.FinancialPlan{
		UserID:                    profile.UserID,
		EmergencyFund:             roundMoney(profile.Expenses * emergencyFundMonths),
		MonthlyInvestmentRequired: roundMoney(monthly),
		BudgetNeeds:               roundMoney(income * needsShare),
		BudgetWants:               roundMoney(income * wantsShare),
		BudgetSavings:             savings,
		RecommendedSavings:        savings,
		SavingsRatio:              SavingsRatio(profile.Savings, income),
		UpdatedAt:                 asOf.UTC(),
	}, true
}

// MonthlyRequired is the remaining amount spread over the months left.
// Over-funded goals produce a negative value.
func MonthlyRequired(g types.Goal, asOf time.Time) float64 {
	return (g.TargetAmount - g.CurrentAmount) / float64(MonthsRemaining(g.TargetDate, asOf))
}

// MonthsRemaining counts calendar months between asOf and target, floored at 1.
func MonthsRemaining(target, asOf time.Time) int {
	months := (target.Year()-asOf.Year())*12 + int(target.Month()) - int(asOf.Month())
	if months < 1 {
		return 1
	}
	return months
}

// SavingsRatio is savings/income clamped to [0,1] and rounded to two decimals.
func SavingsRatio(savings, income float64) float64 {
	if income <= 0 {
		return 0
	}
	r := savings / income
	switch {
	case r < 0:
		r = 0
	case r > 1:
		r = 1
	}
	return math.Round(r*100) / 100
}

func roundMoney(v float64) int64 {
	return int64(math.Round(v))
}
