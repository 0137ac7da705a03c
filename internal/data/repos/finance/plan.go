package finance

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type PlanRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.FinancialPlan, error)
	// Upsert overwrites the user's plan; plans are never merged.
	Upsert(dbc dbctx.Context, row *types.FinancialPlan) error
}

type planRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	return &planRepo{db: db, log: baseLog.With("repo", "PlanRepo")}
}

func (r *planRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.FinancialPlan, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.FinancialPlan
	if err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *planRepo) Upsert(dbc dbctx.Context, row *types.FinancialPlan) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"emergency_fund",
				"monthly_investment_required",
				"budget_needs",
				"budget_wants",
				"budget_savings",
				"recommended_savings",
				"savings_ratio",
				"updated_at",
			}),
		}).
		Create(row).Error
}
