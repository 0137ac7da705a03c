package finance

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
	pkgerrors "github.com/yungbote/wealthquest-backend/internal/pkg/errors"
)

type GoalRepo interface {
	Create(dbc dbctx.Context, row *types.Goal) error
	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Goal, error)
	GetByID(dbc dbctx.Context, userID, goalID uuid.UUID) (*types.Goal, error)
	CountByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	// AddFunds increments current_amount in place and returns the updated goal.
	AddFunds(dbc dbctx.Context, userID, goalID uuid.UUID, amount float64) (*types.Goal, error)
}

type goalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo {
	return &goalRepo{db: db, log: baseLog.With("repo", "GoalRepo")}
}

func (r *goalRepo) Create(dbc dbctx.Context, row *types.Goal) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *goalRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Goal, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Goal{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *goalRepo) GetByID(dbc dbctx.Context, userID, goalID uuid.UUID) (*types.Goal, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Goal
	if err := t.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", goalID, userID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *goalRepo) CountByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).Model(&types.Goal{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *goalRepo) AddFunds(dbc dbctx.Context, userID, goalID uuid.UUID, amount float64) (*types.Goal, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if amount <= 0 {
		return nil, pkgerrors.ErrInvalidArgument
	}
	res := t.WithContext(dbc.Ctx).Model(&types.Goal{}).
		Where("id = ? AND user_id = ?", goalID, userID).
		Update("current_amount", gorm.Expr("current_amount + ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.ErrNotFound
	}
	return r.GetByID(dbc, userID, goalID)
}
