package finance

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type ProfileRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.FinancialProfile, error)
	// Upsert writes the profile and reports whether the row was newly created.
	Upsert(dbc dbctx.Context, row *types.FinancialProfile) (bool, error)
	ListUserIDs(dbc dbctx.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error)
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.FinancialProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.FinancialProfile
	if err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *profileRepo) Upsert(dbc dbctx.Context, row *types.FinancialProfile) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil {
		return false, nil
	}
	created := false
	err := t.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var existing types.FinancialProfile
		if err := tx.Where("user_id = ?", row.UserID).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if existing.ID == uuid.Nil {
			created = true
			return tx.Create(row).Error
		}
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		return tx.Model(&existing).Updates(map[string]interface{}{
			"age":      row.Age,
			"income":   row.Income,
			"expenses": row.Expenses,
			"savings":  row.Savings,
			"debt":     row.Debt,
		}).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// ListUserIDs pages through users that have a profile, ordered by user id.
func (r *profileRepo) ListUserIDs(dbc dbctx.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 500
	}
	q := t.WithContext(dbc.Ctx).Model(&types.FinancialProfile{}).Order("user_id ASC").Limit(limit)
	if afterID != uuid.Nil {
		q = q.Where("user_id > ?", afterID)
	}
	var ids []uuid.UUID
	if err := q.Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
