package mentor

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type AdviceRepo interface {
	Create(dbc dbctx.Context, row *types.Advice) error
	Latest(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Advice, error)
}

type adviceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdviceRepo(db *gorm.DB, baseLog *logger.Logger) AdviceRepo {
	return &adviceRepo{db: db, log: baseLog.With("repo", "AdviceRepo")}
}

func (r *adviceRepo) Create(dbc dbctx.Context, row *types.Advice) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *adviceRepo) Latest(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Advice, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	out := []*types.Advice{}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
