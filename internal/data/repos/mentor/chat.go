package mentor

import (
	"slices"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

type ChatMessageRepo interface {
	Create(dbc dbctx.Context, row *types.ChatMessage) error
	// ListByUserID returns the newest limit turns, oldest first.
	ListByUserID(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ChatMessage, error)
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(dbc dbctx.Context, row *types.ChatMessage) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *chatMessageRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.ChatMessage{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 100
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

func (r *chatMessageRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Delete(&types.ChatMessage{})
	return res.RowsAffected, res.Error
}
