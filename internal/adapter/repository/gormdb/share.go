package gormdb

import (
	"context"

	"sacco-backend/internal/domain/share"

	"gorm.io/gorm"
)

type ShareRepository struct{ db *gorm.DB }

func NewShareRepository(db *gorm.DB) *ShareRepository { return &ShareRepository{db: db} }

func (r *ShareRepository) Create(ctx context.Context, s *share.Share) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ShareRepository) SumActiveByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&share.Share{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("user_id = ? AND status = ?", userID, share.StatusActive).
		Row().Scan(&n)
	return n, err
}

func (r *ShareRepository) ListByUser(ctx context.Context, userID string) ([]share.Share, error) {
	var out []share.Share
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchase_date ASC, id ASC").
		Find(&out).Error
	return out, err
}
