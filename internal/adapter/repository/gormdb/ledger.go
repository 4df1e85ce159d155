package gormdb

import (
	"context"

	"sacco-backend/internal/domain/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerRepository struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) *LedgerRepository { return &LedgerRepository{db: db} }

func (r *LedgerRepository) CreateSavings(ctx context.Context, e *ledger.SavingsEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *LedgerRepository) SumSavingsByUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&ledger.SavingsEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Row().Scan(&sum)
	return sum, err
}

func (r *LedgerRepository) CreateWelfare(ctx context.Context, w *ledger.WelfarePayment) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *LedgerRepository) ListWelfareByUser(ctx context.Context, userID string) ([]ledger.WelfarePayment, error) {
	var out []ledger.WelfarePayment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("period DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *LedgerRepository) CreateFine(ctx context.Context, f *ledger.Fine) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *LedgerRepository) ListPendingFinesByUser(ctx context.Context, userID string) ([]ledger.Fine, error) {
	var out []ledger.Fine
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, ledger.FinePending).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *LedgerRepository) SaveFine(ctx context.Context, f *ledger.Fine) error {
	return r.db.WithContext(ctx).Save(f).Error
}
