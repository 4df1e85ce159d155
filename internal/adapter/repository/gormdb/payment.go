package gormdb

import (
	"context"
	"time"

	"sacco-backend/internal/domain/payment"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) Create(ctx context.Context, t *payment.Transaction) error {
	if t.Version == 0 {
		t.Version = 1
	}
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*payment.Transaction, error) {
	var out payment.Transaction
	res := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&out)
	return &out, res.Error
}

func (r *PaymentRepository) GetByTransactionIDForUpdate(ctx context.Context, transactionID string) (*payment.Transaction, error) {
	var out payment.Transaction
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transaction_id = ?", transactionID).
		First(&out)
	return &out, res.Error
}

func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*payment.Transaction, error) {
	var out payment.Transaction
	res := r.db.WithContext(ctx).Where("reference = ?", reference).First(&out)
	return &out, res.Error
}

func (r *PaymentRepository) Save(ctx context.Context, t *payment.Transaction) error {
	res := r.db.WithContext(ctx).
		Model(&payment.Transaction{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Updates(map[string]any{
			"allocated_amount": t.AllocatedAmount,
			"status":           t.Status,
			"external_id":      t.ExternalID,
			"completed_at":     t.CompletedAt,
			"version":          t.Version + 1,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return payment.ErrStaleVersion
	}
	t.Version++
	return nil
}

func (r *PaymentRepository) ListPendingAllocation(ctx context.Context) ([]payment.Transaction, error) {
	var out []payment.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND direction = ?", payment.StatusCompleted, payment.Credit).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) CreateAllocation(ctx context.Context, a *payment.Allocation) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *PaymentRepository) ListAllocationsByUser(ctx context.Context, userID string) ([]payment.Allocation, error) {
	var out []payment.Allocation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) SumAllocations(ctx context.Context, transactionID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&payment.Allocation{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("transaction_id = ? AND status = ?", transactionID, payment.AllocationCompleted).
		Row().Scan(&sum)
	return sum, err
}
