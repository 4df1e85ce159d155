package gormdb

import (
	"context"
	"time"

	"sacco-backend/internal/domain/guarantor"

	"gorm.io/gorm"
)

type GuarantorRepository struct{ db *gorm.DB }

func NewGuarantorRepository(db *gorm.DB) *GuarantorRepository { return &GuarantorRepository{db: db} }

func (r *GuarantorRepository) Create(ctx context.Context, p *guarantor.Pledge) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *GuarantorRepository) GetByRequestID(ctx context.Context, requestID string) (*guarantor.Pledge, error) {
	var out guarantor.Pledge
	res := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&out)
	return &out, res.Error
}

func (r *GuarantorRepository) FindOpen(ctx context.Context, loanID, guarantorID string) (*guarantor.Pledge, error) {
	var out guarantor.Pledge
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND guarantor_id = ? AND status IN ?", loanID, guarantorID,
			[]guarantor.Status{guarantor.StatusPending, guarantor.StatusAccepted}).
		First(&out)
	return &out, res.Error
}

func (r *GuarantorRepository) SumAcceptedShares(ctx context.Context, guarantorID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&guarantor.Pledge{}).
		Select("COALESCE(SUM(shares_pledged), 0)").
		Where("guarantor_id = ? AND status = ?", guarantorID, guarantor.StatusAccepted).
		Row().Scan(&n)
	return n, err
}

func (r *GuarantorRepository) ListPendingByGuarantor(ctx context.Context, guarantorID string) ([]guarantor.Pledge, error) {
	var out []guarantor.Pledge
	err := r.db.WithContext(ctx).
		Where("guarantor_id = ? AND status = ?", guarantorID, guarantor.StatusPending).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *GuarantorRepository) ListByLoan(ctx context.Context, loanID string) ([]guarantor.Pledge, error) {
	var out []guarantor.Pledge
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *GuarantorRepository) Answer(ctx context.Context, p *guarantor.Pledge) error {
	res := r.db.WithContext(ctx).
		Model(&guarantor.Pledge{}).
		Where("request_id = ? AND status = ?", p.RequestID, guarantor.StatusPending).
		Updates(map[string]any{
			"status":       p.Status,
			"responded_at": p.RespondedAt,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return guarantor.ErrNotPending
	}
	return nil
}

func (r *GuarantorRepository) ReleaseByLoan(ctx context.Context, loanID string, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&guarantor.Pledge{}).
		Where("loan_id = ? AND status = ?", loanID, guarantor.StatusAccepted).
		Updates(map[string]any{"status": guarantor.StatusReleased, "released_at": now})
	if res.Error != nil {
		return 0, res.Error
	}
	if err := r.db.WithContext(ctx).
		Model(&guarantor.Pledge{}).
		Where("loan_id = ? AND status = ?", loanID, guarantor.StatusPending).
		Updates(map[string]any{"status": guarantor.StatusRejected, "responded_at": now}).Error; err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}
