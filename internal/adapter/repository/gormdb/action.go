package gormdb

import (
	"context"
	"errors"
	"time"

	"sacco-backend/internal/domain/action"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActionRepository struct{ db *gorm.DB }

func NewActionRepository(db *gorm.DB) *ActionRepository { return &ActionRepository{db: db} }

func (r *ActionRepository) Create(ctx context.Context, a *action.PendingAction) error {
	return r.db.WithContext(ctx).Omit("Verifications").Create(a).Error
}

func (r *ActionRepository) GetByActionID(ctx context.Context, actionID string) (*action.PendingAction, error) {
	var out action.PendingAction
	res := r.db.WithContext(ctx).
		Preload("Verifications", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("action_id = ?", actionID).
		First(&out)
	return &out, res.Error
}

func (r *ActionRepository) GetByActionIDForUpdate(ctx context.Context, actionID string) (*action.PendingAction, error) {
	var out action.PendingAction
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("action_id = ?", actionID).
		First(&out)
	return &out, res.Error
}

func (r *ActionRepository) FindPending(ctx context.Context, t action.Type, entityID string) (*action.PendingAction, error) {
	var out action.PendingAction
	res := r.db.WithContext(ctx).
		Where("action_type = ? AND entity_id = ? AND status = ?", t, entityID, action.StatusPending).
		Order("id ASC").
		First(&out)
	return &out, res.Error
}

// Save bumps Version only when nobody else did first.
func (r *ActionRepository) Save(ctx context.Context, a *action.PendingAction) error {
	res := r.db.WithContext(ctx).
		Model(&action.PendingAction{}).
		Where("id = ? AND version = ?", a.ID, a.Version).
		Updates(map[string]any{
			"status":          a.Status,
			"approval_count":  a.ApprovalCount,
			"rejection_count": a.RejectionCount,
			"completed_at":    a.CompletedAt,
			"version":         a.Version + 1,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return action.ErrStaleVersion
	}
	a.Version++
	return nil
}

func (r *ActionRepository) AddVerification(ctx context.Context, v *action.Verification) error {
	err := r.db.WithContext(ctx).Create(v).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return action.ErrAlreadyVoted
	}
	return err
}

func (r *ActionRepository) HasVerification(ctx context.Context, pendingActionID uint64, verifierID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&action.Verification{}).
		Where("pending_action_id = ? AND verifier_id = ?", pendingActionID, verifierID).
		Count(&n).Error
	return n > 0, err
}

func (r *ActionRepository) ListPending(ctx context.Context) ([]action.PendingAction, error) {
	var out []action.PendingAction
	err := r.db.WithContext(ctx).
		Preload("Verifications", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("status = ?", action.StatusPending).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *ActionRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]action.PendingAction, error) {
	var out []action.PendingAction
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", action.StatusPending, cutoff).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
