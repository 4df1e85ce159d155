package action

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a *PendingAction) error
	GetByActionID(ctx context.Context, actionID string) (*PendingAction, error)
	// Row lock for the vote transaction.
	GetByActionIDForUpdate(ctx context.Context, actionID string) (*PendingAction, error)
	// Returns gorm.ErrRecordNotFound when nothing is pending for the entity.
	FindPending(ctx context.Context, t Type, entityID string) (*PendingAction, error)
	// Save is optimistic: it fails with ErrStaleVersion when Version moved underneath.
	Save(ctx context.Context, a *PendingAction) error

	AddVerification(ctx context.Context, v *Verification) error
	HasVerification(ctx context.Context, pendingActionID uint64, verifierID string) (bool, error)

	ListPending(ctx context.Context) ([]PendingAction, error)
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]PendingAction, error)
}
