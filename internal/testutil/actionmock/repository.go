package actionmock

import (
	"context"
	"time"

	domain "sacco-backend/internal/domain/action"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Getters without a func return context.Canceled; writers are no-ops.
type Repo struct {
	CreateFn                   func(ctx context.Context, a *domain.PendingAction) error
	GetByActionIDFn            func(ctx context.Context, actionID string) (*domain.PendingAction, error)
	GetByActionIDForUpdateFn   func(ctx context.Context, actionID string) (*domain.PendingAction, error)
	FindPendingFn              func(ctx context.Context, t domain.Type, entityID string) (*domain.PendingAction, error)
	SaveFn                     func(ctx context.Context, a *domain.PendingAction) error
	AddVerificationFn          func(ctx context.Context, v *domain.Verification) error
	HasVerificationFn          func(ctx context.Context, pendingActionID uint64, verifierID string) (bool, error)
	ListPendingFn              func(ctx context.Context) ([]domain.PendingAction, error)
	ListPendingCreatedBeforeFn func(ctx context.Context, cutoff time.Time) ([]domain.PendingAction, error)
}

func (m *Repo) Create(ctx context.Context, a *domain.PendingAction) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByActionID(ctx context.Context, actionID string) (*domain.PendingAction, error) {
	if m.GetByActionIDFn != nil {
		return m.GetByActionIDFn(ctx, actionID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByActionIDForUpdate(ctx context.Context, actionID string) (*domain.PendingAction, error) {
	if m.GetByActionIDForUpdateFn != nil {
		return m.GetByActionIDForUpdateFn(ctx, actionID)
	}
	return nil, context.Canceled
}

func (m *Repo) FindPending(ctx context.Context, t domain.Type, entityID string) (*domain.PendingAction, error) {
	if m.FindPendingFn != nil {
		return m.FindPendingFn(ctx, t, entityID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, a *domain.PendingAction) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

func (m *Repo) AddVerification(ctx context.Context, v *domain.Verification) error {
	if m.AddVerificationFn != nil {
		return m.AddVerificationFn(ctx, v)
	}
	return nil
}

func (m *Repo) HasVerification(ctx context.Context, pendingActionID uint64, verifierID string) (bool, error) {
	if m.HasVerificationFn != nil {
		return m.HasVerificationFn(ctx, pendingActionID, verifierID)
	}
	return false, nil
}

func (m *Repo) ListPending(ctx context.Context) ([]domain.PendingAction, error) {
	if m.ListPendingFn != nil {
		return m.ListPendingFn(ctx)
	}
	return nil, context.Canceled
}

func (m *Repo) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]domain.PendingAction, error) {
	if m.ListPendingCreatedBeforeFn != nil {
		return m.ListPendingCreatedBeforeFn(ctx, cutoff)
	}
	return nil, context.Canceled
}
