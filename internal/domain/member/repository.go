package member

import "context"

type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByMemberID(ctx context.Context, memberID string) (*Member, error)
	// Lock the member row; used as the guarantor aggregate lock.
	GetByMemberIDForUpdate(ctx context.Context, memberID string) (*Member, error)
	Save(ctx context.Context, m *Member) error
}
