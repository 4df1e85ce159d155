package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)
	GetByTransactionIDForUpdate(ctx context.Context, transactionID string) (*Transaction, error)
	GetByReference(ctx context.Context, reference string) (*Transaction, error)
	// Save is optimistic on Version.
	Save(ctx context.Context, t *Transaction) error
	// Completed credits with money still unallocated, oldest first.
	ListPendingAllocation(ctx context.Context) ([]Transaction, error)

	CreateAllocation(ctx context.Context, a *Allocation) error
	ListAllocationsByUser(ctx context.Context, userID string) ([]Allocation, error)
	SumAllocations(ctx context.Context, transactionID string) (decimal.Decimal, error)
}

// Gateway is the mobile-money collaborator.
type Gateway interface {
	InitiateStkPush(ctx context.Context, phone string, amount decimal.Decimal, reference, description string) (externalID string, err error)
}
