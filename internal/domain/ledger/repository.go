package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	CreateSavings(ctx context.Context, e *SavingsEntry) error
	SumSavingsByUser(ctx context.Context, userID string) (decimal.Decimal, error)
	CreateWelfare(ctx context.Context, w *WelfarePayment) error
	ListWelfareByUser(ctx context.Context, userID string) ([]WelfarePayment, error)

	CreateFine(ctx context.Context, f *Fine) error
	// Oldest first.
	ListPendingFinesByUser(ctx context.Context, userID string) ([]Fine, error)
	SaveFine(ctx context.Context, f *Fine) error
}
