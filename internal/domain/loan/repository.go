package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*Loan, error)
	ListByBorrower(ctx context.Context, borrowerID string) ([]Loan, error)
	// Oldest first, row-locked. Used by auto-allocation.
	ListActiveByBorrowerForUpdate(ctx context.Context, borrowerID string) ([]Loan, error)
	CountActiveByBorrower(ctx context.Context, borrowerID string) (int64, error)
	Save(ctx context.Context, l *Loan) error

	CreateRepayment(ctx context.Context, r *Repayment) error
	ListRepayments(ctx context.Context, loanID string) ([]Repayment, error)
}
